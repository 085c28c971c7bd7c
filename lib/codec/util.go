package codec

import (
	"fmt"
	"math"

	"github.com/ValentinKolb/dGrid/lib/query"
)

// tag identifies the type of an encoded value.
// The numeric values are part of the binary format and must not change.
type tag byte

const (
	tagNull tag = iota
	tagBool
	tagInt
	tagFloat
	tagString
	tagBytes
	tagList
	tagMap
	tagKeys
	tagPredicate
)

// String returns the name of a tag as used by the JSON envelope.
func (t tag) String() string {
	switch t {
	case tagNull:
		return "null"
	case tagBool:
		return "bool"
	case tagInt:
		return "int"
	case tagFloat:
		return "float"
	case tagString:
		return "string"
	case tagBytes:
		return "bytes"
	case tagList:
		return "list"
	case tagMap:
		return "map"
	case tagKeys:
		return "keys"
	case tagPredicate:
		return "predicate"
	default:
		return fmt.Sprintf("tag(%d)", byte(t))
	}
}

// parseTag is the inverse of tag.String
func parseTag(s string) (tag, error) {
	for t := tagNull; t <= tagPredicate; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("codec: unknown tag %q", s)
}

// normalize maps a Go value to its tag and canonical representation:
// integers become int64, floats float64, *Keys becomes Keys.
func normalize(v any) (tag, any, error) {
	switch t := v.(type) {
	case nil:
		return tagNull, nil, nil
	case bool:
		return tagBool, t, nil
	case int:
		return tagInt, int64(t), nil
	case int8:
		return tagInt, int64(t), nil
	case int16:
		return tagInt, int64(t), nil
	case int32:
		return tagInt, int64(t), nil
	case int64:
		return tagInt, t, nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return tagInt, int64(t), nil
	case uint16:
		return tagInt, int64(t), nil
	case uint32:
		return tagInt, int64(t), nil
	case uint64:
		return fromUint(t)
	case float32:
		return tagFloat, float64(t), nil
	case float64:
		return tagFloat, t, nil
	case string:
		return tagString, t, nil
	case []byte:
		if t == nil {
			return tagNull, nil, nil
		}
		return tagBytes, t, nil
	case []any:
		return tagList, t, nil
	case map[string]any:
		return tagMap, t, nil
	case Keys:
		return tagKeys, t, nil
	case *Keys:
		if t == nil {
			return tagNull, nil, nil
		}
		return tagKeys, *t, nil
	case query.Predicate:
		return tagPredicate, t, nil
	default:
		return 0, nil, unsupported(v)
	}
}

func fromUint(u uint64) (tag, any, error) {
	if u > math.MaxInt64 {
		return tagFloat, float64(u), nil
	}
	return tagInt, int64(u), nil
}

// predicateTree converts a predicate into the tree that is encoded in its place
func predicateTree(p query.Predicate) (map[string]any, error) {
	tree, err := query.ToTree(p)
	if err != nil {
		return nil, fmt.Errorf("codec: %w: %w", ErrUnsupportedType, err)
	}
	return tree, nil
}

// decodePredicate restores a predicate from its decoded tree
func decodePredicate(v any) (query.Predicate, error) {
	tree, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("codec: decode predicate: expected a tree, got %T", v)
	}
	p, err := query.FromTree(tree)
	if err != nil {
		return nil, fmt.Errorf("codec: decode predicate: %w", err)
	}
	return p, nil
}
