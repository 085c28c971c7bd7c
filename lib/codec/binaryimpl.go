package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/ValentinKolb/dGrid/lib/query"
)

// NewBinaryCodec creates a codec using a compact binary format:
// one tag byte followed by a big endian payload. Strings, byte slices and
// containers are prefixed with their length as uint32. A predicate tag is followed
// by its tree (see query.ToTree) encoded as map value.
func NewBinaryCodec() ICodec {
	return &binaryCodecImpl{}
}

// binaryCodecImpl implements ICodec using a custom binary format
type binaryCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (b binaryCodecImpl) Encode(v any) ([]byte, error) {
	return b.appendValue(make([]byte, 0, 16), v)
}

func (b binaryCodecImpl) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := &reader{data: data}
	v, err := r.value()
	if err != nil {
		return nil, err
	}
	if r.pos != len(data) {
		return nil, fmt.Errorf("codec: %d trailing bytes", len(data)-r.pos)
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func (b binaryCodecImpl) appendValue(buf []byte, v any) ([]byte, error) {
	t, norm, err := normalize(v)
	if err != nil {
		return nil, err
	}
	buf = append(buf, byte(t))

	switch t {
	case tagNull:
		return buf, nil
	case tagBool:
		if norm.(bool) {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case tagInt:
		return binary.BigEndian.AppendUint64(buf, uint64(norm.(int64))), nil
	case tagFloat:
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(norm.(float64))), nil
	case tagString:
		return appendBytes(buf, []byte(norm.(string))), nil
	case tagBytes:
		return appendBytes(buf, norm.([]byte)), nil
	case tagPredicate:
		tree, err := predicateTree(norm.(query.Predicate))
		if err != nil {
			return nil, err
		}
		return b.appendValue(buf, tree)
	case tagList:
		return b.appendList(buf, norm.([]any))
	case tagKeys:
		return b.appendList(buf, norm.(Keys).Items)
	default: // tagMap
		return b.appendMap(buf, norm.(map[string]any))
	}
}

func (b binaryCodecImpl) appendMap(buf []byte, m map[string]any) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m)))

	// sorted keys keep the encoding deterministic
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		buf = appendBytes(buf, []byte(k))
		if buf, err = b.appendValue(buf, m[k]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (b binaryCodecImpl) appendList(buf []byte, items []any) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(items)))
	var err error
	for _, item := range items {
		if buf, err = b.appendValue(buf, item); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func appendBytes(buf, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// reader walks over an encoded value
type reader struct {
	data []byte
	pos  int
}

func (r *reader) next(n int, what string) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("codec: data too short for %s", what)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) length(what string) (int, error) {
	b, err := r.next(4, what)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) bytes(what string) ([]byte, error) {
	n, err := r.length(what + " length")
	if err != nil {
		return nil, err
	}
	return r.next(n, what)
}

func (r *reader) value() (any, error) {
	head, err := r.next(1, "tag")
	if err != nil {
		return nil, err
	}

	switch t := tag(head[0]); t {
	case tagNull:
		return nil, nil
	case tagBool:
		b, err := r.next(1, "bool")
		if err != nil {
			return nil, err
		}
		return b[0] != 0, nil
	case tagInt:
		b, err := r.next(8, "int")
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case tagFloat:
		b, err := r.next(8, "float")
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	case tagString:
		b, err := r.bytes("string")
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case tagBytes:
		b, err := r.bytes("bytes")
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case tagPredicate:
		tree, err := r.value()
		if err != nil {
			return nil, err
		}
		return decodePredicate(tree)
	case tagList, tagKeys:
		n, err := r.length("list length")
		if err != nil {
			return nil, err
		}
		if n > len(r.data)-r.pos {
			return nil, fmt.Errorf("codec: data too short for %d list items", n)
		}
		items := make([]any, n)
		for i := range items {
			if items[i], err = r.value(); err != nil {
				return nil, err
			}
		}
		if t == tagKeys {
			return Keys{Items: items}, nil
		}
		return items, nil
	case tagMap:
		n, err := r.length("map length")
		if err != nil {
			return nil, err
		}
		if n > len(r.data)-r.pos {
			return nil, fmt.Errorf("codec: data too short for %d map entries", n)
		}
		m := make(map[string]any, n)
		for i := 0; i < n; i++ {
			k, err := r.bytes("map key")
			if err != nil {
				return nil, err
			}
			if m[string(k)], err = r.value(); err != nil {
				return nil, err
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("codec: unknown %s", t)
	}
}
