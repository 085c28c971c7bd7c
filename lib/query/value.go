package query

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Value Kinds
// --------------------------------------------------------------------------

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull   Kind = iota // Absent value (nil or missing attribute)
	KindInt                // Any signed or unsigned integer, stored as int64
	KindFloat              // float32 or float64, stored as float64
	KindBool               // true or false
	KindString             // string
	KindBytes              // []byte
	KindOther              // Anything else, compared by deep equality
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is a tagged variant used for all comparisons inside predicates.
// Only the field matching kind is meaningful.
type Value struct {
	kind  Kind
	i     int64
	f     float64
	b     bool
	s     string
	raw   []byte
	other any
}

// ValueOf converts a plain Go value into a Value.
// Integers of every width become KindInt, unsigned values larger than
// math.MaxInt64 become KindFloat.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{kind: KindNull}
	case Value:
		return t
	case int:
		return Value{kind: KindInt, i: int64(t)}
	case int8:
		return Value{kind: KindInt, i: int64(t)}
	case int16:
		return Value{kind: KindInt, i: int64(t)}
	case int32:
		return Value{kind: KindInt, i: int64(t)}
	case int64:
		return Value{kind: KindInt, i: t}
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Value{kind: KindInt, i: int64(t)}
	case uint16:
		return Value{kind: KindInt, i: int64(t)}
	case uint32:
		return Value{kind: KindInt, i: int64(t)}
	case uint64:
		return fromUint(t)
	case float32:
		return Value{kind: KindFloat, f: float64(t)}
	case float64:
		return Value{kind: KindFloat, f: t}
	case bool:
		return Value{kind: KindBool, b: t}
	case string:
		return Value{kind: KindString, s: t}
	case []byte:
		if t == nil {
			return Value{kind: KindNull}
		}
		return Value{kind: KindBytes, raw: t}
	default:
		return Value{kind: KindOther, other: v}
	}
}

func fromUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Value{kind: KindFloat, f: float64(u)}
	}
	return Value{kind: KindInt, i: int64(u)}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsNumeric reports whether the value is an integer or a float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Interface returns the plain Go value held by v.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindBytes:
		return v.raw
	case KindOther:
		return v.other
	default:
		return nil
	}
}

// float returns the numeric value as float64. Only valid for numeric kinds.
func (v Value) float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Equal compares two values with numeric-aware equality:
// integers and floats compare by numeric value, booleans by truth value,
// strings and bytes by content, everything else by deep equality.
// Values of unrelated kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindInt && o.kind == KindInt {
			return v.i == o.i
		}
		return v.float() == o.float()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	default:
		return reflect.DeepEqual(v.other, o.other)
	}
}

// Compare orders v relative to o and returns -1, 0 or 1.
// Numbers are ordered across int and float, strings lexicographically and
// bytes bytewise. Every other combination fails with ErrUnsupportedComparison.
func (v Value) Compare(o Value) (int, error) {
	switch {
	case v.kind == KindInt && o.kind == KindInt:
		return cmpOrdered(v.i, o.i), nil
	case v.IsNumeric() && o.IsNumeric():
		a, b := v.float(), o.float()
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, &ComparisonError{Left: v, Right: o}
		}
		return cmpOrdered(a, b), nil
	case v.kind == KindString && o.kind == KindString:
		return strings.Compare(v.s, o.s), nil
	case v.kind == KindBytes && o.kind == KindBytes:
		return bytes.Compare(v.raw, o.raw), nil
	default:
		return 0, &ComparisonError{Left: v, Right: o}
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// String renders the value as a filter literal. Strings are single quoted,
// floats use the shortest representation that parses back to the same value.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return "'" + strings.ReplaceAll(v.s, "'", "''") + "'"
	case KindBytes:
		return fmt.Sprintf("'%x'", v.raw)
	default:
		return fmt.Sprintf("%v", v.other)
	}
}
