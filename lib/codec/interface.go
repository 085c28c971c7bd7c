package codec

import (
	"errors"
	"fmt"
)

// ICodec converts the domain objects handled by a map (keys, values, predicates,
// key sets) to bytes and back. Implementations must be safe for concurrent use.
type ICodec interface {
	// Encode converts a value into its byte form.
	// Values of types the codec does not know fail with ErrUnsupportedType.
	Encode(v any) ([]byte, error)
	// Decode converts the byte form back into a value.
	// Empty input decodes to nil.
	Decode(b []byte) (any, error)
}

// ErrUnsupportedType is returned when a value cannot be encoded.
var ErrUnsupportedType = errors.New("unsupported type")

// unsupported wraps ErrUnsupportedType with the offending type
func unsupported(v any) error {
	return fmt.Errorf("codec: %T: %w", v, ErrUnsupportedType)
}

// Keys is the result container of a key enumeration.
type Keys struct {
	Items []any
}

// Keys returns the enumerated keys.
func (k Keys) Keys() []any {
	return k.Items
}

// Len returns the number of keys.
func (k Keys) Len() int {
	return len(k.Items)
}
