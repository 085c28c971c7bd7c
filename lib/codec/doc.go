// Package codec converts the objects a distributed map works with into bytes and back.
// It is the collaborator the client proxy and the member use for keys, values,
// predicates and key sets; the RPC serializers only move the resulting byte slices.
//
// Key Components:
//
//   - ICodec: Encode / Decode interface implemented by all codecs.
//
//   - jsonCodecImpl: Tagged JSON envelopes ({"t":"int","v":5}). Human readable and
//     handy when debugging the wire traffic with the http transport.
//
//   - binaryCodecImpl: One tag byte followed by a big endian payload. Compact and
//     deterministic (map entries are written in key order).
//
//   - Keys: Result container of a key enumeration.
//
// Supported values are nil, bool, all integer types (decoded as int64), float32 and
// float64 (decoded as float64), string, []byte, []any, map[string]any, Keys and
// query.Predicate. Predicates travel as their canonical filter string and are parsed
// again on decode, so only predicates built from attributes can be transmitted.
// Everything else fails with ErrUnsupportedType.
//
// Usage:
//
//	c := codec.NewBinaryCodec()
//	b, err := c.Encode(map[string]any{"name": "joe", "age": 42})
//	v, err := c.Decode(b) // map[string]any{"name": "joe", "age": int64(42)}
package codec
