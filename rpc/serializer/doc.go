// Package serializer provides packet serialization for the RPC layer of the data grid.
// It defines a common interface and multiple implementations for turning a
// common.Packet into bytes and back.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Offering multiple implementations with different performance characteristics
//   - Keeping absent (nil) and empty key/value payloads apart
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format implementation optimized for speed
//     and space efficiency. Uses a flag-based approach to encode only present fields,
//     resulting in compact serialized data with minimal overhead.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding. Gob does not
//     transmit empty slices, so an empty key or value arrives as absent.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for debugging
//     or interoperability with other systems, but with lower performance.
//
// Performance Characteristics:
//
//   - Binary: Smallest payload size and fastest. Recommended for production use.
//
//   - JSON: Acceptable performance with moderate payload sizes. Human-readable.
//
//   - GOB: Larger payloads and slower than both alternatives; kept for completeness.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(*common.NewRequest("c:users", common.OpMapGet, callerID, key, nil))
//	// ... send data ...
//	var resp common.Packet
//	err = s.Deserialize(receivedData, &resp)
package serializer
