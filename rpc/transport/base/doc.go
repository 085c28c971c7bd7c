// Package base provides a foundation for transport layers of the data grid RPC system,
// implementing core functionality for RPC communication independent of the specific
// network protocol (TCP, Unix sockets, etc.). It serves as a base layer that can be
// extended with protocol-specific connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Performance optimization through connection pooling and buffer reuse
//   - Frame-based message protocol with requestID tracking
//   - Asynchronous response delivery and failure reporting per connection
//   - Robust error handling with retries and reconnection logic
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - clientTransport: Core client implementation that manages multiple connections
//     with round-robin load balancing. Each connection tracks the request ids written
//     to it; when the connection breaks, all of them are reported as failed to the
//     response handler and the connection is re-established in the background.
//
//   - serverTransport: Core server implementation that accepts connections and
//     passes every request to the registered handler, using a bounded number of
//     workers per connection. Responses may be written out of order.
//
// Frame Format:
//
//	8 bytes requestID (big endian) | 4 bytes payload length (big endian) | payload
//
// Performance Optimizations:
//
//   - Connection Pooling: Multiple connections per endpoint improve throughput
//     for high-load scenarios. For small messages (< 1KB), a single connection per
//     endpoint may actually perform better due to reduced overhead.
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse buffers, reducing
//     GC pressure and memory allocations.
//
//   - Frame Batching: The transport uses net.Buffers to reduce syscalls when
//     writing frames, combining header and payload into a single write operation.
//
// Timeouts:
//
//	Only writes carry a deadline. Waiting for a response is bounded by the client's
//	call registry, so idle connections stay open.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport uses atomic operations
//	and mutexes to ensure concurrent access safety, while the server creates a
//	dedicated goroutine for each connection.
package base
