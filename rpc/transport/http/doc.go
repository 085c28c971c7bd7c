// Package http implements an HTTP-based transport layer for the data grid RPC system.
// Every request is an independent POST to <endpoint>/rpc carrying the serialized
// packet; the response body is the serialized reply.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport. Send starts the POST in its
//     own goroutine and delivers the response to the response handler, so callers get
//     the same asynchronous behavior as with the socket transports. Endpoints without
//     a scheme are treated as http://host:port.
//
//   - httpServerTransport: Implements IRPCServerTransport with a net/http server and an
//     optional logging middleware (enabled with the debug log level).
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently. It uses
//	atomic operations for the round-robin counter. Close waits for running requests.
package http
