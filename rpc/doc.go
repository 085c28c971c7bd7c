// Package rpc provides the communication layer of the data grid. Clients and
// servers exchange single request/response packets that are correlated by call id
// over an asynchronous transport.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Packet protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP). Client transports are fire-and-forget and deliver
//     responses to a handler by request id.
//
//   - serializer: Packet serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Packet objects and byte arrays.
//
//   - client: The client access layer with the call registry, the outbound dispatcher
//     and the map facade.
//
//   - server: RPC server components that execute map operations on in-memory stores.
package rpc
