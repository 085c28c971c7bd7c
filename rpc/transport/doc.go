// Package transport defines the interfaces and abstractions for RPC communication
// between data grid clients and members. It provides a common contract that all
// transport implementations must fulfill, enabling protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Asynchronous request sending with response correlation by request id
//   - Enabling multiple transport implementations (HTTP, TCP, Unix sockets)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending. Send does not wait for the
//     response; every response (or the failure to get one) is reported to the
//     ResponseHandler registered on Connect. The request id is chosen by the caller,
//     which lets the client's call registry use its own call ids on the wire.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and passes them to the registered handler.
//
//   - ServerHandleFunc / ResponseHandler: Callback types for both directions.
package transport
