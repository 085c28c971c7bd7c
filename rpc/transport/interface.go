package transport

import (
	"github.com/ValentinKolb/dGrid/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests
// This function is called by a server transport layer when a request is received
// It takes a serialized request and returns the serialized response
type ServerHandleFunc func(req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler should be called when a request is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and listens for incoming requests
	// It blocks until the transport is closed (returning nil) or fails
	Listen(config common.ServerConfig) error
	// Close stops listening and closes all open connections
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// ResponseHandler is called by a client transport at most once for every request
// Send accepted: either with the response or with the error that prevented one.
// Requests lost while the transport is closing may not be reported.
// It is called from transport goroutines and must not block.
type ResponseHandler func(requestID uint64, resp []byte, err error)

// IRPCClientTransport is the interface for the RPC client transport.
// Sending is fire-and-forget; responses are delivered to the ResponseHandler
// and correlated by the request id chosen by the caller.
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration and response handler
	Connect(config common.ClientConfig, handler ResponseHandler) error
	// Send sends a request to the server. A nil error only means that the request
	// was handed to the network, the outcome is reported to the ResponseHandler.
	Send(requestID uint64, req []byte) error
	// Close closes the transport connection
	Close() error
}
