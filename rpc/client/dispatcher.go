package client

import (
	"fmt"

	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
)

// ICompleter receives the outcome of a transmitted call by its id.
type ICompleter interface {
	Complete(id uint64, resp *common.Packet) bool
	Fail(id uint64, err error) bool
}

// outRunnable is the outbound dispatcher. A single writer goroutine serializes the queued
// calls and hands them to the transport, responses are delivered asynchronously through
// handleResponse.
type outRunnable struct {
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	completer  ICompleter
	queue      *outQueue
}

// newOutRunnable creates the dispatcher and starts its writer goroutine.
// bind must be called before the first call is enqueued.
func newOutRunnable(transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) *outRunnable {
	o := &outRunnable{
		transport:  transport,
		serializer: serializer,
	}
	o.queue = newOutQueue(o.write)
	return o
}

// bind sets the receiver of call outcomes
func (o *outRunnable) bind(completer ICompleter) {
	o.completer = completer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IDispatcher)
// --------------------------------------------------------------------------

func (o *outRunnable) Enqueue(call *Call) error {
	if !o.queue.Push(call) {
		return ErrClientClosed
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal Methods
// --------------------------------------------------------------------------

// write sends a single call, it runs on the writer goroutine only
func (o *outRunnable) write(call *Call) {
	// the caller gave up before the call was sent
	if call.IsDone() {
		return
	}

	data, err := o.serializer.Serialize(*call.Request)
	if err != nil {
		o.completer.Fail(call.ID, fmt.Errorf("serialize request: %w", err))
		return
	}

	if err := o.transport.Send(call.ID, data); err != nil {
		o.completer.Fail(call.ID, err)
	}
}

// handleResponse is the transport.ResponseHandler of the client
func (o *outRunnable) handleResponse(requestID uint64, data []byte, err error) {
	if err != nil {
		o.completer.Fail(requestID, err)
		return
	}

	resp := &common.Packet{}
	if err := o.serializer.Deserialize(data, resp); err != nil {
		o.completer.Fail(requestID, fmt.Errorf("deserialize response: %w", err))
		return
	}

	o.completer.Complete(requestID, resp)
}

// close stops accepting calls and waits until the queued calls were written
func (o *outRunnable) close() {
	o.queue.Close()
}
