package client

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dGrid/rpc/common"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

var (
	// ErrRemoteOperationFailed is the kind of a call whose remote side reported a failure
	// or that could not be delivered. The original cause is wrapped.
	ErrRemoteOperationFailed = errors.New("remote operation failed")
	// ErrCallInterrupted is the kind of a call whose context was canceled while waiting.
	ErrCallInterrupted = errors.New("call interrupted")
	// ErrCallTimedOut is the kind of a call that did not complete within the configured timeout
	// or before the context deadline.
	ErrCallTimedOut = errors.New("call timed out")
	// ErrClientClosed is the cause given to calls that were pending when the client closed.
	ErrClientClosed = errors.New("client closed")
)

// CallError describes the failure of a single remote call.
// It matches both its Kind and its Cause with errors.Is.
type CallError struct {
	Kind      error
	CallID    uint64
	Operation common.Operation
	Name      string
	Cause     error
}

func (e *CallError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: call %d (%s on %q)", e.Kind, e.CallID, e.Operation, e.Name)
	}
	return fmt.Sprintf("%s: call %d (%s on %q): %v", e.Kind, e.CallID, e.Operation, e.Name, e.Cause)
}

func (e *CallError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// newCallError creates a CallError for the given call
func newCallError(kind error, call *Call, cause error) *CallError {
	return &CallError{
		Kind:      kind,
		CallID:    call.ID,
		Operation: call.Request.Operation,
		Name:      call.Request.Name,
		Cause:     cause,
	}
}

// RemoteError is the failure message reported by the server for a request.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Message
}
