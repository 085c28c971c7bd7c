package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// IDispatcher transmits calls asynchronously. The response (or a transport failure)
// is later delivered to the CallRegistry by id.
type IDispatcher interface {
	// Enqueue hands a call over for transmission. It must not block on the network.
	Enqueue(call *Call) error
}

// CallRegistry correlates outgoing requests with their responses.
// Every submitted call waits on its own completion channel, unrelated calls never block each other.
type CallRegistry struct {
	dispatcher IDispatcher
	timeout    time.Duration
	nextID     atomic.Uint64
	pending    *xsync.MapOf[uint64, *Call]
	metrics    *metrics.Set
}

// NewCallRegistry creates a registry that sends calls through dispatcher.
// A timeout of 0 lets calls wait until their context is done.
func NewCallRegistry(dispatcher IDispatcher, timeout time.Duration) *CallRegistry {
	r := &CallRegistry{
		dispatcher: dispatcher,
		timeout:    timeout,
		pending:    xsync.NewMapOf[uint64, *Call](),
		metrics:    metrics.NewSet(),
	}
	r.metrics.NewGauge("dgrid_client_pending_calls", func() float64 {
		return float64(r.pending.Size())
	})
	return r
}

// --------------------------------------------------------------------------
// Caller Side
// --------------------------------------------------------------------------

// Submit sends a request and blocks until its response arrives.
//
// The returned error is a *CallError whose kind is one of
//   - ErrRemoteOperationFailed: the server reported an error or the call could not be delivered
//   - ErrCallInterrupted: ctx was canceled
//   - ErrCallTimedOut: the registry timeout or the ctx deadline passed
//
// The call is removed from the pending table before Submit returns, so a late response is dropped.
func (r *CallRegistry) Submit(ctx context.Context, req *common.Packet) (*common.Packet, error) {
	call := newCall(r.nextID.Add(1), req)
	r.pending.Store(call.ID, call)
	defer r.pending.Delete(call.ID)

	if err := r.dispatcher.Enqueue(call); err != nil {
		call.Fail(newCallError(ErrRemoteOperationFailed, call, err))
	}

	var timeout <-chan time.Time
	if r.timeout > 0 {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-call.Done():
	case <-ctx.Done():
		kind := ErrCallInterrupted
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = ErrCallTimedOut
		}
		// a response that raced the cancellation wins
		call.Fail(newCallError(kind, call, ctx.Err()))
	case <-timeout:
		call.Fail(newCallError(ErrCallTimedOut, call, nil))
	}

	resp, err := call.Result()
	r.observe(call, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Delivery Side
// --------------------------------------------------------------------------

// Complete delivers the response of the call with the given id.
// Error responses and responses to a different operation fail the call instead.
// It returns false if no pending call with that id exists.
func (r *CallRegistry) Complete(id uint64, resp *common.Packet) bool {
	call, ok := r.pending.Load(id)
	if !ok {
		Logger.Debugf("dropping response for unknown call %d", id)
		return false
	}
	if err := checkResponse(call.Request, resp); err != nil {
		return call.Fail(newCallError(ErrRemoteOperationFailed, call, err))
	}
	if !call.Complete(resp) {
		Logger.Debugf("dropping late response for call %d", id)
		return false
	}
	return true
}

// Fail delivers a failure for the call with the given id.
// It returns false if no pending call with that id exists.
func (r *CallRegistry) Fail(id uint64, err error) bool {
	call, ok := r.pending.Load(id)
	if !ok {
		Logger.Debugf("dropping failure for unknown call %d: %v", id, err)
		return false
	}
	return call.Fail(newCallError(ErrRemoteOperationFailed, call, err))
}

// FailAll fails every pending call with the given cause and returns how many were failed.
func (r *CallRegistry) FailAll(err error) int {
	failed := 0
	r.pending.Range(func(id uint64, call *Call) bool {
		if call.Fail(newCallError(ErrRemoteOperationFailed, call, err)) {
			failed++
		}
		return true
	})
	return failed
}

// Pending returns the number of calls waiting for a response.
func (r *CallRegistry) Pending() int {
	return r.pending.Size()
}

// WriteMetrics writes the call metrics in Prometheus text format.
func (r *CallRegistry) WriteMetrics(w io.Writer) {
	r.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// observe records the outcome and latency of a finished call
func (r *CallRegistry) observe(call *Call, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCallTimedOut):
		outcome = "timeout"
	case errors.Is(err, ErrCallInterrupted):
		outcome = "interrupted"
	default:
		outcome = "failed"
	}

	op := call.Request.Operation.String()
	r.metrics.GetOrCreateCounter(fmt.Sprintf(`dgrid_client_calls_total{op=%q,outcome=%q}`, op, outcome)).Inc()
	r.metrics.GetOrCreateHistogram(fmt.Sprintf(`dgrid_client_call_duration_seconds{op=%q}`, op)).
		Update(time.Since(call.created).Seconds())
}
