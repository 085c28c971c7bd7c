package client

import (
	"sync"
	"time"

	"github.com/ValentinKolb/dGrid/rpc/common"
)

// Call tracks one outstanding remote operation until it completes.
// A call completes exactly once, either with a response or with an error.
// Only the delivery path writes the result, the owning caller reads it after Done is closed.
type Call struct {
	ID      uint64
	Request *common.Packet
	created time.Time

	once     sync.Once
	done     chan struct{}
	response *common.Packet
	err      error
}

// newCall creates a pending call for a request
func newCall(id uint64, req *common.Packet) *Call {
	return &Call{
		ID:      id,
		Request: req,
		created: time.Now(),
		done:    make(chan struct{}),
	}
}

// Complete stores the response and wakes the caller.
// It returns false if the call was already completed.
func (c *Call) Complete(resp *common.Packet) bool {
	completed := false
	c.once.Do(func() {
		c.response = resp
		close(c.done)
		completed = true
	})
	return completed
}

// Fail stores the error and wakes the caller.
// It returns false if the call was already completed.
func (c *Call) Fail(err error) bool {
	completed := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		completed = true
	})
	return completed
}

// Done is closed when the call has completed.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// IsDone reports whether the call has completed.
func (c *Call) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome of the call. It must only be read after Done is closed.
func (c *Call) Result() (*common.Packet, error) {
	return c.response, c.err
}
