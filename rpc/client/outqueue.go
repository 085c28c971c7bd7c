package client

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// queueNode is a single element of the outbound queue
type queueNode struct {
	call *Call
	next atomic.Pointer[queueNode]
}

// outQueue is an unbounded lock-free multi-producer single-consumer queue of calls.
// Any number of callers push concurrently, one consumer goroutine hands every call to
// the consume function in the order the pushes completed.
type outQueue struct {
	head     atomic.Pointer[queueNode]
	tail     atomic.Pointer[queueNode]
	consumer sync.WaitGroup
	closed   atomic.Bool

	// wakes the consumer when it is idle
	mu   sync.Mutex
	cond *sync.Cond
}

// newOutQueue creates the queue and starts its consumer goroutine
func newOutQueue(consume func(*Call)) *outQueue {
	// sentinel node
	sentinel := &queueNode{}

	q := &outQueue{}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.run(consume)

	return q
}

// Push appends a call. It returns false if the call is nil or the queue is closed.
func (q *outQueue) Push(call *Call) bool {
	if call == nil || q.closed.Load() {
		return false
	}

	n := &queueNode{call: call}
	var backoff uint8

	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				// another producer may already have moved the tail on
				q.tail.CompareAndSwap(tail, n)
				q.signal()
				return true
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tail, next)
		}

		// spin at low contention, yield at high contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// signal wakes the consumer. Holding the lock keeps the wakeup from slipping in between
// the consumer's emptiness check and its wait.
func (q *outQueue) signal() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// run hands queued calls to consume until the queue is closed and drained
func (q *outQueue) run(consume func(*Call)) {
	defer q.consumer.Done()

	for {
		drained := false
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			drained = true

			call := next.call
			q.head.Store(next)
			next.call = nil

			consume(call)
		}

		if !drained && q.closed.Load() {
			return
		}

		if !drained {
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Close stops accepting calls and waits until the consumer has handled every queued call.
func (q *outQueue) Close() {
	if q.closed.Swap(true) {
		return
	}
	q.signal()
	q.consumer.Wait()
}
