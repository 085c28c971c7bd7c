package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackTransport answers requests in process. A nil serve function never answers.
type loopbackTransport struct {
	handler transport.ResponseHandler
	serve   func(req []byte) []byte
	sent    atomic.Int32
	closed  atomic.Bool
}

func (t *loopbackTransport) Connect(_ common.ClientConfig, handler transport.ResponseHandler) error {
	t.handler = handler
	return nil
}

func (t *loopbackTransport) Send(requestID uint64, req []byte) error {
	if t.closed.Load() {
		return errors.New("closed")
	}
	t.sent.Add(1)
	if t.serve != nil {
		go t.handler(requestID, t.serve(req), nil)
	}
	return nil
}

func (t *loopbackTransport) Close() error {
	t.closed.Store(true)
	return nil
}

// fixedServer answers every operation with a canned result
func fixedServer(t *testing.T, s serializer.IRPCSerializer, c codec.ICodec) func([]byte) []byte {
	return func(data []byte) []byte {
		req := common.Packet{}
		if err := s.Deserialize(data, &req); err != nil {
			t.Errorf("Failed to deserialize request: %v", err)
			return nil
		}

		var result any
		switch req.Operation {
		case common.OpMapGet:
			key, _ := c.Decode(req.Key)
			result = "value-of-" + key.(string)
		case common.OpMapContainsKey:
			result = true
		case common.OpMapSize:
			result = 3
		case common.OpMapIterateKeys:
			result = codec.Keys{Items: []any{"a", "b"}}
		}

		var value []byte
		if result != nil {
			value, _ = c.Encode(result)
		}
		resp, err := s.Serialize(*common.NewResponse(&req, value))
		if err != nil {
			t.Errorf("Failed to serialize response: %v", err)
		}
		return resp
	}
}

func newTestClient(t *testing.T, serve bool) (*Client, *loopbackTransport) {
	t.Helper()
	s := serializer.NewBinarySerializer()
	c := codec.NewJSONCodec()
	tr := &loopbackTransport{}
	if serve {
		tr.serve = fixedServer(t, s, c)
	}

	config := common.ClientConfig{TimeoutSecond: 5}
	cl, err := NewClient(config, tr, s, c)
	require.NoError(t, err)
	return cl, tr
}

// TestClientMapOperations runs the map facade against the loopback server
func TestClientMapOperations(t *testing.T) {
	cl, _ := newTestClient(t, true)
	defer cl.Close()
	ctx := context.Background()

	m := cl.GetMap("people")
	assert.Equal(t, "people", m.Name())

	value, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "value-of-alice", value)

	previous, err := m.Put(ctx, "alice", map[string]any{"age": 30})
	require.NoError(t, err)
	assert.Nil(t, previous)

	found, err := m.ContainsKey(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found)

	size, err := m.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	keys, err := m.KeysWhere(ctx, "age > 18")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, keys)

	assert.Equal(t, 0, cl.Pending())
}

// TestKeysWhereMalformed checks that a malformed filter fails before anything is sent
func TestKeysWhereMalformed(t *testing.T) {
	cl, tr := newTestClient(t, true)
	defer cl.Close()

	_, err := cl.GetMap("people").KeysWhere(context.Background(), "age > 18 AND")
	assert.ErrorIs(t, err, query.ErrMalformedFilter)
	assert.Equal(t, int32(0), tr.sent.Load())
}

// TestProxyCache checks that proxies are cached until the map is destroyed
func TestProxyCache(t *testing.T) {
	cl, _ := newTestClient(t, true)
	defer cl.Close()

	first := cl.GetMap("people")
	assert.Same(t, first, cl.GetMap("people"))
	assert.NotSame(t, first, cl.GetMap("other"))

	require.NoError(t, first.Destroy(context.Background()))
	assert.NotSame(t, first, cl.GetMap("people"))

	second := cl.GetMap("people")
	cl.Release("people")
	assert.NotSame(t, second, cl.GetMap("people"))
}

// TestClientCloseFailsPending checks that pending calls fail when the client closes
func TestClientCloseFailsPending(t *testing.T) {
	cl, _ := newTestClient(t, false)
	m := cl.GetMap("people")

	done := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background(), "alice")
		done <- err
	}()

	require.Eventually(t, func() bool { return cl.Pending() == 1 }, 5*time.Second, time.Millisecond)
	require.NoError(t, cl.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClientClosed)
		assert.ErrorIs(t, err, ErrRemoteOperationFailed)
	case <-time.After(5 * time.Second):
		t.Fatal("pending call was not failed")
	}

	// closed clients reject new calls
	_, err := m.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrClientClosed)

	// closing twice is fine
	assert.NoError(t, cl.Close())
}

// TestCallerIDOnWire checks the caller id stamped on requests
func TestCallerIDOnWire(t *testing.T) {
	s := serializer.NewBinarySerializer()
	c := codec.NewBinaryCodec()
	callers := make(chan string, 2)

	tr := &loopbackTransport{}
	serve := fixedServer(t, s, c)
	tr.serve = func(data []byte) []byte {
		req := common.Packet{}
		_ = s.Deserialize(data, &req)
		callers <- req.CallerID
		return serve(data)
	}

	cl, err := NewClient(common.ClientConfig{}, tr, s, c)
	require.NoError(t, err)
	defer cl.Close()

	m := cl.GetMap("people")
	_, err = m.Size(context.Background())
	require.NoError(t, err)
	_, err = m.Size(WithCallerID(context.Background(), "job-42"))
	require.NoError(t, err)

	assert.Equal(t, cl.ID(), <-callers)
	assert.Equal(t, "job-42", <-callers)
}

// TestOutQueue checks that every pushed call is consumed exactly once
func TestOutQueue(t *testing.T) {
	var mu sync.Mutex
	seen := map[uint64]int{}
	q := newOutQueue(func(call *Call) {
		mu.Lock()
		seen[call.ID]++
		mu.Unlock()
	})

	const producers, perProducer = 8, 200
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.True(t, q.Push(newCall(uint64(p*perProducer+i), nil)))
			}
		}(p)
	}
	wg.Wait()
	q.Close()

	assert.False(t, q.Push(newCall(1, nil)))
	assert.False(t, q.Push(nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, producers*perProducer)
	for id, n := range seen {
		assert.Equal(t, 1, n, "call %d", id)
	}
}
