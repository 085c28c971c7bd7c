package client

import (
	"context"
	"errors"
	"testing"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSubmitter records the last request and answers with a fixed response value
type recordingSubmitter struct {
	last  *common.Packet
	value []byte
	err   error
}

func (s *recordingSubmitter) Submit(_ context.Context, req *common.Packet) (*common.Packet, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return common.NewResponse(req, s.value), nil
}

// recordingResources records released resource names
type recordingResources struct {
	released []string
}

func (r *recordingResources) Release(name string) {
	r.released = append(r.released, name)
}

func newTestProxy(s ISubmitter, r IResourceRegistry) *proxyHelper {
	return &proxyHelper{
		name:      "c:people",
		codec:     codec.NewBinaryCodec(),
		submitter: s,
		resources: r,
		callerID:  "client-1",
	}
}

// TestPrepareRequest checks encoding and stamping of requests
func TestPrepareRequest(t *testing.T) {
	p := newTestProxy(&recordingSubmitter{}, nil)

	t.Run("nil key and value stay nil", func(t *testing.T) {
		req, err := p.prepareRequest(context.Background(), common.OpMapSize, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, req.Key)
		assert.Nil(t, req.Value)
		assert.Equal(t, "c:people", req.Name)
		assert.Equal(t, common.OpMapSize, req.Operation)
		assert.Equal(t, "client-1", req.CallerID)
	})

	t.Run("key and value are encoded", func(t *testing.T) {
		req, err := p.prepareRequest(context.Background(), common.OpMapPut, "alice", int64(30))
		require.NoError(t, err)

		key, err := p.codec.Decode(req.Key)
		require.NoError(t, err)
		value, err := p.codec.Decode(req.Value)
		require.NoError(t, err)
		assert.Equal(t, "alice", key)
		assert.Equal(t, int64(30), value)
	})

	t.Run("caller id from context", func(t *testing.T) {
		ctx := WithCallerID(context.Background(), "worker-7")
		req, err := p.prepareRequest(ctx, common.OpMapGet, "k", nil)
		require.NoError(t, err)
		assert.Equal(t, "worker-7", req.CallerID)
	})

	t.Run("unsupported value", func(t *testing.T) {
		_, err := p.prepareRequest(context.Background(), common.OpMapPut, "k", make(chan int))
		assert.ErrorIs(t, err, codec.ErrUnsupportedType)
	})
}

// TestDoOp checks decoding of response payloads
func TestDoOp(t *testing.T) {
	c := codec.NewBinaryCodec()
	encoded, err := c.Encode("bob")
	require.NoError(t, err)

	s := &recordingSubmitter{value: encoded}
	p := newTestProxy(s, nil)

	result, err := p.doOp(context.Background(), common.OpMapGet, "k", nil)
	require.NoError(t, err)
	assert.Equal(t, "bob", result)

	// absent payload
	s.value = nil
	result, err = p.doOp(context.Background(), common.OpMapGet, "k", nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	// corrupted payload
	s.value = []byte{0xff}
	_, err = p.doOp(context.Background(), common.OpMapGet, "k", nil)
	assert.Error(t, err)

	// submit failures are passed through unchanged
	cause := &CallError{Kind: ErrCallTimedOut}
	s.err = cause
	_, err = p.doOp(context.Background(), common.OpMapGet, "k", nil)
	assert.Same(t, cause, err)
}

// TestKeys checks predicate key enumeration
func TestKeys(t *testing.T) {
	c := codec.NewBinaryCodec()

	t.Run("nil predicate sends no value", func(t *testing.T) {
		s := &recordingSubmitter{}
		p := newTestProxy(s, nil)

		keys, err := p.keys(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, keys)
		assert.Equal(t, common.OpMapIterateKeys, s.last.Operation)
		assert.Nil(t, s.last.Key)
		assert.Nil(t, s.last.Value)
	})

	t.Run("predicate is sent", func(t *testing.T) {
		encoded, err := c.Encode(codec.Keys{Items: []any{"alice", int64(2)}})
		require.NoError(t, err)
		s := &recordingSubmitter{value: encoded}
		p := newTestProxy(s, nil)

		predicate := query.And(query.Equal(query.Attribute("active"), true), query.GreaterThan(query.Attribute("age"), 4))
		keys, err := p.keys(context.Background(), predicate)
		require.NoError(t, err)
		assert.Equal(t, []any{"alice", int64(2)}, keys)

		sent, err := c.Decode(s.last.Value)
		require.NoError(t, err)
		sentPredicate, ok := sent.(query.Predicate)
		require.True(t, ok)
		assert.Equal(t, "(active=true AND age>4)", sentPredicate.String())
	})

	t.Run("unexpected payload", func(t *testing.T) {
		encoded, err := c.Encode("not keys")
		require.NoError(t, err)
		p := newTestProxy(&recordingSubmitter{value: encoded}, nil)

		_, err = p.keys(context.Background(), nil)
		assert.Error(t, err)
	})
}

// TestDestroy checks that the resource is released only after a successful destroy
func TestDestroy(t *testing.T) {
	resources := &recordingResources{}
	s := &recordingSubmitter{err: errors.New("unreachable")}
	p := newTestProxy(s, resources)

	require.Error(t, p.destroy(context.Background()))
	assert.Empty(t, resources.released)

	s.err = nil
	require.NoError(t, p.destroy(context.Background()))
	assert.Equal(t, []string{"c:people"}, resources.released)
	assert.Equal(t, common.OpDestroy, s.last.Operation)
	assert.Nil(t, s.last.Key)
	assert.Nil(t, s.last.Value)
}
