package server

import (
	"bytes"
	"context"
	"math"
	"net"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/lib/store/lstore"
	"github.com/ValentinKolb/dGrid/rpc/client"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport/unix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Adapter
// --------------------------------------------------------------------------

func encode(t *testing.T, c codec.ICodec, v any) []byte {
	t.Helper()
	b, err := c.Encode(v)
	require.NoError(t, err)
	return b
}

func decode(t *testing.T, c codec.ICodec, b []byte) any {
	t.Helper()
	v, err := c.Decode(b)
	require.NoError(t, err)
	return v
}

// TestMapAdapter runs every map operation against a local store
func TestMapAdapter(t *testing.T) {
	c := codec.NewBinaryCodec()
	adapter := NewMapServerAdapter(c)
	st := lstore.NewLocalMapStore(c)

	req := func(op common.Operation, key, value any) *common.Packet {
		var k, v []byte
		if key != nil {
			k = encode(t, c, key)
		}
		if value != nil {
			v = encode(t, c, value)
		}
		return common.NewRequest("c:people", op, "caller", k, v)
	}

	alice := map[string]any{"age": 30, "active": true}
	bob := map[string]any{"age": 17, "active": true}

	resp := adapter.Handle(req(common.OpMapPut, "alice", alice), st)
	require.Empty(t, resp.Err)
	assert.Nil(t, resp.Value)
	assert.Equal(t, common.OpMapPut, resp.Operation)
	assert.Equal(t, "caller", resp.CallerID)

	resp = adapter.Handle(req(common.OpMapPutIfAbsent, "bob", bob), st)
	require.Empty(t, resp.Err)
	assert.Nil(t, resp.Value)

	resp = adapter.Handle(req(common.OpMapPutIfAbsent, "bob", alice), st)
	require.Empty(t, resp.Err)
	assert.Equal(t, int64(17), decode(t, c, resp.Value).(map[string]any)["age"])

	resp = adapter.Handle(req(common.OpMapGet, "alice", nil), st)
	require.Empty(t, resp.Err)
	assert.Equal(t, int64(30), decode(t, c, resp.Value).(map[string]any)["age"])

	resp = adapter.Handle(req(common.OpMapGet, "carol", nil), st)
	require.Empty(t, resp.Err)
	assert.Nil(t, resp.Value)

	resp = adapter.Handle(req(common.OpMapContainsKey, "alice", nil), st)
	assert.Equal(t, true, decode(t, c, resp.Value))

	resp = adapter.Handle(req(common.OpMapSize, nil, nil), st)
	assert.Equal(t, int64(2), decode(t, c, resp.Value))

	resp = adapter.Handle(req(common.OpMapIterateKeys, nil, query.MustParse("age >= 18")), st)
	require.Empty(t, resp.Err)
	assert.Equal(t, codec.Keys{Items: []any{"alice"}}, decode(t, c, resp.Value))

	resp = adapter.Handle(req(common.OpMapIterateKeys, nil, nil), st)
	require.Empty(t, resp.Err)
	assert.ElementsMatch(t, []any{"alice", "bob"}, decode(t, c, resp.Value).(codec.Keys).Items)

	resp = adapter.Handle(req(common.OpMapRemove, "alice", nil), st)
	require.Empty(t, resp.Err)
	assert.NotNil(t, resp.Value)

	resp = adapter.Handle(req(common.OpMapRemove, "alice", nil), st)
	require.Empty(t, resp.Err)
	assert.Nil(t, resp.Value)
}

// TestMapAdapterOperandKinds selects keys with operands that have no filter literal
func TestMapAdapterOperandKinds(t *testing.T) {
	for name, c := range map[string]codec.ICodec{"JSON": codec.NewJSONCodec(), "Binary": codec.NewBinaryCodec()} {
		t.Run(name, func(t *testing.T) {
			adapter := NewMapServerAdapter(c)
			st := lstore.NewLocalMapStore(c)

			blobs := map[string]any{
				"ab":   map[string]any{"blob": []byte("ab"), "score": math.Inf(1)},
				"cd":   map[string]any{"blob": []byte("cd"), "score": 1.5},
				"text": map[string]any{"blob": "6162", "score": math.Inf(-1)},
			}
			for k, v := range blobs {
				resp := adapter.Handle(common.NewRequest("c:blobs", common.OpMapPut, "", encode(t, c, k), encode(t, c, v)), st)
				require.Empty(t, resp.Err)
			}

			tests := []struct {
				predicate query.Predicate
				want      []any
			}{
				{query.Equal(query.Attribute("blob"), []byte("ab")), []any{"ab"}},
				{query.In(query.Attribute("blob"), []byte("cd"), "6162"), []any{"cd", "text"}},
				{query.Equal(query.Attribute("score"), math.Inf(1)), []any{"ab"}},
				{query.LessThan(query.Attribute("score"), 2), []any{"cd", "text"}},
				{query.And(), []any{"ab", "cd", "text"}},
				{query.Or(), []any{}},
			}
			for _, tt := range tests {
				req := common.NewRequest("c:blobs", common.OpMapIterateKeys, "", nil, encode(t, c, tt.predicate))
				resp := adapter.Handle(req, st)
				require.Empty(t, resp.Err, tt.predicate.String())
				assert.ElementsMatch(t, tt.want, decode(t, c, resp.Value).(codec.Keys).Items, tt.predicate.String())
			}
		})
	}
}

// TestMapAdapterErrors checks that failures become error responses
func TestMapAdapterErrors(t *testing.T) {
	c := codec.NewJSONCodec()
	adapter := NewMapServerAdapter(c)
	st := lstore.NewLocalMapStore(c)

	tests := []struct {
		name string
		req  *common.Packet
	}{
		{"missing key", common.NewRequest("c:m", common.OpMapGet, "", nil, nil)},
		{"missing value", common.NewRequest("c:m", common.OpMapPut, "", encode(t, c, "k"), nil)},
		{"not a predicate", common.NewRequest("c:m", common.OpMapIterateKeys, "", nil, encode(t, c, "age > 1"))},
		{"corrupted predicate", common.NewRequest("c:m", common.OpMapIterateKeys, "", nil, []byte("{"))},
		{"unsupported operation", common.NewRequest("c:m", common.OpUnknown, "", nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := adapter.Handle(tt.req, st)
			assert.NotEmpty(t, resp.Err)
			assert.Equal(t, tt.req.Operation, resp.Operation)
		})
	}

	resp := adapter.Handle(common.NewRequest("c:m", common.OpMapSize, "", nil, nil), nil)
	assert.Contains(t, resp.Err, "store is nil")
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// TestHandle checks routing, lazy map creation and destroy on the serialized level
func TestHandle(t *testing.T) {
	c := codec.NewBinaryCodec()
	s := serializer.NewBinarySerializer()
	srv := NewRPCServer(common.ServerConfig{}, unix.NewUnixDefaultServerTransport(), s, c)

	call := func(req *common.Packet) *common.Packet {
		data, err := s.Serialize(*req)
		require.NoError(t, err)
		resp := &common.Packet{}
		require.NoError(t, s.Deserialize(srv.Handle(data), resp))
		return resp
	}

	resp := call(common.NewRequest("c:a", common.OpMapPut, "", encode(t, c, "k"), encode(t, c, "v")))
	require.Empty(t, resp.Err)
	assert.Equal(t, 1, srv.maps.Size())

	resp = call(common.NewRequest("c:b", common.OpMapSize, "", nil, nil))
	assert.Equal(t, int64(0), decode(t, c, resp.Value))
	assert.Equal(t, 2, srv.maps.Size())

	resp = call(common.NewRequest("c:a", common.OpDestroy, "", nil, nil))
	require.Empty(t, resp.Err)
	assert.Equal(t, common.OpDestroy, resp.Operation)
	assert.Equal(t, 1, srv.maps.Size())

	// destroying an unknown map is fine
	resp = call(common.NewRequest("c:unknown", common.OpDestroy, "", nil, nil))
	require.Empty(t, resp.Err)

	// a destroyed map starts empty
	resp = call(common.NewRequest("c:a", common.OpMapSize, "", nil, nil))
	assert.Equal(t, int64(0), decode(t, c, resp.Value))

	resp = call(common.NewRequest("", common.OpMapSize, "", nil, nil))
	assert.Contains(t, resp.Err, "missing resource name")

	// garbage is answered with an error packet
	garbage := &common.Packet{}
	require.NoError(t, s.Deserialize(srv.Handle([]byte{0xff}), garbage))
	assert.Equal(t, common.OpError, garbage.Operation)
	assert.Contains(t, garbage.Err, "failed to deserialize request")

	var buf bytes.Buffer
	srv.WriteMetrics(&buf)
	assert.Contains(t, buf.String(), `dgrid_server_requests_total{op="map.put",status="ok"} 1`)
	assert.Contains(t, buf.String(), `dgrid_server_requests_total{op="map.size",status="error"} 1`)
	assert.Contains(t, buf.String(), `dgrid_server_maps 2`)
}

// TestClientServer runs the client against a server over a unix socket
func TestClientServer(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "dgrid.sock")
	c := codec.NewBinaryCodec()
	s := serializer.NewBinarySerializer()

	srv := NewRPCServer(common.ServerConfig{
		TimeoutSecond: 5,
		Transport:     common.ServerTransportConfig{Endpoint: socket},
	}, unix.NewUnixDefaultServerTransport(), s, c)

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()
	defer func() {
		require.NoError(t, srv.Close())
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cl, err := client.NewClient(common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{socket},
			ConnectionsPerEndpoint: 2,
			RetryCount:             2,
		},
	}, unix.NewUnixClientTransport(), s, c)
	require.NoError(t, err)
	defer cl.Close()

	ctx := context.Background()
	people := cl.GetMap("people")

	records := map[string]map[string]any{
		"alice": {"name": "alice", "age": 30, "active": true},
		"bob":   {"name": "bob", "age": 17, "active": true},
		"carol": {"name": "carol", "age": 45.5, "active": false},
	}
	for key, record := range records {
		previous, err := people.Put(ctx, key, record)
		require.NoError(t, err)
		assert.Nil(t, previous)
	}

	size, err := people.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	value, err := people.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", value.(map[string]any)["name"])

	existing, err := people.PutIfAbsent(ctx, "bob", map[string]any{"name": "other"})
	require.NoError(t, err)
	assert.Equal(t, "bob", existing.(map[string]any)["name"])

	keys, err := people.KeysWhere(ctx, "active AND age >= 18")
	require.NoError(t, err)
	assert.Equal(t, []any{"alice"}, keys)

	keys, err = people.Keys(ctx, query.Or(
		query.Equal(query.Attribute("name"), "bob"),
		query.Between(query.Attribute("age"), 40, 50),
	))
	require.NoError(t, err)
	sort.Slice(keys, func(i, j int) bool { return keys[i].(string) < keys[j].(string) })
	assert.Equal(t, []any{"bob", "carol"}, keys)

	keys, err = people.Keys(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	// ordering a boolean fails on the server
	_, err = people.KeysWhere(ctx, "active > 1")
	assert.ErrorIs(t, err, client.ErrRemoteOperationFailed)
	var remote *client.RemoteError
	assert.ErrorAs(t, err, &remote)

	removed, err := people.Remove(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, removed)

	found, err := people.ContainsKey(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, people.Destroy(ctx))
	size, err = cl.GetMap("people").Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}
