package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/rpc/common"
)

// mapPrefix is prepended to map names on the wire
const mapPrefix = "c:"

// IMap is a named distributed map. Keys and values are any values the codec supports.
// All operations block until the server answered, the context is done or the client timeout passed.
type IMap interface {
	// Name returns the name of the map
	Name() string
	// Get returns the value of key, nil if the key is absent
	Get(ctx context.Context, key any) (any, error)
	// Put stores value under key and returns the previous value (nil if there was none)
	Put(ctx context.Context, key, value any) (any, error)
	// PutIfAbsent stores value only if key is absent. It returns the existing value,
	// nil if value was stored.
	PutIfAbsent(ctx context.Context, key, value any) (any, error)
	// Remove deletes key and returns the removed value (nil if there was none)
	Remove(ctx context.Context, key any) (any, error)
	// ContainsKey reports whether key is present
	ContainsKey(ctx context.Context, key any) (bool, error)
	// Size returns the number of entries
	Size(ctx context.Context) (int, error)
	// Keys returns the keys of all entries matching predicate, all keys if predicate is nil
	Keys(ctx context.Context, predicate query.Predicate) ([]any, error)
	// KeysWhere parses filter and returns the keys of all matching entries
	KeysWhere(ctx context.Context, filter string) ([]any, error)
	// Destroy removes the map with all entries on the server and releases the local proxy
	Destroy(ctx context.Context) error
}

// rpcMap is the client side proxy of a map
type rpcMap struct {
	proxyHelper
}

// newRPCMap creates the proxy of the map name
func newRPCMap(name string, helper proxyHelper) *rpcMap {
	helper.name = mapPrefix + name
	return &rpcMap{proxyHelper: helper}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IMap)
// --------------------------------------------------------------------------

func (m *rpcMap) Name() string {
	return strings.TrimPrefix(m.name, mapPrefix)
}

func (m *rpcMap) Get(ctx context.Context, key any) (any, error) {
	return m.doOp(ctx, common.OpMapGet, key, nil)
}

func (m *rpcMap) Put(ctx context.Context, key, value any) (any, error) {
	return m.doOp(ctx, common.OpMapPut, key, value)
}

func (m *rpcMap) PutIfAbsent(ctx context.Context, key, value any) (any, error) {
	return m.doOp(ctx, common.OpMapPutIfAbsent, key, value)
}

func (m *rpcMap) Remove(ctx context.Context, key any) (any, error) {
	return m.doOp(ctx, common.OpMapRemove, key, nil)
}

func (m *rpcMap) ContainsKey(ctx context.Context, key any) (bool, error) {
	result, err := m.doOp(ctx, common.OpMapContainsKey, key, nil)
	if err != nil {
		return false, err
	}
	found, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s result type %T", common.OpMapContainsKey, result)
	}
	return found, nil
}

func (m *rpcMap) Size(ctx context.Context) (int, error) {
	result, err := m.doOp(ctx, common.OpMapSize, nil, nil)
	if err != nil {
		return 0, err
	}
	size, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected %s result type %T", common.OpMapSize, result)
	}
	return int(size), nil
}

func (m *rpcMap) Keys(ctx context.Context, predicate query.Predicate) ([]any, error) {
	return m.keys(ctx, predicate)
}

func (m *rpcMap) KeysWhere(ctx context.Context, filter string) ([]any, error) {
	predicate, err := query.Parse(filter)
	if err != nil {
		return nil, err
	}
	return m.keys(ctx, predicate)
}

func (m *rpcMap) Destroy(ctx context.Context) error {
	return m.destroy(ctx)
}
