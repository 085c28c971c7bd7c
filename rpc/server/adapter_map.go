package server

import (
	"fmt"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/lib/store"
	"github.com/ValentinKolb/dGrid/rpc/common"
)

// NewMapServerAdapter creates the adapter that executes map operations on a store.
// The codec must be the one the clients use, it decodes predicates and encodes results.
func NewMapServerAdapter(c codec.ICodec) IRPCServerAdapter {
	return &mapServerAdapterImpl{codec: c}
}

type mapServerAdapterImpl struct {
	codec codec.ICodec
}

func (adapter *mapServerAdapterImpl) Handle(req *common.Packet, store store.IMapStore) *common.Packet {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse(req, fmt.Errorf("handler: store is nil"))
	}

	// Handle different operations
	switch req.Operation {
	case common.OpMapGet:
		val, _, err := store.Get(req.Key)
		return respond(req, val, err)
	case common.OpMapPut:
		prev, _, err := store.Put(req.Key, req.Value)
		return respond(req, prev, err)
	case common.OpMapPutIfAbsent:
		existing, _, err := store.PutIfAbsent(req.Key, req.Value)
		return respond(req, existing, err)
	case common.OpMapRemove:
		prev, _, err := store.Remove(req.Key)
		return respond(req, prev, err)
	case common.OpMapContainsKey:
		ok, err := store.ContainsKey(req.Key)
		if err != nil {
			return common.NewErrorResponse(req, err)
		}
		return adapter.respondEncoded(req, ok)
	case common.OpMapSize:
		size, err := store.Size()
		if err != nil {
			return common.NewErrorResponse(req, err)
		}
		return adapter.respondEncoded(req, int64(size))
	case common.OpMapIterateKeys:
		predicate, err := adapter.decodePredicate(req.Value)
		if err != nil {
			return common.NewErrorResponse(req, err)
		}
		keys, err := store.Keys(predicate)
		if err != nil {
			return common.NewErrorResponse(req, err)
		}
		return adapter.respondEncoded(req, codec.Keys{Items: keys})
	default:
		return common.NewErrorResponse(req,
			fmt.Errorf("RPC MapAdapter - Unsupported operation: %s", req.Operation),
		)
	}
}

// respond creates the response carrying the raw stored value (nil if absent)
func respond(req *common.Packet, value []byte, err error) *common.Packet {
	if err != nil {
		return common.NewErrorResponse(req, err)
	}
	return common.NewResponse(req, value)
}

// respondEncoded creates the response carrying the encoded result
func (adapter *mapServerAdapterImpl) respondEncoded(req *common.Packet, result any) *common.Packet {
	value, err := adapter.codec.Encode(result)
	if err != nil {
		return common.NewErrorResponse(req, fmt.Errorf("encode result: %w", err))
	}
	return common.NewResponse(req, value)
}

// decodePredicate decodes the predicate of an iterate keys request, nil selects every key
func (adapter *mapServerAdapterImpl) decodePredicate(value []byte) (query.Predicate, error) {
	if value == nil {
		return nil, nil
	}
	decoded, err := adapter.codec.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("decode predicate: %w", err)
	}
	if decoded == nil {
		return nil, nil
	}
	predicate, ok := decoded.(query.Predicate)
	if !ok {
		return nil, fmt.Errorf("expected predicate, got %T", decoded)
	}
	return predicate, nil
}
