package client

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/query"
	"github.com/ValentinKolb/dGrid/rpc/common"
)

// ISubmitter sends a request and waits for its response (implemented by CallRegistry).
type ISubmitter interface {
	Submit(ctx context.Context, req *common.Packet) (*common.Packet, error)
}

// IResourceRegistry keeps the local bookkeeping of named resources.
type IResourceRegistry interface {
	// Release drops the local state of a destroyed resource.
	Release(name string)
}

// proxyHelper implements the operations shared by all remote resources
type proxyHelper struct {
	name      string // name on the wire
	codec     codec.ICodec
	submitter ISubmitter
	resources IResourceRegistry
	callerID  string // used when the context carries none
}

// prepareRequest builds the request for an operation on this resource.
// Key and value are encoded only if present, a nil key or value stays nil on the wire.
func (p *proxyHelper) prepareRequest(ctx context.Context, op common.Operation, key, value any) (*common.Packet, error) {
	keyBytes, err := p.encode(key)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	valueBytes, err := p.encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return common.NewRequest(p.name, op, callerID(ctx, p.callerID), keyBytes, valueBytes), nil
}

// doOp executes an operation and returns the decoded response value (nil if the response has none)
func (p *proxyHelper) doOp(ctx context.Context, op common.Operation, key, value any) (any, error) {
	req, err := p.prepareRequest(ctx, op, key, value)
	if err != nil {
		return nil, err
	}

	resp, err := p.submitter.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Value == nil {
		return nil, nil
	}
	result, err := p.codec.Decode(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	return result, nil
}

// destroy removes the resource on the server and releases the local proxy
func (p *proxyHelper) destroy(ctx context.Context) error {
	if _, err := p.doOp(ctx, common.OpDestroy, nil, nil); err != nil {
		return err
	}
	if p.resources != nil {
		p.resources.Release(p.name)
	}
	return nil
}

// keys returns the keys matching predicate, a nil predicate enumerates every key.
// A response without payload yields nil.
func (p *proxyHelper) keys(ctx context.Context, predicate query.Predicate) ([]any, error) {
	var value any
	if predicate != nil {
		value = predicate
	}

	result, err := p.doOp(ctx, common.OpMapIterateKeys, nil, value)
	if err != nil || result == nil {
		return nil, err
	}

	switch k := result.(type) {
	case codec.Keys:
		return k.Keys(), nil
	case *codec.Keys:
		return k.Keys(), nil
	default:
		return nil, fmt.Errorf("unexpected key set type %T", result)
	}
}

// encode encodes v through the codec, nil stays nil
func (p *proxyHelper) encode(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return p.codec.Encode(v)
}
