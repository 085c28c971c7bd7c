package client

import (
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Client is the entry point to the data grid. It owns the connection to the servers
// and hands out proxies of named resources. A Client is safe for concurrent use.
type Client struct {
	id         string
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	codec      codec.ICodec
	registry   *CallRegistry
	dispatcher *outRunnable
	maps       *xsync.MapOf[string, *rpcMap]
	closed     atomic.Bool
}

// NewClient connects the transport and creates a client.
// The codec encodes keys, values and predicates, the serializer encodes the packets on the wire.
func NewClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	codec codec.ICodec,
) (*Client, error) {

	dispatcher := newOutRunnable(transport, serializer)
	registry := NewCallRegistry(dispatcher, time.Duration(config.TimeoutSecond)*time.Second)
	dispatcher.bind(registry)

	// Connect the transport
	if err := transport.Connect(config, dispatcher.handleResponse); err != nil {
		dispatcher.close()
		return nil, err
	}

	c := &Client{
		id:         uuid.NewString(),
		config:     config,
		transport:  transport,
		codec:      codec,
		registry:   registry,
		dispatcher: dispatcher,
		maps:       xsync.NewMapOf[string, *rpcMap](),
	}

	Logger.Infof("client %s connected to %v", c.id, config.Transport.Endpoints)
	return c, nil
}

// ID returns the instance id of the client. It is the caller id of requests
// whose context carries none.
func (c *Client) ID() string {
	return c.id
}

// GetMap returns the proxy of the map name. Proxies are cached, the same
// instance is returned until the map is destroyed or released.
func (c *Client) GetMap(name string) IMap {
	m, _ := c.maps.LoadOrCompute(name, func() *rpcMap {
		return newRPCMap(name, proxyHelper{
			codec:     c.codec,
			submitter: c.registry,
			resources: c,
			callerID:  c.id,
		})
	})
	return m
}

// Release drops the cached proxy of a resource (implements IResourceRegistry).
// It accepts both the plain and the wire name.
func (c *Client) Release(name string) {
	if _, ok := c.maps.LoadAndDelete(strings.TrimPrefix(name, mapPrefix)); ok {
		Logger.Debugf("released proxy %s", name)
	}
}

// Pending returns the number of calls waiting for a response.
func (c *Client) Pending() int {
	return c.registry.Pending()
}

// WriteMetrics writes the call metrics of this client in Prometheus text format.
func (c *Client) WriteMetrics(w io.Writer) {
	c.registry.WriteMetrics(w)
}

// Close stops the client. Calls still waiting fail with ErrClientClosed.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.dispatcher.close()
	if n := c.registry.FailAll(ErrClientClosed); n > 0 {
		Logger.Warningf("client %s closed with %d pending calls", c.id, n)
	}
	c.maps.Clear()
	return c.transport.Close()
}
