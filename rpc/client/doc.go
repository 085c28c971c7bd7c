// Package client implements the client side access layer of the data grid.
// It turns map operations into single request/response exchanges with a server
// over an asynchronous transport and blocks the caller until the matching response arrived.
//
// Key Components:
//
//   - Client: Connects the transport and hands out cached map proxies (GetMap).
//     Destroyed maps are released from the cache.
//
//   - IMap: Typed map facade (Get, Put, PutIfAbsent, Remove, ContainsKey, Size,
//     Keys, KeysWhere, Destroy). Keys and values are encoded by the configured codec,
//     predicates travel in their canonical filter form.
//
//   - CallRegistry: Correlates requests and responses by call id. Every call waits on
//     its own completion channel and fails with a *CallError of kind
//     ErrRemoteOperationFailed, ErrCallInterrupted or ErrCallTimedOut.
//
//   - outRunnable: Outbound dispatcher. A lock-free queue feeds a single writer
//     goroutine that serializes and sends the requests, responses are delivered
//     back to the registry by the transport.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	c, _ := client.NewClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer(), codec.NewBinaryCodec())
//	defer c.Close()
//
//	users := c.GetMap("users")
//	users.Put(ctx, "alice", map[string]any{"age": 30, "active": true})
//	keys, _ := users.KeysWhere(ctx, "active AND age > 18")
//
// Thread Safety:
//
//	The client and all proxies can be used concurrently from multiple goroutines.
//	No ordering is guaranteed between calls issued concurrently.
package client
