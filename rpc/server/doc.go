// Package server implements the RPC server of the data grid. It plays the cluster member
// for the clients: every request names a map and an operation, the server executes the
// operation on that map and answers with a single response.
//
// Key Components:
//
//   - RPCServer: Deserializes requests, routes them to the store of the addressed map and
//     serializes the response. Maps are created on first use and dropped on destroy.
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IMapStore.
//
//   - NewMapServerAdapter: Factory function creating the adapter for map operations.
//     Key enumeration decodes the predicate of the request and returns an encoded codec.Keys.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  TimeoutSecond:   5,
//	  LogLevel:        "info",
//	  MetricsEndpoint: "127.0.0.1:9090",
//	  Transport: common.ServerTransportConfig{
//	    Endpoint: "0.0.0.0:8080",
//	  },
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	  codec.NewBinaryCodec(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Server and clients must agree on the serializer and on the codec.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	Serve should be called only once.
package server
