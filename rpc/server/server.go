package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dGrid/lib/codec"
	"github.com/ValentinKolb/dGrid/lib/store"
	"github.com/ValentinKolb/dGrid/lib/store/lstore"
	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/serializer"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc/server")

// NewRPCServer creates a new RPC server
// It takes a config, transport, serializer and codec as parameters.
// Maps are created on first use and live in memory until they are destroyed.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//		codec.NewBinaryCodec(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	codec codec.ICodec,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	s := &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		codec:      codec,
		adapter:    NewMapServerAdapter(codec),
		maps:       xsync.NewMapOf[string, store.IMapStore](),
		metrics:    metrics.NewSet(),
	}
	s.metrics.NewGauge("dgrid_server_maps", func() float64 {
		return float64(s.maps.Size())
	})
	return s
}

// RPCServer serves map operations over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	codec      codec.ICodec
	adapter    IRPCServerAdapter
	maps       *xsync.MapOf[string, store.IMapStore]
	metrics    *metrics.Set

	metricsMu     sync.Mutex
	metricsServer *http.Server
}

// Serve starts the RPC server
// This function initializes the loggers and the metrics endpoint and blocks
// in the transport layer until Close is called
func (s *RPCServer) Serve() error {
	// Init logger
	if s.config.LogLevel != "" {
		if err := common.InitLoggers(s.config.LogLevel); err != nil {
			return err
		}
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	s.startMetricsEndpoint()

	// Configure the transport layer
	s.transport.RegisterHandler(s.Handle)

	Logger.Infof("dGrid setup completed successfully")
	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint
func (s *RPCServer) Close() error {
	err := s.transport.Close()

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	if s.metricsServer != nil {
		err = errors.Join(err, s.metricsServer.Close())
		s.metricsServer = nil
	}
	return err
}

// Handle processes one serialized request and returns the serialized response.
// It is the handler registered at the transport.
func (s *RPCServer) Handle(req []byte) []byte {
	start := time.Now()
	var msg common.Packet
	var respMsg *common.Packet

	// Decode the request
	if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorPacket(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = s.handlePacket(&msg)
	}

	s.observe(msg.Operation, respMsg, start)

	// Return result
	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response to %s: %v", msg.Operation, err)
		val, _ = s.serializer.Serialize(*common.NewErrorPacket(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// handlePacket routes a request to the store of the addressed map
func (s *RPCServer) handlePacket(req *common.Packet) *common.Packet {
	if req.Name == "" {
		return common.NewErrorResponse(req, errors.New("missing resource name"))
	}

	Logger.Debugf("request %s from %q", req, req.CallerID)

	// Destroy drops the map with all of its entries
	if req.Operation == common.OpDestroy {
		if st, ok := s.maps.LoadAndDelete(req.Name); ok {
			if err := st.Clear(); err != nil {
				return common.NewErrorResponse(req, err)
			}
			Logger.Infof("destroyed map %s", req.Name)
		}
		return common.NewResponse(req, nil)
	}

	// Let the adapter handle the request
	return s.adapter.Handle(req, s.mapStore(req.Name))
}

// mapStore returns the store of the map name, creating it on first use
func (s *RPCServer) mapStore(name string) store.IMapStore {
	st, loaded := s.maps.LoadOrCompute(name, func() store.IMapStore {
		return lstore.NewLocalMapStore(s.codec)
	})
	if !loaded {
		Logger.Infof("created map %s", name)
	}
	return st
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// observe records the outcome and latency of a handled request
func (s *RPCServer) observe(op common.Operation, resp *common.Packet, start time.Time) {
	status := "ok"
	if resp.Err != "" || resp.Operation == common.OpError {
		status = "error"
	}
	s.metrics.GetOrCreateCounter(fmt.Sprintf(`dgrid_server_requests_total{op=%q,status=%q}`, op, status)).Inc()
	s.metrics.GetOrCreateHistogram(fmt.Sprintf(`dgrid_server_request_duration_seconds{op=%q}`, op)).
		Update(time.Since(start).Seconds())
}

// WriteMetrics writes the server metrics in Prometheus text format
func (s *RPCServer) WriteMetrics(w io.Writer) {
	s.metrics.WritePrometheus(w)
}

// startMetricsEndpoint serves the metrics over http if an endpoint is configured
func (s *RPCServer) startMetricsEndpoint() {
	if s.config.MetricsEndpoint == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		s.WriteMetrics(w)
		metrics.WritePrometheus(w, true)
	})

	srv := &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}
	s.metricsMu.Lock()
	s.metricsServer = srv
	s.metricsMu.Unlock()

	go func() {
		Logger.Infof("serving metrics on http://%s/metrics", s.config.MetricsEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}
