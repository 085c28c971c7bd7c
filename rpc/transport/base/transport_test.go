package base

import (
	"bytes"
	"errors"
	"net"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dGrid/rpc/common"
)

// --------------------------------------------------------------------------
// Test Connectors (loopback TCP without any socket options)
// --------------------------------------------------------------------------

type testServerConnector struct {
	listener net.Listener
}

func (c *testServerConnector) Listen(common.ServerConfig) (net.Listener, error) {
	return c.listener, nil
}
func (c *testServerConnector) GetName() string                                   { return "test" }
func (c *testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error { return nil }

type testClientConnector struct{}

func (c *testClientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}
func (c *testClientConnector) GetName() string                                   { return "test" }
func (c *testClientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

// result is what the response handler received for one request
type result struct {
	data []byte
	err  error
}

// collector records handler invocations
type collector struct {
	mu      sync.Mutex
	results map[uint64]result
	calls   chan uint64
}

func newCollector() *collector {
	return &collector{results: map[uint64]result{}, calls: make(chan uint64, 1024)}
}

func (c *collector) handle(requestID uint64, resp []byte, err error) {
	c.mu.Lock()
	c.results[requestID] = result{data: resp, err: err}
	c.mu.Unlock()
	c.calls <- requestID
}

func (c *collector) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out waiting for response %d/%d", i+1, n)
		}
	}
}

// startServer starts a base server transport on a random loopback port
func startServer(t *testing.T, handler func([]byte) []byte) (string, func()) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	server := NewBaseServerTransport(&testServerConnector{listener: listener}, 1024, 4)
	server.RegisterHandler(handler)

	done := make(chan error, 1)
	go func() {
		done <- server.Listen(common.ServerConfig{TimeoutSecond: 5})
	}()

	return listener.Addr().String(), func() {
		if err := server.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			t.Errorf("Failed to close server: %v", err)
		}
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Listen returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("Listen did not return after Close")
		}
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestFrameRoundTrip tests writing and reading frames over a pipe
func TestFrameRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte("hello"),
		{},
		bytes.Repeat([]byte{7}, 4096),
	}

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		for i, p := range payloads {
			if err := writeFrame(client, uint64(i+1)<<40, p); err != nil {
				t.Errorf("Failed to write frame: %v", err)
				return
			}
		}
	}()

	buf := make([]byte, 16)
	for i, want := range payloads {
		id, data, err := readFrame(server, buf)
		if err != nil {
			t.Fatalf("Failed to read frame %d: %v", i, err)
		}
		if id != uint64(i+1)<<40 {
			t.Errorf("Request id mismatch: expected %d, got %d", uint64(i+1)<<40, id)
		}
		if !bytes.Equal(want, data) {
			t.Errorf("Payload %d mismatch: expected %d bytes, got %d bytes", i, len(want), len(data))
		}
	}
}

// TestClientServerCorrelation sends concurrent requests and checks every response reaches its id
func TestClientServerCorrelation(t *testing.T) {
	// The server echoes the payload, slower for even payload lengths to force reordering
	addr, stop := startServer(t, func(req []byte) []byte {
		if len(req)%2 == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		return append([]byte("echo:"), req...)
	})
	defer stop()

	results := newCollector()
	client := NewBaseClientTransport(&testClientConnector{})
	config := common.ClientConfig{
		TimeoutSecond: 5,
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{addr},
			ConnectionsPerEndpoint: 2,
			RetryCount:             1,
		},
	}
	if err := client.Connect(config, results.handle); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	const n = 50
	payload := func(i int) []byte { return bytes.Repeat([]byte{'x'}, i) }

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := client.Send(uint64(i), payload(i)); err != nil {
				t.Errorf("Failed to send request %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	results.wait(t, n)

	results.mu.Lock()
	defer results.mu.Unlock()
	for i := 1; i <= n; i++ {
		r, ok := results.results[uint64(i)]
		if !ok {
			t.Errorf("No response for request %d", i)
			continue
		}
		if r.err != nil {
			t.Errorf("Request %d failed: %v", i, r.err)
			continue
		}
		want := append([]byte("echo:"), payload(i)...)
		if !bytes.Equal(want, r.data) {
			t.Errorf("Response %d mismatch: expected %q, got %q", i, want, r.data)
		}
	}
}

// TestClientFailsPendingOnConnectionLoss checks that requests without response are reported as failed
func TestClientFailsPendingOnConnectionLoss(t *testing.T) {
	block := make(chan struct{})
	addr, stop := startServer(t, func(req []byte) []byte {
		<-block
		return req
	})

	results := newCollector()
	client := NewBaseClientTransport(&testClientConnector{})
	config := common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{addr}},
	}
	if err := client.Connect(config, results.handle); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.Send(42, []byte("never answered")); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	// Give the request time to reach the server, then kill the server
	time.Sleep(50 * time.Millisecond)
	close(block)
	stop()

	results.wait(t, 1)
	results.mu.Lock()
	defer results.mu.Unlock()
	if r := results.results[42]; r.err == nil && r.data == nil {
		t.Errorf("Expected a response or an error for request 42")
	}
}

// TestClientCloseReportsPending checks that closing the client fails pending requests
func TestClientCloseReportsPending(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	addr, stop := startServer(t, func(req []byte) []byte {
		<-block
		return req
	})
	defer stop()

	results := newCollector()
	client := NewBaseClientTransport(&testClientConnector{})
	config := common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{addr}},
	}
	if err := client.Connect(config, results.handle); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	if err := client.Send(7, []byte("pending")); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	results.wait(t, 1)
	results.mu.Lock()
	r := results.results[7]
	results.mu.Unlock()
	if !errors.Is(r.err, ErrTransportClosed) {
		t.Errorf("Expected ErrTransportClosed, got %v", r.err)
	}

	if err := client.Send(8, []byte("after close")); !errors.Is(err, ErrTransportClosed) {
		t.Errorf("Expected ErrTransportClosed after close, got %v", err)
	}
}

// TestConnectWithoutEndpoints checks the configuration validation
func TestConnectWithoutEndpoints(t *testing.T) {
	client := NewBaseClientTransport(&testClientConnector{})
	if err := client.Connect(common.ClientConfig{}, func(uint64, []byte, error) {}); err == nil {
		t.Errorf("Expected error for missing endpoints")
	}
}

// readerGoroutines counts the response readers and reconnect loops still running
func readerGoroutines() int {
	buf := make([]byte, 1<<20)
	stacks := string(buf[:runtime.Stack(buf, true)])
	return strings.Count(stacks, ").readResponses(") + strings.Count(stacks, ").reconnectWithBackoff(")
}

// TestClientCloseStopsReaders checks that no reader outlives Close, even if Close
// runs before the readers were scheduled
func TestClientCloseStopsReaders(t *testing.T) {
	addr, stop := startServer(t, func(req []byte) []byte { return req })
	defer stop()

	config := common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{addr}, ConnectionsPerEndpoint: 2},
	}
	for i := 0; i < 50; i++ {
		client := NewBaseClientTransport(&testClientConnector{})
		if err := client.Connect(config, func(uint64, []byte, error) {}); err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		if err := client.Close(); err != nil {
			t.Fatalf("Failed to close: %v", err)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for readerGoroutines() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d reader goroutines still running after Close", readerGoroutines())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// TestClientReconnectStopsWhenClosed checks that a reader waiting for a reconnect exits on Close
func TestClientReconnectStopsWhenClosed(t *testing.T) {
	addr, stop := startServer(t, func(req []byte) []byte { return req })

	client := NewBaseClientTransport(&testClientConnector{})
	config := common.ClientConfig{
		Transport: common.ClientTransportConfig{Endpoints: []string{addr}},
	}
	if err := client.Connect(config, func(uint64, []byte, error) {}); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	// Without a server the reader keeps retrying until the transport is closed
	stop()
	time.Sleep(100 * time.Millisecond)
	if err := client.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for readerGoroutines() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("%d reader goroutines still running after Close", readerGoroutines())
		}
		time.Sleep(20 * time.Millisecond)
	}
}
