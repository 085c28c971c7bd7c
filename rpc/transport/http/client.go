package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport"
)

// NewHttpClientTransport creates a client transport that posts every request to <endpoint>/rpc
func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	handler    transport.ResponseHandler
	counter    uint32
	retryCount int
	closed     atomic.Bool
	closeMu    sync.RWMutex // orders inflight.Add in Send before inflight.Wait in Close
	inflight   sync.WaitGroup
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig, handler transport.ResponseHandler) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	if handler == nil {
		return fmt.Errorf("no response handler provided")
	}

	// Parse each server URL
	parsedURLs := make([]*url.URL, len(config.Transport.Endpoints))
	for i, server := range config.Transport.Endpoints {
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL.JoinPath(rpcPath)
	}

	// Create client with default transport
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: max(10, config.Transport.ConnectionsPerEndpoint),
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: time.Duration(config.TimeoutSecond) * time.Second,
	}

	// Set the client and server URLs
	t.client = client
	t.serverURLs = parsedURLs
	t.handler = handler
	t.counter = 0
	t.retryCount = max(1, config.Transport.RetryCount)
	t.closed.Store(false)

	// No error
	return nil
}

func (t *httpClientTransport) Send(requestID uint64, req []byte) error {
	t.closeMu.RLock()
	defer t.closeMu.RUnlock()

	// Check if the transport is initialized
	if t.client == nil || t.closed.Load() {
		return fmt.Errorf("http transport not initialized")
	}

	// Select the next server via round-robin
	idx := atomic.AddUint32(&t.counter, 1) % uint32(len(t.serverURLs))
	requestURL := t.serverURLs[idx].String()

	// Requests are independent http calls, the response is delivered asynchronously
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		resp, err := t.post(requestURL, req)
		t.handler(requestID, resp, err)
	}()

	return nil
}

func (t *httpClientTransport) Close() error {
	t.closeMu.Lock()
	alreadyClosed := t.closed.Swap(true)
	t.closeMu.Unlock()
	if alreadyClosed {
		return nil
	}

	// Wait for running requests so that no handler is called after Close returns
	t.inflight.Wait()

	// Close the client
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// post sends a single request (with retries) and returns the response body
func (t *httpClientTransport) post(requestURL string, req []byte) ([]byte, error) {
	var lastErr error
	for i := 0; i < t.retryCount; i++ {
		httpResponse, err := t.client.Post(requestURL, "application/octet-stream", bytes.NewReader(req))
		if err != nil {
			lastErr = err
			Logger.Debugf("Request attempt %d/%d to %s failed: %v", i+1, t.retryCount, requestURL, err)
			continue
		}

		body, err := io.ReadAll(httpResponse.Body)
		if closeErr := httpResponse.Body.Close(); closeErr != nil {
			Logger.Errorf("Failed to close response body: %v", closeErr)
		}

		// Check if the response status code is OK
		if httpResponse.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("http error: %s", httpResponse.Status)
		}
		return body, err
	}
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", t.retryCount, lastErr)
}
