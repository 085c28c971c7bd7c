package base

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dGrid/rpc/common"
	"github.com/ValentinKolb/dGrid/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// ErrTransportClosed is reported for requests that were pending when the transport was closed
var ErrTransportClosed = errors.New("transport closed")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientConnection represents a single net connection
type clientConnection struct {
	conn     net.Conn
	endpoint string
	pending  *xsync.MapOf[uint64, struct{}] // requests written to this connection without a response yet
	connMu   sync.Mutex                     // Protects the connection itself
	parent   *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	handler       transport.ResponseHandler
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex uint64        // Atomic counter for Round Robin
	stopping      atomic.Bool   // Signals shutdown
	stopCh        chan struct{} // Close signal for the reader goroutines
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig, handler transport.ResponseHandler) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	if handler == nil {
		return fmt.Errorf("no response handler provided")
	}

	// Close all existing connections
	t.closeConnections()

	// Store the config
	t.config = config
	t.handler = handler
	t.stopping.Store(false)

	// Every reader gets this channel directly, Close resets the field
	stopCh := make(chan struct{})
	t.connectionsMu.Lock()
	t.stopCh = stopCh
	t.connectionsMu.Unlock()

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)

	// Create connections
	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)

	// Initialize client connections
	for _, endpoint := range config.Transport.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn := &clientConnection{
				conn:     nil, // Will be set by reconnect
				endpoint: endpoint,
				pending:  xsync.NewMapOf[uint64, struct{}](),
				parent:   t,
			}

			// Establish the initial connection using reconnect
			if err := clientConn.reconnect(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}

			connections = append(connections, clientConn)
			Logger.Infof("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	// Check if we have at least one connection
	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	// Start the response readers
	for _, c := range connections {
		go c.readResponses(stopCh)
	}

	Logger.Infof("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Transport.Endpoints)*connectionsPerEP, len(config.Transport.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(requestID uint64, req []byte) error {
	if t.stopping.Load() {
		return ErrTransportClosed
	}

	// Retry logic with exponential backoff
	var lastErr error

	// We always try at least once, and up to maxRetries times
	maxRetries := max(1, t.config.Transport.RetryCount)

	// Initial backoff duration in milliseconds
	backoffMs := 50

	for i := 0; i < maxRetries; i++ {
		conn := t.getNextConnection()
		if conn == nil {
			return fmt.Errorf("no active connections available")
		}

		// Try with this connection
		err := conn.send(requestID, req)
		if err == nil {
			return nil
		}

		lastErr = err
		Logger.Debugf("Request %d attempt %d/%d failed: %v", requestID, i+1, maxRetries, err)

		if i < maxRetries-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	// All attempts failed
	return fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, lastErr)
}

func (t *clientTransport) Close() error {
	if t.stopping.Swap(true) {
		return nil
	}
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}

	// Simple Round Robin algorithm
	var index uint64
	if len(t.connections) == 1 {
		// optimize for single connection
		index = 0
	} else {
		index = atomic.AddUint64(&t.nextConnIndex, 1) % uint64(len(t.connections))
	}
	return t.connections[index]
}

// closeConnections closes all active connections
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	defer t.connectionsMu.Unlock()

	// Signal reader goroutines to stop
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}

	for _, c := range t.connections {
		c.connMu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connMu.Unlock()
		c.failPending(ErrTransportClosed)
	}

	// Empty the list
	t.connections = nil
}

// send writes a single request to the connection and registers it as pending
func (c *clientConnection) send(requestID uint64, req []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	// Test if connection is still valid
	if c.conn == nil {
		return fmt.Errorf("connection to %s is closed", c.endpoint)
	}

	// Register before writing, the response may arrive before writeFrame returns
	c.pending.Store(requestID, struct{}{})

	// Set write timeout
	if c.parent.config.TimeoutSecond > 0 {
		timeout := time.Duration(c.parent.config.TimeoutSecond) * time.Second
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			c.pending.Delete(requestID)
			return err
		}
	}

	if err := writeFrame(c.conn, requestID, req); err != nil {
		c.pending.Delete(requestID)
		// A partially written frame corrupts the stream, the reader reconnects
		_ = c.conn.Close()
		return err
	}
	return nil
}

// failPending reports err for every request still waiting on this connection
func (c *clientConnection) failPending(err error) {
	c.pending.Range(func(requestID uint64, _ struct{}) bool {
		if _, ok := c.pending.LoadAndDelete(requestID); ok {
			c.parent.handler(requestID, nil, err)
		}
		return true
	})
}

// readResponses reads responses in a loop and distributes them to the response handler
func (c *clientConnection) readResponses(stopCh <-chan struct{}) {
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnectWithBackoff(stopCh) {
				return
			}
			continue
		}

		// Read the response frame (no read deadline: timeouts are enforced per call by the client)
		requestID, data, err := readFrame(conn, nil)
		if err == nil {
			if _, found := c.pending.LoadAndDelete(requestID); found {
				c.parent.handler(requestID, data, nil)
			} else {
				Logger.Warningf("Received response for unknown request ID %d from %s", requestID, c.endpoint)
			}
			continue
		}

		// Check if we should stop
		select {
		case <-stopCh:
			return
		default:
		}

		// The connection is broken, every request written to it is lost
		Logger.Warningf("Connection to %s lost: %v", c.endpoint, err)
		c.failPending(fmt.Errorf("connection to %s lost: %w", c.endpoint, err))

		c.connMu.Lock()
		if c.conn == conn {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()
	}
}

// reconnectWithBackoff tries to restore the connection until it succeeds or the transport stops
func (c *clientConnection) reconnectWithBackoff(stopCh <-chan struct{}) bool {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-stopCh:
			return false
		case <-time.After(backoff):
		}

		if err := c.reconnect(); err != nil {
			if errors.Is(err, ErrTransportClosed) || c.parent.stopping.Load() {
				return false
			}
			Logger.Errorf("Failed to reconnect to %s: %v", c.endpoint, err)
			backoff = min(2*backoff, 5*time.Second)
			continue
		}
		Logger.Infof("Reconnected to %s", c.endpoint)
		return true
	}
}

// reconnect establishes or restores a connection to the endpoint
func (c *clientConnection) reconnect() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.parent.stopping.Load() {
		return ErrTransportClosed
	}

	// Close the old connection if it exists
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	// Connect to the endpoint
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %v", c.endpoint, err)
	}

	c.conn = conn
	return nil
}
