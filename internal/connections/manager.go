package connections

import (
	"context"
	"sync"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// Manager handles WebSocket connection lifecycle
type Manager struct {
	mu          sync.RWMutex
	connections sync.Map
	active      sync.WaitGroup
	timeouts    TimeoutConfig
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// NewManager creates a new connection manager with the specified timeouts
func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		timeouts: timeouts,
	}
}

// AddConnection registers a new WebSocket connection. cancel, when set,
// stops the work the connection is doing once CloseAll runs.
func (m *Manager) AddConnection(conn *websocket.Conn, cancel context.CancelFunc) {
	if cancel == nil {
		cancel = func() {}
	}
	if _, loaded := m.connections.LoadOrStore(conn, cancel); !loaded {
		m.active.Add(1)
		metrics.WebSocketConnections.Inc()
	}
}

// RemoveConnection removes a WebSocket connection
func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	if _, loaded := m.connections.LoadAndDelete(conn); loaded {
		m.active.Done()
		metrics.WebSocketConnections.Dec()
	}
}

// GetConnectionCount returns the current number of active connections
func (m *Manager) GetConnectionCount() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// HasConnection checks if a specific connection exists
func (m *Manager) HasConnection(conn *websocket.Conn) bool {
	_, exists := m.connections.Load(conn)
	return exists
}

// GetTimeouts returns the current timeout configuration
func (m *Manager) GetTimeouts() TimeoutConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeouts
}

// SetTimeouts updates the timeout configuration
func (m *Manager) SetTimeouts(timeouts TimeoutConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts = timeouts
}

// ExpectRead arms the read deadline before a blocking read. Pongs received
// during the read push it further out.
func (m *Manager) ExpectRead(conn *websocket.Conn) error {
	timeouts := m.GetTimeouts()
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})
	return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
}

// KeepAlive pings conn until done is closed or a ping fails. Runs can take
// minutes, and the pings keep proxies from dropping an idle-looking socket.
func (m *Manager) KeepAlive(conn *websocket.Conn, done <-chan struct{}) {
	timeouts := m.GetTimeouts()
	ticker := time.NewTicker(timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(timeouts.WriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.Debug().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}

// CloseAll tells every client the server is going away. http.Server.Shutdown
// does not track hijacked connections, so serve mode calls this itself.
func (m *Manager) CloseAll() {
	timeouts := m.GetTimeouts()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")

	m.connections.Range(func(key, value interface{}) bool {
		conn := key.(*websocket.Conn)
		value.(context.CancelFunc)()
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeouts.WriteWait)); err != nil {
			log.Debug().Err(err).Msg("Failed to send close frame")
		}
		_ = conn.Close()
		return true
	})
}

// Wait blocks until every registered connection has been removed or ctx
// is done.
func (m *Manager) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		m.active.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
