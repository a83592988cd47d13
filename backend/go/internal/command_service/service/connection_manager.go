package service

import (
	"sync"

	"github.com/gorilla/websocket"
)

// userConn pairs a WebSocket connection with its own write lock; gorilla
// connections allow only one concurrent writer.
type userConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (u *userConn) write(message []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.conn.WriteMessage(websocket.TextMessage, message)
}

// ConnectionManager tracks the WebSocket connection each user keeps open to
// receive command results. A user has at most one connection; a new one
// replaces and closes the previous.
type ConnectionManager struct {
	connections map[string]*userConn
	mu          sync.RWMutex
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*userConn),
	}
}

// Add registers a connection for a user, closing any previous one.
func (m *ConnectionManager) Add(userID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.connections[userID]; ok {
		old.conn.Close()
	}
	m.connections[userID] = &userConn{conn: conn}
}

// Remove drops and closes the user's connection.
func (m *ConnectionManager) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.connections[userID]; ok {
		c.conn.Close()
		delete(m.connections, userID)
	}
}

// Send pushes a message to the user's connection. Returns false when the
// user has no connection or the write failed; delivery is best-effort and
// the command record remains the source of truth.
func (m *ConnectionManager) Send(userID string, message []byte) bool {
	m.mu.RLock()
	c, ok := m.connections[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return c.write(message) == nil
}
