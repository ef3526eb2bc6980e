package streamer

import "github.com/google/uuid"

// Connection is one live stream channel. The send channel is owned by
// the hub: the transport layer drains it and the hub closes it on
// disconnect. UserID is empty until the initialize handshake succeeds.
type Connection struct {
	ID     string
	UserID string
	send   chan []byte
}

// Send exposes the outbound channel for the transport's write pump.
func (c *Connection) Send() <-chan []byte { return c.send }

// ConnectionRegistry tracks every live connection. It is not safe for
// concurrent use; the hub serializes all access under its own mutex.
type ConnectionRegistry struct {
	conns map[string]*Connection
}

// NewConnectionRegistry creates an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]*Connection)}
}

// Register allocates a fresh connection id and stores an entry with no
// user bound. The send channel is buffered so hub writes never block.
func (r *ConnectionRegistry) Register(sendBuffer int) *Connection {
	conn := &Connection{
		ID:   uuid.NewString(),
		send: make(chan []byte, sendBuffer),
	}
	r.conns[conn.ID] = conn
	return conn
}

// BindUser sets the user on an existing entry. A missing entry is a
// no-op: the connection raced with its own disconnect.
func (r *ConnectionRegistry) BindUser(connectionID, userID string) {
	if conn, ok := r.conns[connectionID]; ok {
		conn.UserID = userID
	}
}

// Get looks up a connection by id.
func (r *ConnectionRegistry) Get(connectionID string) (*Connection, bool) {
	conn, ok := r.conns[connectionID]
	return conn, ok
}

// Remove deletes the entry. Safe to call for an unknown id.
func (r *ConnectionRegistry) Remove(connectionID string) {
	delete(r.conns, connectionID)
}

// Len reports the number of live connections.
func (r *ConnectionRegistry) Len() int { return len(r.conns) }
