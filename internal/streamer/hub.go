// Package streamer implements the real-time update hub: it tracks live
// stream connections, binds them to authenticated users and to the
// projects they watch, and fans out batched change notifications on a
// fixed flush interval.
//
// All mutable hub state (connection registry, subscription index,
// pending update queue) is guarded by a single mutex so no two
// mutations ever interleave partially. Writes to a connection go
// through its buffered send channel and never block; the websocket
// write pump drains the channel outside the lock.
package streamer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultFlushInterval is the period between delivery cycles.
const DefaultFlushInterval = time.Second

// sendBuffer is the outbound channel depth per connection. A client
// that falls further behind than this loses updates rather than
// stalling the hub.
const sendBuffer = 32

// CredentialValidator checks the credential presented in an initialize
// message and returns the authenticated user id. The token is bound to
// the connection it arrives on.
type CredentialValidator interface {
	Validate(ctx context.Context, connectionID, token string) (string, error)
}

// MembershipChecker confirms a user may watch a project. It returns
// ErrNotFound for an unknown project and ErrForbidden for a non-member;
// the hub propagates its error unchanged.
type MembershipChecker interface {
	CheckMember(ctx context.Context, projectID, userID string) error
}

// Hub owns the registry, the subscription index, and the pending
// update queue. Create one with New and start its flush loop with Run.
type Hub struct {
	validator CredentialValidator
	checker   MembershipChecker
	interval  time.Duration

	mu       sync.Mutex
	registry *ConnectionRegistry
	index    *SubscriptionIndex
	queue    []Update
}

// New creates a hub. A non-positive flush interval falls back to
// DefaultFlushInterval.
func New(validator CredentialValidator, checker MembershipChecker, flushInterval time.Duration) *Hub {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &Hub{
		validator: validator,
		checker:   checker,
		interval:  flushInterval,
		registry:  NewConnectionRegistry(),
		index:     NewSubscriptionIndex(),
	}
}

// Run drives the periodic flush until the context is cancelled. It is
// meant to be started as a goroutine from main.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	slog.Info("streamer hub started", slog.Duration("flush_interval", h.interval))
	for {
		select {
		case <-ctx.Done():
			slog.Info("streamer hub stopped")
			return
		case <-ticker.C:
			h.flush()
		}
	}
}

// Connect registers a new connection and queues the hello message
// carrying its id. The transport drains conn.Send until the hub closes
// it on disconnect.
func (h *Hub) Connect() *Connection {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn := h.registry.Register(sendBuffer)
	h.sendLocked(conn, encode(helloMessage{Type: "connect", Session: conn.ID}))
	return conn
}

// Disconnect drops every subscription held by the connection, removes
// it from the registry, and closes its send channel. A second call for
// the same id is a no-op.
func (h *Hub) Disconnect(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.registry.Get(connectionID)
	if !ok {
		return
	}
	h.index.DropAll(connectionID)
	h.registry.Remove(connectionID)
	close(conn.send)
}

// HandleMessage processes one client message. The only meaningful type
// is "initialize"; anything else gets an error reply on the stream and
// leaves the connection state untouched. A failed initialize is not
// fatal: the client may retry on the same connection.
func (h *Hub) HandleMessage(ctx context.Context, connectionID string, payload []byte) {
	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.sendTo(connectionID, encode(errorMessage{Type: "error", Error: "invalid message"}))
		return
	}

	switch msg.Type {
	case "initialize":
		h.initialize(ctx, connectionID, msg.Authorization)
	default:
		h.sendTo(connectionID, encode(errorMessage{Type: "error", Error: "unknown message type: " + msg.Type}))
	}
}

// initialize runs the authentication handshake. The validator call
// happens outside the hub lock; its completion is ignored if the
// connection disconnected in the meantime.
func (h *Hub) initialize(ctx context.Context, connectionID, token string) {
	h.mu.Lock()
	if _, ok := h.registry.Get(connectionID); !ok {
		// Message raced with disconnect.
		h.mu.Unlock()
		return
	}
	if token == "" {
		conn, _ := h.registry.Get(connectionID)
		h.sendLocked(conn, encode(initializeReply{Type: "initialize", Status: "error", Error: "missing authorization"}))
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	userID, err := h.validator.Validate(ctx, connectionID, token)

	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.registry.Get(connectionID)
	if !ok {
		return
	}
	if err != nil {
		h.sendLocked(conn, encode(initializeReply{Type: "initialize", Status: "error", Error: err.Error()}))
		return
	}
	h.registry.BindUser(connectionID, userID)
	h.index.BindUser(userID, connectionID)
	h.sendLocked(conn, encode(initializeReply{Type: "initialize", Status: "ok", User: userID}))
}

// Subscribe adds a (connection, project) subscription on behalf of an
// authenticated request. The membership check runs outside the hub
// lock and no index mutation happens until it passes.
func (h *Hub) Subscribe(ctx context.Context, connectionID, projectID, userID string) error {
	if err := h.checkIdentity(connectionID, userID); err != nil {
		return err
	}

	if err := h.checker.CheckMember(ctx, projectID, userID); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.registry.Get(connectionID)
	if !ok {
		// Disconnected while the membership check was in flight.
		return fmt.Errorf("stream %s: %w", connectionID, ErrNotFound)
	}
	h.index.AddSubscription(connectionID, projectID)
	h.sendLocked(conn, encode(subscriptionEvent{Type: "subscribe", Project: projectID}))
	return nil
}

// Unsubscribe removes a subscription and confirms over the stream.
func (h *Hub) Unsubscribe(_ context.Context, connectionID, projectID, userID string) error {
	if err := h.checkIdentity(connectionID, userID); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.registry.Get(connectionID)
	if !ok {
		return fmt.Errorf("stream %s: %w", connectionID, ErrNotFound)
	}
	if !h.index.RemoveSubscription(connectionID, projectID) {
		return fmt.Errorf("subscription %s/%s: %w", connectionID, projectID, ErrNotFound)
	}
	h.sendLocked(conn, encode(subscriptionEvent{Type: "unsubscribe", Project: projectID}))
	return nil
}

// checkIdentity enforces the shared subscribe/unsubscribe gate: the
// connection must exist, must have completed initialize, and must be
// bound to the requesting user.
func (h *Hub) checkIdentity(connectionID, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.registry.Get(connectionID)
	if !ok {
		return fmt.Errorf("stream %s: %w", connectionID, ErrNotFound)
	}
	if conn.UserID == "" {
		return ErrBadRequest
	}
	if conn.UserID != userID {
		return ErrForbidden
	}
	return nil
}

// Drop force-unsubscribes every one of the user's connections from the
// project and pushes an "unsubscribe" notice on each. Best effort: a
// user with no live connections is not an error, and a repeat call is
// a no-op.
func (h *Hub) Drop(userID, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, connectionID := range h.index.ConnectionsOfUser(userID) {
		if !h.index.RemoveSubscription(connectionID, projectID) {
			continue
		}
		if conn, ok := h.registry.Get(connectionID); ok {
			h.sendLocked(conn, encode(subscriptionEvent{Type: "unsubscribe", Project: projectID}))
		}
	}
}

// Enqueue appends an update to the pending buffer. Delivery happens at
// the next flush; enqueueing never blocks and never triggers delivery
// by itself.
func (h *Hub) Enqueue(update Update) {
	update.Type = "update"

	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, update)
}

// flush swaps out the pending buffer and delivers each update to its
// resolved recipient set, in enqueue order. Updates enqueued while a
// flush runs land in the next cycle. Delivery to a connection whose
// send buffer is full (or which closed since enqueue) is dropped
// silently and never aborts the rest of the cycle.
func (h *Hub) flush() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.queue) == 0 {
		return
	}
	pending := h.queue
	h.queue = nil

	for _, update := range pending {
		payload := encode(update)

		var recipients []string
		if update.forUser() {
			recipients = h.index.ConnectionsOfUser(update.User)
		} else {
			recipients = h.index.SubscribersOfProject(update.Project)
		}

		for _, connectionID := range recipients {
			if conn, ok := h.registry.Get(connectionID); ok {
				h.sendLocked(conn, payload)
			}
		}
	}
}

// sendLocked queues a payload on the connection's outbound channel
// without blocking. The caller holds h.mu, which also guarantees the
// channel has not been closed.
func (h *Hub) sendLocked(conn *Connection, payload []byte) {
	select {
	case conn.send <- payload:
	default:
		slog.Debug("stream send buffer full, dropping message",
			slog.String("connection_id", conn.ID))
	}
}

// sendTo is sendLocked behind its own lookup, for paths that do not
// already hold the lock.
func (h *Hub) sendTo(connectionID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.registry.Get(connectionID); ok {
		h.sendLocked(conn, payload)
	}
}
