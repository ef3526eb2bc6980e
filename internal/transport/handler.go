// Package transport owns the websocket boundary of the streamer: it
// upgrades HTTP requests, registers connections with the hub, and runs
// the per-connection read/write pumps. The hub itself never touches a
// socket.
package transport

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/taskgrove/backend/internal/streamer"
)

// StreamHandler serves the websocket endpoint backing the update hub.
type StreamHandler struct {
	hub      *streamer.Hub
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a handler for the given hub. Connections
// are accepted from the listed origins only; an empty list allows any
// origin (local development).
func NewStreamHandler(hub *streamer.Hub, allowedOrigins []string) *StreamHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Serve upgrades the request and hands the connection to the hub.
// Authentication happens afterwards, over the channel itself, via the
// initialize handshake.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.Debug("stream upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := h.hub.Connect()
	c := &client{hub: h.hub, conn: conn, ws: ws}

	go c.writePump()
	c.readPump(r.Context())
}
