package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskgrove/backend/internal/streamer"
)

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size. Initialize messages carry a single
	// credential token, so anything larger is garbage.
	maxMessageSize = 4096
)

// client couples one websocket connection to its hub registration.
type client struct {
	hub  *streamer.Hub
	conn *streamer.Connection
	ws   *websocket.Conn
}

// readPump forwards client messages to the hub until the socket
// errors or closes, then reports the disconnect. It runs on the
// request goroutine.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(c.conn.ID)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("stream read failed",
					slog.String("connection_id", c.conn.ID),
					slog.String("error", err.Error()))
			}
			return
		}
		c.hub.HandleMessage(ctx, c.conn.ID, payload)
	}
}

// writePump drains the hub's send channel onto the socket and keeps
// the connection alive with pings. It exits when the hub closes the
// channel (disconnect) or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.conn.Send():
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
