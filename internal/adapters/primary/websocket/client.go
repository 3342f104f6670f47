// Package websocket provides an alternate delivery transport for board
// events. A client owns one registry listener and relays every event it
// receives as a JSON text message, so WebSocket consumers see exactly the
// stream an SSE consumer would.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/setrow/taskboard-backend/internal/core/domain"
	"github.com/setrow/taskboard-backend/internal/realtime"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients send nothing but
	// close frames, so this stays small.
	maxMessageSize = 512
)

// Client relays events from a registry listener to a websocket connection.
type Client struct {
	registry *realtime.Registry
	listener *realtime.Listener
	conn     *websocket.Conn
	logger   *slog.Logger
}

// NewClient registers a listener and wraps the connection. Like an SSE
// session, registration happens here: the client receives every event
// published after NewClient returns.
func NewClient(registry *realtime.Registry, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		registry: registry,
		listener: registry.Register(),
		conn:     conn,
		logger:   logger.With("component", "ws_client"),
	}
}

// Run drives the connection until the peer disconnects or the registry
// shuts down. It blocks; the caller owns the HTTP handler goroutine.
func (c *Client) Run(ctx context.Context) {
	defer c.registry.Unregister(c.listener)
	defer func() { _ = c.conn.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.readPump(cancel)
	c.writePump(ctx)
}

// readPump discards inbound messages and watches for the peer closing the
// connection. The read deadline doubles as the pong timeout.
func (c *Client) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
	}
}

// writePump pumps events from the listener to the websocket connection,
// pinging the peer whenever the queue stays idle for a ping period.
func (c *Client) writePump(ctx context.Context) {
	for {
		event, ok, err := c.listener.Next(ctx, pingPeriod)
		if err != nil {
			// Peer gone or registry shut down. Try to say goodbye.
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			c.logger.Error("failed to set write deadline", "error", err)
			return
		}

		if !ok {
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
			continue
		}

		if err := c.writeJSON(event); err != nil {
			c.logger.Error("failed to write message", "error", err)
			return
		}
	}
}

// writeJSON writes a JSON message to the websocket connection
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
