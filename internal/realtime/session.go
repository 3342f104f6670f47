package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/setrow/taskboard-backend/internal/core/domain"
)

// DefaultKeepAliveInterval is how long a session waits on an idle queue
// before emitting a ping frame. Intermediaries (proxies, browsers) tear down
// idle connections, commonly around 60s, so this must stay well under that.
const DefaultKeepAliveInterval = 25 * time.Second

const keepAliveFrame = "event: ping\ndata: {}\n\n"

// Flusher is the subset of http.Flusher a session needs.
type Flusher interface {
	Flush()
}

// Session streams events from one registry listener to a client connection
// as server-sent-event frames. It owns the listener's lifecycle: the
// listener is registered when the session is created and unregistered when
// Run returns, however it returns.
type Session struct {
	registry  *Registry
	listener  *Listener
	w         io.Writer
	flusher   Flusher
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewSession registers a new listener and wraps it in a session. Registration
// is the first observable effect: every event published after NewSession
// returns is delivered, and nothing published before it is.
func NewSession(registry *Registry, w io.Writer, flusher Flusher, keepAlive time.Duration, logger *slog.Logger) *Session {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAliveInterval
	}
	return &Session{
		registry:  registry,
		listener:  registry.Register(),
		w:         w,
		flusher:   flusher,
		keepAlive: keepAlive,
		logger:    logger.With("component", "stream_session"),
	}
}

// Run drives the session until the peer disconnects (ctx cancellation), a
// frame write fails, or the registry shuts down. All of these are ordinary
// termination, not errors to escalate. The deferred unregister guarantees
// cleanup on every exit path.
func (s *Session) Run(ctx context.Context) {
	defer s.registry.Unregister(s.listener)

	for {
		event, ok, err := s.listener.Next(ctx, s.keepAlive)
		if err != nil {
			s.logger.Debug("session closed", "reason", err)
			return
		}

		if !ok {
			if err := s.writeKeepAlive(); err != nil {
				s.logger.Debug("keep-alive write failed", "error", err)
				return
			}
			continue
		}

		if err := s.writeEvent(event); err != nil {
			s.logger.Debug("frame write failed", "error", err, "event_type", event.Type)
			return
		}
	}
}

// writeEvent emits one data frame and flushes it to the peer.
func (s *Session) writeEvent(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeKeepAlive emits a ping frame. It carries no payload and conforming
// readers ignore it; its only job is to keep intermediaries from closing an
// idle connection.
func (s *Session) writeKeepAlive() error {
	if _, err := io.WriteString(s.w, keepAliveFrame); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
