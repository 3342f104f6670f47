// Package realtime implements the live-update delivery subsystem: a
// process-wide registry of connected listeners, a broadcaster that fans
// state-change events out to all of them, and the server-sent-events session
// that drains one listener onto a client connection.
package realtime

import (
	"log/slog"
	"sync"
)

// Registry is the shared, lock-protected set of currently active listeners.
// The lock guards membership only and is never held while writing to a
// client connection or waiting on a queue.
type Registry struct {
	mu        sync.Mutex
	listeners map[*Listener]struct{}
	closed    bool
	logger    *slog.Logger
}

// NewRegistry creates an empty registry. Construct it once at process start
// and inject it into everything that registers or publishes.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		listeners: make(map[*Listener]struct{}),
		logger:    logger.With("component", "listener_registry"),
	}
}

// Register allocates a fresh listener queue and adds it to the set. If the
// registry has already shut down, the returned listener is born closed so
// the session exits immediately instead of dangling.
func (r *Registry) Register() *Listener {
	l := newListener()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		l.close()
		return l
	}
	r.listeners[l] = struct{}{}
	active := len(r.listeners)
	r.mu.Unlock()

	r.logger.Debug("listener registered", "active_listeners", active)
	return l
}

// Unregister removes the listener from the set and closes its queue.
// Idempotent: unregistering twice or unregistering a listener that was
// never registered is a no-op.
func (r *Registry) Unregister(l *Listener) {
	if l == nil {
		return
	}

	r.mu.Lock()
	_, member := r.listeners[l]
	if member {
		delete(r.listeners, l)
	}
	active := len(r.listeners)
	r.mu.Unlock()

	if member {
		l.close()
		r.logger.Debug("listener unregistered", "active_listeners", active)
	}
}

// Snapshot returns a copy of the current members for iteration. Membership
// changes made after Snapshot returns do not affect the returned slice, so a
// publish never observes a listener partially.
func (r *Registry) Snapshot() []*Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	listeners := make([]*Listener, 0, len(r.listeners))
	for l := range r.listeners {
		listeners = append(listeners, l)
	}
	return listeners
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Close unregisters and closes every listener and rejects future
// registrations. Called on server shutdown to drive all active sessions to
// their closed state without leaking registry entries.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	listeners := make([]*Listener, 0, len(r.listeners))
	for l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.listeners = make(map[*Listener]struct{})
	r.mu.Unlock()

	for _, l := range listeners {
		l.close()
	}
	r.logger.Info("registry closed", "listeners_closed", len(listeners))
}
