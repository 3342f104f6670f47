package realtime

import (
	"log/slog"

	"github.com/setrow/taskboard-backend/internal/core/domain"
	"github.com/setrow/taskboard-backend/internal/core/ports"
)

// Broadcaster fans a published event out to every listener currently in the
// registry. Publish returns once the event is enqueued everywhere; it does
// not wait for delivery and cannot fail because a consumer is slow or gone.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

var _ ports.EventPublisher = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logger.With("component", "broadcaster"),
	}
}

// Publish enqueues the event to every registered listener, in the same order
// relative to other Publish calls for any single listener. Listeners that
// register after the snapshot is taken do not receive the event.
func (b *Broadcaster) Publish(event domain.Event) {
	listeners := b.registry.Snapshot()
	for _, l := range listeners {
		l.push(event)
	}

	b.logger.Debug("event published",
		"event_type", event.Type,
		"listener_count", len(listeners),
	)
}
