package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/setrow/taskboard-backend/internal/core/domain"
)

// ErrListenerClosed is returned by Next once the listener has been
// unregistered or the registry has shut down.
var ErrListenerClosed = errors.New("listener closed")

// Listener is one connected client's delivery queue. The queue is unbounded:
// a push never blocks the publisher and never drops an event, at the cost of
// memory growth if the consumer stalls permanently. Events come out in
// exactly the order they were pushed.
//
// A Listener is created by Registry.Register and owned by its stream
// session; the registry only tracks membership.
type Listener struct {
	mu     sync.Mutex
	queue  []domain.Event
	wake   chan struct{} // capacity 1, armed when the queue is non-empty or closed
	closed bool
}

func newListener() *Listener {
	return &Listener{wake: make(chan struct{}, 1)}
}

// push appends an event to the queue. Events pushed after close are discarded.
func (l *Listener) push(event domain.Event) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, event)
	l.mu.Unlock()
	l.signal()
}

// close marks the listener dead and wakes any blocked consumer.
func (l *Listener) close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()
	l.signal()
}

func (l *Listener) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// pop removes and returns the head of the queue.
func (l *Listener) pop() (event domain.Event, ok bool, closed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) > 0 {
		event = l.queue[0]
		l.queue = l.queue[1:]
		if len(l.queue) > 0 {
			// Keep the wake channel armed for the remaining events.
			l.signal()
		}
		return event, true, false
	}
	return domain.Event{}, false, l.closed
}

// Pending returns the number of queued, undelivered events.
func (l *Listener) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Next blocks until the next queued event arrives, the wait elapses, or ctx
// is done. It returns ok=false with a nil error when the wait timed out with
// nothing queued; that is the signal to emit a keep-alive. After the listener
// is closed, any still-queued events are drained first, then
// ErrListenerClosed is returned.
func (l *Listener) Next(ctx context.Context, wait time.Duration) (domain.Event, bool, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		event, ok, closed := l.pop()
		if ok {
			return event, true, nil
		}
		if closed {
			return domain.Event{}, false, ErrListenerClosed
		}

		select {
		case <-l.wake:
			// Loop around and pop. A spurious wake just waits again.
		case <-timer.C:
			return domain.Event{}, false, nil
		case <-ctx.Done():
			return domain.Event{}, false, ctx.Err()
		}
	}
}
