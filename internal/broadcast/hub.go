// Package broadcast fans structured log events out to live subscribers.
//
// The hub is a pure transport: it has no notion of usernames or runs, and it
// never writes to durable storage. Events from all concurrent runs interleave
// on the same stream; consumers that care about a specific user filter on
// their side.
package broadcast

import (
	"sync"

	"github.com/jonathan/persona-chat/internal/types"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this many events behind is dropped rather than allowed to block
// delivery to everyone else.
const subscriberBuffer = 64

// Subscriber is one live connection to the hub. Read events from C until it
// is closed.
type Subscriber struct {
	C <-chan types.LogEvent

	ch   chan types.LogEvent
	once sync.Once
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub is a thread-safe registry of subscribers with best-effort fan-out.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber and immediately delivers a synthetic
// connected event, so the caller can distinguish a live hub from a silently
// dead one.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan types.LogEvent, subscriberBuffer)}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.close()
		return sub
	}
	sub.ch <- types.NewLogEvent(types.EventInfo, "Connected to log stream")
	h.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Removing an
// already-removed subscriber is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

// Publish delivers an event to every registered subscriber without blocking.
// A subscriber whose buffer is full is removed so one slow consumer cannot
// stall the rest. Events arrive at each surviving subscriber in publish
// order.
func (h *Hub) Publish(event types.LogEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			delete(h.subs, sub)
			sub.close()
		}
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close shuts the hub down: all subscriber channels are closed and further
// publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.close()
	}
}

// Logf publishes a log-kind event.
func (h *Hub) Logf(format string, args ...any) {
	h.Publish(types.NewLogEvent(types.EventLog, format, args...))
}

// Infof publishes an info-kind event.
func (h *Hub) Infof(format string, args ...any) {
	h.Publish(types.NewLogEvent(types.EventInfo, format, args...))
}

// Warningf publishes a warning-kind event.
func (h *Hub) Warningf(format string, args ...any) {
	h.Publish(types.NewLogEvent(types.EventWarning, format, args...))
}

// Errorf publishes an error-kind event.
func (h *Hub) Errorf(format string, args ...any) {
	h.Publish(types.NewLogEvent(types.EventError, format, args...))
}
