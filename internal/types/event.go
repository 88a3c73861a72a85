package types

import (
	"fmt"
	"time"
)

// EventKind classifies a log event for subscribers.
type EventKind string

// Event kinds mirror the severity levels surfaced on the log stream.
const (
	EventLog     EventKind = "log"
	EventInfo    EventKind = "info"
	EventWarning EventKind = "warning"
	EventError   EventKind = "error"
)

// LogEvent is a structured progress record streamed to live subscribers.
// Events are ephemeral: they are never persisted, only broadcast.
type LogEvent struct {
	Kind      EventKind `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLogEvent creates a log event stamped with the current time.
func NewLogEvent(kind EventKind, format string, args ...any) LogEvent {
	return LogEvent{
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC(),
	}
}
