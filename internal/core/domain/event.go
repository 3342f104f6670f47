package domain

import "time"

// EventType is the enumerated tag of a real-time board event.
type EventType string

const (
	EventTaskCreated   EventType = "created"
	EventTaskCompleted EventType = "completed"
	EventTaskReopened  EventType = "reopened"
	EventTaskAssigned  EventType = "assigned"
	EventTaskDeleted   EventType = "deleted"
	EventUserDeleted   EventType = "user_deleted"
)

// Event is an immutable record of one state change, broadcast to every
// connected listener. It is constructed after the owning database
// transaction commits and is never retained beyond the fan-out call.
type Event struct {
	Type      EventType      `json:"type"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// NewEvent builds an event stamped with the current UTC instant.
// The timestamp always ends in "Z". A nil payload becomes an empty object
// so the wire frame never carries a JSON null.
func NewEvent(kind EventType, message string, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return Event{
		Type:      kind,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	}
}
