package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Session lifecycle events published to the NATS stream for external
// consumers (advisor dashboards, analytics).
func NewSessionCreated(sessionId, roomId, status string) Event {
	return BaseEvent{
		Type: "SESSION_CREATED",
		Data: map[string]interface{}{
			"session_id": sessionId,
			"room_id":    roomId,
			"status":     status,
		},
		OccurredAt: time.Now(),
	}
}

func NewSessionClosed(sessionId, roomId string, advisorId *string) Event {
	data := map[string]interface{}{
		"session_id": sessionId,
		"room_id":    roomId,
	}
	if advisorId != nil {
		data["advisor_id"] = *advisorId
	}
	return BaseEvent{
		Type:       "SESSION_CLOSED",
		Data:       data,
		OccurredAt: time.Now(),
	}
}
