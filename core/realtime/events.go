package realtime

import (
	"encoding/json"
	"time"
)

// Message types on the wire.
const (
	MsgTypeEvent = "event"
	MsgTypeError = "error"
)

// Event names form one authoritative table; inbound events not listed here
// are rejected before any routing decision is made.
const (
	EventCourseProgress  = "course:progress"
	EventCourseMessage   = "course:message"
	EventTenantBroadcast = "tenant:broadcast"
	EventSystemAlert     = "system:alert"
)

// privilegedEvents re-check the sender's role at dispatch time instead of
// relying on connect-time room membership.
var (
	knownEvents = map[string]struct{}{
		EventCourseProgress:  {},
		EventCourseMessage:   {},
		EventTenantBroadcast: {},
		EventSystemAlert:     {},
	}

	privilegedEvents = map[string]struct{}{
		EventTenantBroadcast: {},
		EventSystemAlert:     {},
	}
)

func IsKnownEvent(event string) bool {
	_, ok := knownEvents[event]
	return ok
}

func IsPrivilegedEvent(event string) bool {
	_, ok := privilegedEvents[event]
	return ok
}

type (
	// InboundMessage is what a connected client may send. Any declared
	// tenant_id/user_id is validated against the connection identity.
	InboundMessage struct {
		Event    string          `json:"event"`
		TenantID int             `json:"tenant_id,omitempty"`
		UserID   int             `json:"user_id,omitempty"`
		CourseID int             `json:"course_id,omitempty"`
		Payload  json.RawMessage `json:"payload,omitempty"`
	}

	// OutboundMessage is the fan-out envelope. Timestamp is stamped by the
	// server at dispatch; client-supplied timestamps are never trusted.
	OutboundMessage struct {
		Type      string      `json:"type"`
		Event     string      `json:"event,omitempty"`
		Timestamp time.Time   `json:"timestamp"`
		Payload   interface{} `json:"payload,omitempty"`
	}
)
