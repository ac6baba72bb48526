package domain

import "time"

// EventType names a realtime event pushed to connected dashboards.
type EventType string

const (
	EventReplyReceived    EventType = "reply.received"
	EventThreadUpdated    EventType = "thread.updated"
	EventMessageCreated   EventType = "message.created"
	EventDispatchComplete EventType = "dispatch.complete"
)

// RealtimeEvent is the envelope broadcast over the event stream whenever the
// pipeline changes conversation state.
type RealtimeEvent struct {
	Type      EventType `json:"type"`
	ThreadID  int64     `json:"thread_id,omitempty"`
	RequestID int64     `json:"rfx_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
