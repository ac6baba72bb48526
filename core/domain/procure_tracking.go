package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrackingRecord is the durable record created once per outbound send. Its
// token is the sole mechanism for recovering thread identity from an inbound
// reply that cannot otherwise reference the thread.
type TrackingRecord struct {
	ID             uuid.UUID `json:"id"`
	TrackingID     string    `json:"tracking_id"`
	RequestID      int64     `json:"rfx_id"`
	ThreadID       int64     `json:"thread_id"`
	UserID         uuid.UUID `json:"user_id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Kind           Kind      `json:"type"`
	SentAt         time.Time `json:"sent_at"`
}

// ReplyRecord is the append-only audit row written for every inbound webhook
// delivery, independent of whether correlation succeeded.
type ReplyRecord struct {
	ID          int64     `json:"id"`
	TrackingID  string    `json:"tracking_id"`
	RequestID   int64     `json:"rfx_id"`
	ThreadID    int64     `json:"thread_id"`
	UserID      uuid.UUID `json:"user_id"`
	SenderEmail string    `json:"sender_email"`
	Subject     string    `json:"subject"`
	TextContent string    `json:"text_content"`
	HTMLContent string    `json:"html_content,omitempty"`
	Kind        Kind      `json:"type"`
	ReceivedAt  time.Time `json:"received_at"`
}
