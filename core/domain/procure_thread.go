package domain

import "time"

// Thread is one ongoing exchange with a vendor about one procurement request.
// Threads are created when the first outbound message is dispatched, or by the
// repair path when an inbound reply references no known thread. They are never
// deleted in normal operation.
type Thread struct {
	ID          int64        `json:"id"`
	RequestID   int64        `json:"rfx_id"`
	VendorName  string       `json:"vendor_name"`
	VendorEmail string       `json:"vendor_email,omitempty"`
	Subject     string       `json:"subject"`
	Status      ThreadStatus `json:"status"`
	Unread      bool         `json:"unread"`
	Kind        Kind         `json:"type"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Message is a single email body within a thread. Immutable once created;
// ordering within a thread is by Timestamp ascending.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Kind      Kind      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
