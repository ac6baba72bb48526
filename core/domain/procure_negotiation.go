package domain

import (
	"time"

	"github.com/google/uuid"
)

// NegotiationStatus is the lifecycle of a negotiation settings record.
type NegotiationStatus string

const (
	NegotiationActive    NegotiationStatus = "active"
	NegotiationPaused    NegotiationStatus = "paused"
	NegotiationCompleted NegotiationStatus = "completed"
)

// NegotiationSettings holds the per-thread budget guardrails applied when a
// conversation enters negotiation. One row per thread.
type NegotiationSettings struct {
	ID            uuid.UUID         `json:"id"`
	ThreadID      int64             `json:"thread_id"`
	RequestID     int64             `json:"rfx_id,omitempty"`
	MinBudget     float64           `json:"min_budget"`
	MaxBudget     float64           `json:"max_budget"`
	TargetBudget  float64           `json:"target_budget"`
	AutoNegotiate bool              `json:"auto_negotiate"`
	Status        NegotiationStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// OfferEvent is one price mention surfaced from a negotiation thread's
// message history. Derived, never stored.
type OfferEvent struct {
	MessageID int64     `json:"message_id"`
	Sender    Sender    `json:"sender"`
	Amount    float64   `json:"amount"`
	Raw       string    `json:"raw"`
	Timestamp time.Time `json:"timestamp"`
}

// NegotiationState is the derived view of where a negotiation thread stands,
// rebuilt on demand from the thread's messages and settings.
type NegotiationState struct {
	ThreadID     int64        `json:"thread_id"`
	RequestID    int64        `json:"rfx_id,omitempty"`
	Round        int          `json:"round"`
	Offers       []OfferEvent `json:"offers"`
	LastOffer    *OfferEvent  `json:"last_offer,omitempty"`
	WithinBudget bool         `json:"within_budget"`
}
