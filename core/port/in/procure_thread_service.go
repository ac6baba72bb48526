package in

import (
	"context"

	"procure_server/core/domain"
)

// ThreadService manages vendor conversation threads.
type ThreadService interface {
	CreateThread(ctx context.Context, req *CreateThreadRequest) (*domain.Thread, error)
	CreateNegotiationThread(ctx context.Context, req *CreateNegotiationThreadRequest) (*domain.Thread, error)
	GetThread(ctx context.Context, id int64) (*ThreadDetail, error)
	ListThreads(ctx context.Context, requestID int64, limit, offset int) ([]*domain.Thread, int, error)
	MarkRead(ctx context.Context, id int64) error
}

// CreateThreadRequest creates a plain thread for a procurement request.
type CreateThreadRequest struct {
	RequestID   int64       `json:"rfx_id"`
	VendorName  string      `json:"vendor_name"`
	VendorEmail string      `json:"vendor_email,omitempty"`
	Subject     string      `json:"subject"`
	Kind        domain.Kind `json:"type,omitempty"`
}

// CreateNegotiationThreadRequest creates a negotiation thread together with
// its budget settings, seeded with an optional opening message.
type CreateNegotiationThreadRequest struct {
	RequestID      int64   `json:"rfx_id"`
	VendorName     string  `json:"vendor_name"`
	VendorEmail    string  `json:"vendor_email,omitempty"`
	Subject        string  `json:"subject"`
	MinBudget      float64 `json:"min_budget"`
	MaxBudget      float64 `json:"max_budget"`
	TargetBudget   float64 `json:"target_budget"`
	Notes          string  `json:"notes,omitempty"`
	OpeningMessage string  `json:"opening_message,omitempty"`
}

// ThreadDetail is a thread with its full message history.
type ThreadDetail struct {
	Thread   *domain.Thread    `json:"thread"`
	Messages []*domain.Message `json:"messages"`
}
