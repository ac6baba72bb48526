package in

import (
	"context"

	"procure_server/core/domain"
)

// InboundService processes inbound reply webhooks. Implementations never let
// a single failed write abort the pipeline; the returned result reports how
// far processing got so the webhook can still be acknowledged.
type InboundService interface {
	ProcessInbound(ctx context.Context, email *domain.InboundEmail) (*InboundResult, error)
}

// InboundResult is the outcome of one webhook delivery.
type InboundResult struct {
	Success    bool        `json:"success"`
	TrackingID string      `json:"trackingId,omitempty"`
	ThreadID   int64       `json:"threadId,omitempty"`
	Kind       domain.Kind `json:"emailType,omitempty"`
	ReplyID    int64       `json:"-"`
	Error      string      `json:"error,omitempty"`
}
