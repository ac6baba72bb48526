package out

import (
	"context"

	"procure_server/core/domain"
)

// TrackingRepository defines the outbound port for send-time tracking records.
type TrackingRepository interface {
	Create(ctx context.Context, rec *domain.TrackingRecord) error
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.TrackingRecord, error)
}

// ReplyRepository defines the outbound port for the inbound reply audit trail.
type ReplyRepository interface {
	Create(ctx context.Context, rec *domain.ReplyRecord) error
	ListByThread(ctx context.Context, threadID int64, limit, offset int) ([]*domain.ReplyRecord, int, error)
}
