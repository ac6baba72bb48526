package out

import (
	"context"

	"procure_server/core/domain"
)

// NegotiationRepository defines the outbound port for negotiation settings.
type NegotiationRepository interface {
	Create(ctx context.Context, settings *domain.NegotiationSettings) error
	GetByThreadID(ctx context.Context, threadID int64) (*domain.NegotiationSettings, error)
	Update(ctx context.Context, settings *domain.NegotiationSettings) error
	ListAll(ctx context.Context) ([]*domain.NegotiationSettings, error)
}
