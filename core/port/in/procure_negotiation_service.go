package in

import (
	"context"

	"procure_server/core/domain"
)

// NegotiationService manages budget settings and derived negotiation state.
type NegotiationService interface {
	CreateSettings(ctx context.Context, req *NegotiationSettingsRequest) (*domain.NegotiationSettings, error)
	GetSettings(ctx context.Context, threadID int64) (*domain.NegotiationSettings, error)
	UpdateSettings(ctx context.Context, threadID int64, req *NegotiationSettingsRequest) (*domain.NegotiationSettings, error)
	ListSettings(ctx context.Context) ([]*domain.NegotiationSettings, error)
	GetState(ctx context.Context, threadID int64) (*domain.NegotiationState, error)
}

// NegotiationSettingsRequest creates or updates the guardrails for a thread.
type NegotiationSettingsRequest struct {
	ThreadID      int64                    `json:"thread_id"`
	RequestID     int64                    `json:"rfx_id,omitempty"`
	MinBudget     float64                  `json:"min_budget"`
	MaxBudget     float64                  `json:"max_budget"`
	TargetBudget  float64                  `json:"target_budget"`
	AutoNegotiate bool                     `json:"auto_negotiate"`
	Status        domain.NegotiationStatus `json:"status,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
}
