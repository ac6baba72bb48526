package in

import (
	"context"

	"procure_server/core/domain"
)

// ClassifyService decides whether a subject line belongs to a quotation
// request or a negotiation. It never fails its caller.
type ClassifyService interface {
	ClassifySubject(ctx context.Context, subject string) *Classification
}

// Classification is the classifier verdict. Source records which stage
// decided: keyword, ai, or default.
type Classification struct {
	Kind       domain.Kind `json:"type"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Source     string      `json:"source"`
}
