package out

import (
	"context"

	"procure_server/core/domain"
)

// SubjectClassifier defines the outbound port for AI-backed subject analysis.
// Implementations must respect ctx deadlines; the caller bounds the call.
type SubjectClassifier interface {
	AnalyzeSubject(ctx context.Context, subject string) (*SubjectAnalysis, error)
}

// SubjectAnalysis is the model's verdict on an email subject.
type SubjectAnalysis struct {
	Kind       domain.Kind `json:"type"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning,omitempty"`
}
