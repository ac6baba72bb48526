package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/out"
)

type fakeClassifier struct {
	analysis *out.SubjectAnalysis
	err      error
	calls    int
}

func (f *fakeClassifier) AnalyzeSubject(ctx context.Context, subject string) (*out.SubjectAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func TestClassifyKeywordRule(t *testing.T) {
	tests := []struct {
		name    string
		subject string
	}{
		{"counter offer", "Re: Counter offer on chairs"},
		{"negotiation", "Negotiation for Q3 contract"},
		{"budget", "Budget discussion for laptops"},
		{"proposal", "Revised proposal attached"},
		{"case insensitive", "PRICE DISCUSSION follow up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeClassifier{}
			svc := NewService(ai, time.Second)

			got := svc.ClassifySubject(context.Background(), tt.subject)
			if got.Kind != domain.KindNegotiation {
				t.Errorf("kind = %s, want negotiation", got.Kind)
			}
			if got.Confidence != 0.95 {
				t.Errorf("confidence = %v, want 0.95", got.Confidence)
			}
			if ai.calls != 0 {
				t.Errorf("AI invoked %d times, want 0", ai.calls)
			}
		})
	}
}

func TestClassifyAIHighConfidence(t *testing.T) {
	ai := &fakeClassifier{analysis: &out.SubjectAnalysis{
		Kind:       domain.KindRFx,
		Confidence: 0.9,
		Reasoning:  "quotation request",
	}}
	svc := NewService(ai, time.Second)

	got := svc.ClassifySubject(context.Background(), "Request for Quotation: Laptops")
	if got.Kind != domain.KindRFx || got.Confidence != 0.9 {
		t.Errorf("got {%s %v}, want {rfx 0.9}", got.Kind, got.Confidence)
	}
	if got.Source != "ai" {
		t.Errorf("source = %s, want ai", got.Source)
	}
}

func TestClassifyAILowConfidenceFallsBack(t *testing.T) {
	ai := &fakeClassifier{analysis: &out.SubjectAnalysis{
		Kind:       domain.KindNegotiation,
		Confidence: 0.4,
	}}
	svc := NewService(ai, time.Second)

	got := svc.ClassifySubject(context.Background(), "Request for Quotation: Laptops")
	if got.Kind != domain.KindRFx {
		t.Errorf("kind = %s, want rfx from rule-based default", got.Kind)
	}
	if got.Source != "default" {
		t.Errorf("source = %s, want default", got.Source)
	}
}

func TestClassifyAIErrorFallsBack(t *testing.T) {
	ai := &fakeClassifier{err: errors.New("model unavailable")}
	svc := NewService(ai, time.Second)

	got := svc.ClassifySubject(context.Background(), "RFP for cloud hosting")
	if got.Kind != domain.KindRFx {
		t.Errorf("kind = %s, want rfx", got.Kind)
	}
}

func TestClassifyAIUnknownKindFallsBack(t *testing.T) {
	ai := &fakeClassifier{analysis: &out.SubjectAnalysis{
		Kind:       domain.Kind("spam"),
		Confidence: 0.99,
	}}
	svc := NewService(ai, time.Second)

	got := svc.ClassifySubject(context.Background(), "Quarterly catering quote")
	if got.Kind != domain.KindRFx {
		t.Errorf("kind = %s, want rfx", got.Kind)
	}
}

func TestClassifyNilClassifier(t *testing.T) {
	svc := NewService(nil, time.Second)

	tests := []struct {
		subject string
		want    domain.Kind
	}{
		{"Request for quotation: desks", domain.KindRFx},
		{"Let's negotiate the price", domain.KindNegotiation},
		{"Hello there", domain.KindRFx},
		{"", domain.KindRFx},
	}

	for _, tt := range tests {
		got := svc.ClassifySubject(context.Background(), tt.subject)
		if got.Kind != tt.want {
			t.Errorf("ClassifySubject(%q) = %s, want %s", tt.subject, got.Kind, tt.want)
		}
	}
}
