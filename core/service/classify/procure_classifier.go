// Package classify decides whether a subject line belongs to a quotation
// request or a negotiation. Cheap keyword rules run first; the AI model is
// only consulted for ambiguous subjects, and its answer is only trusted
// above a confidence threshold.
package classify

import (
	"context"
	"strings"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/pkg/logger"
)

// negotiationKeywords fire the high-precision rule. Any hit classifies the
// subject as negotiation without touching the model.
var negotiationKeywords = []string{
	"negotiate",
	"negotiation",
	"counter",
	"offer",
	"proposal",
	"price discussion",
	"budget",
}

// rfxKeywords drive the rule-based default when the model is unavailable or
// unsure.
var rfxKeywords = []string{
	"request for quotation",
	"rfx",
	"rfp",
	"rfi",
}

const (
	keywordConfidence = 0.95
	aiThreshold       = 0.7
	defaultConfidence = 0.5
)

type service struct {
	classifier out.SubjectClassifier
	timeout    time.Duration
	log        *logger.Logger
}

// NewService creates the classification service. classifier may be nil, in
// which case every ambiguous subject falls through to the rule-based default.
func NewService(classifier out.SubjectClassifier, timeout time.Duration) in.ClassifyService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &service{
		classifier: classifier,
		timeout:    timeout,
		log:        logger.WithField("component", "classify"),
	}
}

func (s *service) ClassifySubject(ctx context.Context, subject string) *in.Classification {
	if strings.TrimSpace(subject) == "" {
		return &in.Classification{
			Kind:       domain.KindRFx,
			Confidence: 0,
			Reasoning:  "No subject provided, defaulting to rfx",
			Source:     "default",
		}
	}

	subjectLower := strings.ToLower(subject)

	for _, keyword := range negotiationKeywords {
		if strings.Contains(subjectLower, keyword) {
			return &in.Classification{
				Kind:       domain.KindNegotiation,
				Confidence: keywordConfidence,
				Reasoning:  "Subject contains explicit negotiation terms",
				Source:     "keyword",
			}
		}
	}

	if s.classifier != nil {
		aiCtx, cancel := context.WithTimeout(ctx, s.timeout)
		analysis, err := s.classifier.AnalyzeSubject(aiCtx, subject)
		cancel()

		switch {
		case err != nil:
			s.log.WithError(err).Warn("AI subject analysis failed, using rule-based default")
		case !analysis.Kind.IsValid():
			s.log.WithField("type", string(analysis.Kind)).Warn("AI returned unknown type, using rule-based default")
		case analysis.Confidence <= aiThreshold:
			s.log.WithField("confidence", analysis.Confidence).Debug("AI confidence below threshold, using rule-based default")
		default:
			return &in.Classification{
				Kind:       analysis.Kind,
				Confidence: analysis.Confidence,
				Reasoning:  analysis.Reasoning,
				Source:     "ai",
			}
		}
	}

	return s.ruleDefault(subjectLower)
}

// ruleDefault is the terminal fallback. It never fails.
func (s *service) ruleDefault(subjectLower string) *in.Classification {
	kind := domain.KindRFx
	reasoning := "No classification signal found, defaulting to rfx"

	if strings.Contains(subjectLower, "negotiate") || strings.Contains(subjectLower, "negotiation") {
		kind = domain.KindNegotiation
		reasoning = "Subject matched negotiation keyword rule"
	} else {
		for _, keyword := range rfxKeywords {
			if strings.Contains(subjectLower, keyword) {
				reasoning = "Subject matched rfx keyword rule"
				break
			}
		}
	}

	return &in.Classification{
		Kind:       kind,
		Confidence: defaultConfidence,
		Reasoning:  reasoning,
		Source:     "default",
	}
}
