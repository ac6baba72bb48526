// Package correlate maps an inbound email payload back to the conversation
// that produced it. Token recovery runs an ordered list of named strategies;
// the first hit is then verified against the tracking store.
package correlate

import (
	"context"
	"fmt"
	"strings"

	"procure_server/core/domain"
	"procure_server/core/port/out"
	"procure_server/core/service/track"
	"procure_server/pkg/logger"

	"github.com/google/uuid"
)

// Candidate is a tracking id recovered from the payload before verification.
type Candidate struct {
	TrackingID string
	Kind       domain.Kind
	Source     string
}

// Strategy attempts to recover a tracking id from one part of the payload.
type Strategy interface {
	Name() string
	TryResolve(email *domain.InboundEmail) (Candidate, bool)
}

// Resolution is a verified correlation result.
type Resolution struct {
	TrackingID string
	ThreadID   int64
	RequestID  int64
	UserID     uuid.UUID
	Kind       domain.Kind
}

// UnresolvedError reports that no conversation could be found. When a token
// was recovered but had no tracking record, it is attached for diagnosis.
type UnresolvedError struct {
	RecoveredToken string
	Reason         string
}

func (e *UnresolvedError) Error() string {
	if e.RecoveredToken != "" {
		return fmt.Sprintf("unresolved: %s (recovered token %s)", e.Reason, e.RecoveredToken)
	}
	return "unresolved: " + e.Reason
}

// kindFromTrackingID infers kind from a token prefix when nothing more
// explicit is available.
func kindFromTrackingID(trackingID string) domain.Kind {
	if strings.HasPrefix(trackingID, string(domain.KindNegotiation)) {
		return domain.KindNegotiation
	}
	return domain.KindRFx
}

type bracketedSubjectStrategy struct{}

func (bracketedSubjectStrategy) Name() string { return "bracketed-subject" }

func (bracketedSubjectStrategy) TryResolve(email *domain.InboundEmail) (Candidate, bool) {
	tok, ok := track.DecodeBracketed(email.Subject)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{TrackingID: tok.String(), Kind: tok.Kind, Source: "bracketed-subject"}, true
}

type bareSubjectStrategy struct{}

func (bareSubjectStrategy) Name() string { return "bare-subject" }

func (bareSubjectStrategy) TryResolve(email *domain.InboundEmail) (Candidate, bool) {
	tok, ok := track.DecodeBare(email.Subject)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{TrackingID: tok.String(), Kind: tok.Kind, Source: "bare-subject"}, true
}

// headerStrategy reads the correlation headers the dispatcher sets on every
// outbound message. The header value is taken verbatim, and an explicit kind
// header overrides the token-derived kind.
type headerStrategy struct{}

func (headerStrategy) Name() string { return "header" }

func (headerStrategy) TryResolve(email *domain.InboundEmail) (Candidate, bool) {
	trackingID := strings.TrimSpace(email.HeaderValue("X-RFx-ID"))
	if trackingID == "" {
		return Candidate{}, false
	}
	kind := kindFromTrackingID(trackingID)
	if headerKind := domain.Kind(strings.TrimSpace(email.HeaderValue("X-Email-Type"))); headerKind.IsValid() {
		kind = headerKind
	}
	return Candidate{TrackingID: trackingID, Kind: kind, Source: "header"}, true
}

// fieldScanStrategy brute-forces every payload field value. Diagnostic-grade
// fallback for providers that relocate data unpredictably.
type fieldScanStrategy struct{}

func (fieldScanStrategy) Name() string { return "field-scan" }

func (fieldScanStrategy) TryResolve(email *domain.InboundEmail) (Candidate, bool) {
	for _, value := range email.Fields {
		if !strings.Contains(value, "rfx-") && !strings.Contains(value, "negotiation-") {
			continue
		}
		if tok, ok := track.DecodeBare(value); ok {
			return Candidate{TrackingID: tok.String(), Kind: tok.Kind, Source: "field-scan"}, true
		}
	}
	return Candidate{}, false
}

// Resolver verifies recovered tokens against the tracking store.
type Resolver struct {
	trackingRepo out.TrackingRepository
	strategies   []Strategy
	log          *logger.Logger
}

// NewResolver creates a resolver with the default strategy chain.
func NewResolver(trackingRepo out.TrackingRepository) *Resolver {
	return &Resolver{
		trackingRepo: trackingRepo,
		strategies: []Strategy{
			bracketedSubjectStrategy{},
			bareSubjectStrategy{},
			headerStrategy{},
			fieldScanStrategy{},
		},
		log: logger.WithField("component", "correlate"),
	}
}

// Recover runs the strategy chain without touching storage.
func (r *Resolver) Recover(email *domain.InboundEmail) (Candidate, bool) {
	for _, s := range r.strategies {
		if c, ok := s.TryResolve(email); ok {
			r.log.WithFields(map[string]any{
				"strategy":    s.Name(),
				"tracking_id": c.TrackingID,
			}).Debug("recovered tracking id")
			return c, true
		}
	}
	return Candidate{}, false
}

// Resolve recovers a tracking id from the payload and looks up its tracking
// record. Returns *UnresolvedError when no conversation can be determined;
// other errors indicate storage failure.
func (r *Resolver) Resolve(ctx context.Context, email *domain.InboundEmail) (*Resolution, error) {
	candidate, ok := r.Recover(email)
	if !ok {
		return nil, &UnresolvedError{Reason: "no tracking token found in payload"}
	}

	rec, err := r.trackingRepo.GetByTrackingID(ctx, candidate.TrackingID)
	if err != nil {
		return nil, fmt.Errorf("tracking lookup for %s: %w", candidate.TrackingID, err)
	}
	if rec == nil {
		return nil, &UnresolvedError{
			RecoveredToken: candidate.TrackingID,
			Reason:         "tracking record not found",
		}
	}

	// The kind stored at send time wins over anything inferred from the
	// inbound payload.
	kind := candidate.Kind
	if rec.Kind.IsValid() {
		kind = rec.Kind
	}

	return &Resolution{
		TrackingID: rec.TrackingID,
		ThreadID:   rec.ThreadID,
		RequestID:  rec.RequestID,
		UserID:     rec.UserID,
		Kind:       kind,
	}, nil
}
