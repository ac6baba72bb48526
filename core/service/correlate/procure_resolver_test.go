package correlate

import (
	"context"
	"errors"
	"testing"
	"time"

	"procure_server/core/domain"

	"github.com/google/uuid"
)

type fakeTrackingRepo struct {
	records map[string]*domain.TrackingRecord
	err     error
}

func (f *fakeTrackingRepo) Create(ctx context.Context, rec *domain.TrackingRecord) error {
	if f.records == nil {
		f.records = make(map[string]*domain.TrackingRecord)
	}
	f.records[rec.TrackingID] = rec
	return nil
}

func (f *fakeTrackingRepo) GetByTrackingID(ctx context.Context, trackingID string) (*domain.TrackingRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[trackingID], nil
}

func newTrackingRecord(trackingID string, threadID int64, kind domain.Kind) *domain.TrackingRecord {
	return &domain.TrackingRecord{
		ID:         uuid.New(),
		TrackingID: trackingID,
		RequestID:  7,
		ThreadID:   threadID,
		UserID:     uuid.New(),
		Kind:       kind,
		SentAt:     time.Now(),
	}
}

func TestResolveBracketedSubject(t *testing.T) {
	repo := &fakeTrackingRepo{records: map[string]*domain.TrackingRecord{
		"rfx-7-42-1700000000000": newTrackingRecord("rfx-7-42-1700000000000", 42, domain.KindRFx),
	}}
	r := NewResolver(repo)

	res, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote [rfx-7-42-1700000000000]",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.ThreadID != 42 {
		t.Errorf("thread id = %d, want 42", res.ThreadID)
	}
	if res.Kind != domain.KindRFx {
		t.Errorf("kind = %s, want rfx", res.Kind)
	}
}

func TestResolveBareSubject(t *testing.T) {
	repo := &fakeTrackingRepo{records: map[string]*domain.TrackingRecord{
		"negotiation-3-9-1700000000001": newTrackingRecord("negotiation-3-9-1700000000001", 9, domain.KindNegotiation),
	}}
	r := NewResolver(repo)

	res, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: negotiation-3-9-1700000000001 pricing",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.ThreadID != 9 || res.Kind != domain.KindNegotiation {
		t.Errorf("got {%d %s}, want {9 negotiation}", res.ThreadID, res.Kind)
	}
}

func TestResolveHeaderFallback(t *testing.T) {
	repo := &fakeTrackingRepo{records: map[string]*domain.TrackingRecord{
		"rfx-7-42-1700000000000": newTrackingRecord("rfx-7-42-1700000000000", 42, domain.KindRFx),
	}}
	r := NewResolver(repo)

	res, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote",
		Headers: map[string]string{"x-rfx-id": "rfx-7-42-1700000000000"},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.ThreadID != 42 {
		t.Errorf("thread id = %d, want 42", res.ThreadID)
	}
}

func TestResolveFieldScan(t *testing.T) {
	repo := &fakeTrackingRepo{records: map[string]*domain.TrackingRecord{
		"rfx-7-42-1700000000000": newTrackingRecord("rfx-7-42-1700000000000", 42, domain.KindRFx),
	}}
	r := NewResolver(repo)

	res, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote",
		Fields: map[string]string{
			"spam_report": "clean",
			"references":  "reply to rfx-7-42-1700000000000 thread",
		},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.ThreadID != 42 {
		t.Errorf("thread id = %d, want 42", res.ThreadID)
	}
}

func TestResolveTrackingKindWins(t *testing.T) {
	// Token says rfx but the record stored at send time says negotiation.
	repo := &fakeTrackingRepo{records: map[string]*domain.TrackingRecord{
		"rfx-7-42-1700000000000": newTrackingRecord("rfx-7-42-1700000000000", 42, domain.KindNegotiation),
	}}
	r := NewResolver(repo)

	res, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote [rfx-7-42-1700000000000]",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Kind != domain.KindNegotiation {
		t.Errorf("kind = %s, want negotiation from tracking record", res.Kind)
	}
}

func TestResolveNoToken(t *testing.T) {
	r := NewResolver(&fakeTrackingRepo{})

	_, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Hello with no token",
		Text:    "Just checking in.",
	})

	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedError", err)
	}
	if unresolved.RecoveredToken != "" {
		t.Errorf("recovered token = %q, want empty", unresolved.RecoveredToken)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	r := NewResolver(&fakeTrackingRepo{})

	_, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote [rfx-1-2-3]",
	})

	var unresolved *UnresolvedError
	if !errors.As(err, &unresolved) {
		t.Fatalf("error = %v, want *UnresolvedError", err)
	}
	if unresolved.RecoveredToken != "rfx-1-2-3" {
		t.Errorf("recovered token = %q, want rfx-1-2-3", unresolved.RecoveredToken)
	}
}

func TestResolveStorageError(t *testing.T) {
	repo := &fakeTrackingRepo{err: errors.New("connection refused")}
	r := NewResolver(repo)

	_, err := r.Resolve(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote [rfx-1-2-3]",
	})

	var unresolved *UnresolvedError
	if errors.As(err, &unresolved) {
		t.Fatal("storage error must not be reported as unresolved")
	}
	if err == nil {
		t.Fatal("expected error")
	}
}
