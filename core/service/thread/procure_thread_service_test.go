package thread

import (
	"context"
	"testing"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/pkg/apperr"
)

type fakeThreadRepo struct {
	threads map[int64]*domain.Thread
	nextID  int64
}

func (f *fakeThreadRepo) Create(ctx context.Context, t *domain.Thread) error {
	if f.threads == nil {
		f.threads = make(map[int64]*domain.Thread)
	}
	f.nextID++
	t.ID = f.nextID
	f.threads[t.ID] = t
	return nil
}

func (f *fakeThreadRepo) GetByID(ctx context.Context, id int64) (*domain.Thread, error) {
	return f.threads[id], nil
}

func (f *fakeThreadRepo) List(ctx context.Context, requestID int64, limit, offset int) ([]*domain.Thread, int, error) {
	var all []*domain.Thread
	for _, t := range f.threads {
		all = append(all, t)
	}
	return all, len(all), nil
}

func (f *fakeThreadRepo) UpdateStatus(ctx context.Context, id int64, status domain.ThreadStatus) error {
	f.threads[id].Status = status
	return nil
}

func (f *fakeThreadRepo) UpdateAfterInbound(ctx context.Context, id int64, status domain.ThreadStatus, kind domain.Kind) error {
	return nil
}

func (f *fakeThreadRepo) UpdateAfterDispatch(ctx context.Context, id int64, status domain.ThreadStatus) error {
	return nil
}

func (f *fakeThreadRepo) MarkRead(ctx context.Context, id int64) error {
	f.threads[id].Unread = false
	return nil
}

type fakeMessageRepo struct {
	messages []*domain.Message
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) ListByThread(ctx context.Context, threadID int64) ([]*domain.Message, error) {
	var msgs []*domain.Message
	for _, m := range f.messages {
		if m.ThreadID == threadID {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}

type fakeNegotiationRepo struct {
	byThread map[int64]*domain.NegotiationSettings
}

func (f *fakeNegotiationRepo) Create(ctx context.Context, s *domain.NegotiationSettings) error {
	if f.byThread == nil {
		f.byThread = make(map[int64]*domain.NegotiationSettings)
	}
	f.byThread[s.ThreadID] = s
	return nil
}

func (f *fakeNegotiationRepo) GetByThreadID(ctx context.Context, threadID int64) (*domain.NegotiationSettings, error) {
	return f.byThread[threadID], nil
}

func (f *fakeNegotiationRepo) Update(ctx context.Context, s *domain.NegotiationSettings) error {
	return nil
}

func (f *fakeNegotiationRepo) ListAll(ctx context.Context) ([]*domain.NegotiationSettings, error) {
	return nil, nil
}

func TestCreateThread(t *testing.T) {
	repo := &fakeThreadRepo{}
	svc := NewService(repo, &fakeMessageRepo{}, &fakeNegotiationRepo{}, nil)

	created, err := svc.CreateThread(context.Background(), &in.CreateThreadRequest{
		RequestID:  7,
		VendorName: "Acme Supplies",
		Subject:    "Office chairs",
	})
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("thread id not assigned")
	}
	if created.Kind != domain.KindRFx {
		t.Errorf("kind = %s, want rfx default", created.Kind)
	}
}

func TestCreateThreadValidation(t *testing.T) {
	svc := NewService(&fakeThreadRepo{}, &fakeMessageRepo{}, &fakeNegotiationRepo{}, nil)

	if _, err := svc.CreateThread(context.Background(), &in.CreateThreadRequest{Subject: "x"}); err == nil {
		t.Error("expected error for missing vendor name")
	}
	if _, err := svc.CreateThread(context.Background(), &in.CreateThreadRequest{VendorName: "Acme"}); err == nil {
		t.Error("expected error for missing subject")
	}
}

func TestCreateNegotiationThread(t *testing.T) {
	threads := &fakeThreadRepo{}
	messages := &fakeMessageRepo{}
	settings := &fakeNegotiationRepo{}
	svc := NewService(threads, messages, settings, nil)

	created, err := svc.CreateNegotiationThread(context.Background(), &in.CreateNegotiationThreadRequest{
		RequestID:      7,
		VendorName:     "Acme Supplies",
		Subject:        "Negotiation: chairs",
		MinBudget:      5000,
		MaxBudget:      10000,
		TargetBudget:   8000,
		OpeningMessage: "We'd like to discuss pricing.",
	})
	if err != nil {
		t.Fatalf("CreateNegotiationThread() error = %v", err)
	}

	if created.Kind != domain.KindNegotiation {
		t.Errorf("kind = %s, want negotiation", created.Kind)
	}
	if created.Status != domain.StatusNegotiating {
		t.Errorf("status = %s, want negotiating", created.Status)
	}

	stored := settings.byThread[created.ID]
	if stored == nil {
		t.Fatal("negotiation settings not created")
	}
	if stored.TargetBudget != 8000 {
		t.Errorf("target budget = %v, want 8000", stored.TargetBudget)
	}

	msgs, _ := messages.ListByThread(context.Background(), created.ID)
	if len(msgs) != 1 || msgs[0].Sender != domain.SenderYou {
		t.Errorf("opening message = %+v, want one from you", msgs)
	}
}

func TestCreateNegotiationThreadBudgetValidation(t *testing.T) {
	svc := NewService(&fakeThreadRepo{}, &fakeMessageRepo{}, &fakeNegotiationRepo{}, nil)

	_, err := svc.CreateNegotiationThread(context.Background(), &in.CreateNegotiationThreadRequest{
		VendorName: "Acme",
		Subject:    "Negotiation",
		MinBudget:  10,
		MaxBudget:  5,
	})
	if err == nil {
		t.Error("expected error for inverted budget range")
	}
}

func TestGetThreadWithMessages(t *testing.T) {
	threads := &fakeThreadRepo{}
	messages := &fakeMessageRepo{}
	svc := NewService(threads, messages, &fakeNegotiationRepo{}, nil)

	created, err := svc.CreateThread(context.Background(), &in.CreateThreadRequest{
		VendorName: "Acme",
		Subject:    "Chairs",
	})
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	messages.messages = append(messages.messages, &domain.Message{ThreadID: created.ID, Sender: domain.SenderYou, Text: "hi"})

	detail, err := svc.GetThread(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if detail.Thread.ID != created.ID || len(detail.Messages) != 1 {
		t.Errorf("detail = %+v", detail)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	svc := NewService(&fakeThreadRepo{}, &fakeMessageRepo{}, &fakeNegotiationRepo{}, nil)

	err := svc.MarkRead(context.Background(), 404)
	if appErr := apperr.AsAppError(err); appErr == nil || appErr.HTTPStatus() != 404 {
		t.Errorf("error = %v, want not-found app error", err)
	}
}
