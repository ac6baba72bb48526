package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/core/service/classify"
	"procure_server/core/service/correlate"
	"procure_server/pkg/apperr"
	"procure_server/pkg/snowflake"

	"github.com/google/uuid"
)

type fakeThreadRepo struct {
	threads map[int64]*domain.Thread
	err     error
}

func (f *fakeThreadRepo) Create(ctx context.Context, t *domain.Thread) error {
	if f.threads == nil {
		f.threads = make(map[int64]*domain.Thread)
	}
	f.threads[t.ID] = t
	return nil
}

func (f *fakeThreadRepo) GetByID(ctx context.Context, id int64) (*domain.Thread, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.threads[id], nil
}

func (f *fakeThreadRepo) List(ctx context.Context, requestID int64, limit, offset int) ([]*domain.Thread, int, error) {
	return nil, 0, nil
}

func (f *fakeThreadRepo) UpdateStatus(ctx context.Context, id int64, status domain.ThreadStatus) error {
	f.threads[id].Status = status
	return nil
}

func (f *fakeThreadRepo) UpdateAfterInbound(ctx context.Context, id int64, status domain.ThreadStatus, kind domain.Kind) error {
	t, ok := f.threads[id]
	if !ok {
		return errors.New("thread not found")
	}
	t.Status = status
	t.Kind = kind
	t.Unread = true
	t.UpdatedAt = time.Now()
	return nil
}

func (f *fakeThreadRepo) UpdateAfterDispatch(ctx context.Context, id int64, status domain.ThreadStatus) error {
	t, ok := f.threads[id]
	if !ok {
		return errors.New("thread not found")
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (f *fakeThreadRepo) MarkRead(ctx context.Context, id int64) error {
	f.threads[id].Unread = false
	return nil
}

type fakeMessageRepo struct {
	messages []*domain.Message
	err      error
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if f.err != nil {
		return f.err
	}
	m.ID = int64(len(f.messages) + 1)
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

type fakeTrackingRepo struct {
	records map[string]*domain.TrackingRecord
	err     error
}

func (f *fakeTrackingRepo) Create(ctx context.Context, rec *domain.TrackingRecord) error {
	if f.err != nil {
		return f.err
	}
	if f.records == nil {
		f.records = make(map[string]*domain.TrackingRecord)
	}
	f.records[rec.TrackingID] = rec
	return nil
}

func (f *fakeTrackingRepo) GetByTrackingID(ctx context.Context, trackingID string) (*domain.TrackingRecord, error) {
	return f.records[trackingID], nil
}

type fakeReplyRepo struct {
	replies []*domain.ReplyRecord
}

func (f *fakeReplyRepo) Create(ctx context.Context, rec *domain.ReplyRecord) error {
	f.replies = append(f.replies, rec)
	return nil
}

func (f *fakeReplyRepo) ListByThread(ctx context.Context, threadID int64, limit, offset int) ([]*domain.ReplyRecord, int, error) {
	return f.replies, len(f.replies), nil
}

type fakeMailer struct {
	sent []*out.OutboundEmail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, email *out.OutboundEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

func newTestGenerator(t *testing.T) *snowflake.Generator {
	t.Helper()
	gen, err := snowflake.NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen
}

func newDispatcher(threads *fakeThreadRepo, messages *fakeMessageRepo, tracking *fakeTrackingRepo, mailer *fakeMailer) in.DispatchService {
	cfg := DispatcherConfig{
		FromEmail: "sourcing@procureflow.io",
		FromName:  "ProcureFlow",
		ReplyTo:   "parse@inbound.procureflow.io",
	}
	return NewDispatcher(cfg, threads, messages, tracking, mailer, classify.NewService(nil, time.Second), nil)
}

func seedThread(id int64, kind domain.Kind) *fakeThreadRepo {
	return &fakeThreadRepo{threads: map[int64]*domain.Thread{
		id: {
			ID:         id,
			RequestID:  7,
			VendorName: "Acme Supplies",
			Subject:    "Office chairs",
			Status:     domain.StatusAwaitingReply,
			Kind:       kind,
		},
	}}
}

func TestDispatcherSendEmail(t *testing.T) {
	threads := seedThread(42, domain.KindRFx)
	messages := &fakeMessageRepo{}
	tracking := &fakeTrackingRepo{}
	mailer := &fakeMailer{}
	svc := newDispatcher(threads, messages, tracking, mailer)

	res, err := svc.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 7,
		ThreadID:  42,
		UserID:    uuid.New(),
		To:        "sales@acme.com",
		Subject:   "Request for Quotation: Chairs",
		Text:      "Please quote 100 chairs.",
	})
	if err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}

	if !strings.HasPrefix(res.TrackingID, "rfx-7-42-") {
		t.Errorf("tracking id = %q, want rfx-7-42-* prefix", res.TrackingID)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}

	sent := mailer.sent[0]
	if !strings.Contains(sent.Subject, "["+res.TrackingID+"]") {
		t.Errorf("subject %q does not carry bracketed token", sent.Subject)
	}
	if sent.Headers["X-RFx-ID"] != res.TrackingID {
		t.Errorf("X-RFx-ID = %q, want %q", sent.Headers["X-RFx-ID"], res.TrackingID)
	}
	if sent.Headers["X-Thread-ID"] != "42" || sent.Headers["X-RFx-Request"] != "7" {
		t.Errorf("correlation headers = %v", sent.Headers)
	}
	if sent.Headers["X-Email-Type"] != "rfx" {
		t.Errorf("X-Email-Type = %q, want rfx", sent.Headers["X-Email-Type"])
	}

	if tracking.records[res.TrackingID] == nil {
		t.Error("tracking record not persisted")
	}
	if len(messages.messages) != 1 || messages.messages[0].Sender != domain.SenderYou {
		t.Errorf("messages = %+v, want one from you", messages.messages)
	}
	if threads.threads[42].Status != domain.StatusAwaitingReply {
		t.Errorf("thread status = %s, want awaiting-reply", threads.threads[42].Status)
	}
}

func TestDispatcherClassifiesWhenKindMissing(t *testing.T) {
	threads := seedThread(9, domain.KindRFx)
	mailer := &fakeMailer{}
	svc := newDispatcher(threads, &fakeMessageRepo{}, &fakeTrackingRepo{}, mailer)

	res, err := svc.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 3,
		ThreadID:  9,
		To:        "sales@acme.com",
		Subject:   "Counter offer on desks",
		Text:      "We propose $90 per unit.",
	})
	if err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}
	if res.Kind != domain.KindNegotiation {
		t.Errorf("kind = %s, want negotiation from classifier", res.Kind)
	}
	if !strings.HasPrefix(res.TrackingID, "negotiation-3-9-") {
		t.Errorf("tracking id = %q, want negotiation prefix", res.TrackingID)
	}
}

func TestDispatcherMissingThread(t *testing.T) {
	mailer := &fakeMailer{}
	svc := newDispatcher(&fakeThreadRepo{}, &fakeMessageRepo{}, &fakeTrackingRepo{}, mailer)

	_, err := svc.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 1,
		ThreadID:  999,
		To:        "sales@acme.com",
		Subject:   "Quote",
	})
	if err == nil {
		t.Fatal("expected error for missing thread")
	}
	if appErr := apperr.AsAppError(err); appErr == nil || appErr.HTTPStatus() != 404 {
		t.Errorf("error = %v, want not-found app error", err)
	}
	if len(mailer.sent) != 0 {
		t.Error("email sent despite missing thread")
	}
}

func TestDispatcherSendFailure(t *testing.T) {
	threads := seedThread(42, domain.KindRFx)
	tracking := &fakeTrackingRepo{}
	mailer := &fakeMailer{err: errors.New("provider rejected")}
	svc := newDispatcher(threads, &fakeMessageRepo{}, tracking, mailer)

	_, err := svc.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 7,
		ThreadID:  42,
		To:        "sales@acme.com",
		Subject:   "Quote",
	})
	if err == nil {
		t.Fatal("expected error when provider rejects")
	}
	if len(tracking.records) != 0 {
		t.Error("tracking record written for failed send")
	}
}

func TestDispatcherTrackingWriteFailureIsNonFatal(t *testing.T) {
	threads := seedThread(42, domain.KindRFx)
	tracking := &fakeTrackingRepo{err: errors.New("insert failed")}
	svc := newDispatcher(threads, &fakeMessageRepo{}, tracking, &fakeMailer{})

	res, err := svc.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 7,
		ThreadID:  42,
		To:        "sales@acme.com",
		Subject:   "Quote",
		Text:      "body",
	})
	if err != nil {
		t.Fatalf("SendEmail() error = %v, want success despite tracking failure", err)
	}
	if res.TrackingID == "" {
		t.Error("empty tracking id")
	}
}

func TestInboundEndToEnd(t *testing.T) {
	threads := seedThread(42, domain.KindRFx)
	messages := &fakeMessageRepo{}
	tracking := &fakeTrackingRepo{}
	replies := &fakeReplyRepo{}
	dispatch := newDispatcher(threads, messages, tracking, &fakeMailer{})

	sendRes, err := dispatch.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 7,
		ThreadID:  42,
		UserID:    uuid.New(),
		To:        "sales@acme.com",
		Subject:   "Request for Quotation: Chairs",
		Text:      "Please quote 100 chairs.",
	})
	if err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}

	inbound := NewInboundService(
		correlate.NewResolver(tracking),
		threads, messages, replies, nil, nil,
		newTestGenerator(t),
	)

	res, err := inbound.ProcessInbound(context.Background(), &domain.InboundEmail{
		Subject: "Re: Request for Quotation: Chairs [" + sendRes.TrackingID + "]",
		From:    "Acme Sales <sales@acme.com>",
		Text:    "We can do $85 per chair.\n\nOn Jan 1, 2024, ProcureFlow wrote:\n> Please quote 100 chairs.",
	})
	if err != nil {
		t.Fatalf("ProcessInbound() error = %v", err)
	}

	if !res.Success {
		t.Fatalf("result = %+v, want success", res)
	}
	if res.ThreadID != 42 || res.TrackingID != sendRes.TrackingID {
		t.Errorf("correlated to {%d %s}, want {42 %s}", res.ThreadID, res.TrackingID, sendRes.TrackingID)
	}

	if len(replies.replies) != 1 {
		t.Fatalf("reply records = %d, want 1", len(replies.replies))
	}
	reply := replies.replies[0]
	if reply.SenderEmail != "sales@acme.com" {
		t.Errorf("sender = %q, want bare address", reply.SenderEmail)
	}
	if reply.TextContent != "We can do $85 per chair." {
		t.Errorf("reply text = %q, want quoted history stripped", reply.TextContent)
	}
	if reply.Subject != "Re: Request for Quotation: Chairs" {
		t.Errorf("subject = %q, want token stripped", reply.Subject)
	}

	vendorMsgs, _ := messages.ListByThread(context.Background(), 42)
	if len(vendorMsgs) != 2 {
		t.Fatalf("messages = %d, want outbound plus vendor reply", len(vendorMsgs))
	}
	if vendorMsgs[1].Sender != domain.SenderVendor {
		t.Errorf("second message sender = %s, want vendor", vendorMsgs[1].Sender)
	}

	thread := threads.threads[42]
	if thread.Status != domain.StatusResponded {
		t.Errorf("thread status = %s, want responded", thread.Status)
	}
	if !thread.Unread {
		t.Error("thread not flagged unread")
	}
}

func TestInboundUnresolvedStillAudits(t *testing.T) {
	replies := &fakeReplyRepo{}
	inbound := NewInboundService(
		correlate.NewResolver(&fakeTrackingRepo{}),
		&fakeThreadRepo{}, &fakeMessageRepo{}, replies, nil, nil,
		newTestGenerator(t),
	)

	res, err := inbound.ProcessInbound(context.Background(), &domain.InboundEmail{
		Subject: "Hello with no token",
		From:    "someone@example.com",
		Text:    "Untracked message.",
	})
	if err != nil {
		t.Fatalf("ProcessInbound() error = %v", err)
	}
	if res.Success {
		t.Error("unresolved delivery reported success")
	}
	if res.Error == "" {
		t.Error("missing diagnostic error string")
	}
	if len(replies.replies) != 1 {
		t.Fatalf("reply records = %d, want orphan audit row", len(replies.replies))
	}
	if replies.replies[0].TrackingID != "" {
		t.Errorf("orphan tracking id = %q, want empty", replies.replies[0].TrackingID)
	}
}

func TestInboundUnknownTokenKeepsRecoveredToken(t *testing.T) {
	replies := &fakeReplyRepo{}
	inbound := NewInboundService(
		correlate.NewResolver(&fakeTrackingRepo{}),
		&fakeThreadRepo{}, &fakeMessageRepo{}, replies, nil, nil,
		newTestGenerator(t),
	)

	res, err := inbound.ProcessInbound(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote [rfx-1-2-3]",
		From:    "someone@example.com",
		Text:    "Reply to a send we have no record of.",
	})
	if err != nil {
		t.Fatalf("ProcessInbound() error = %v", err)
	}
	if res.Success {
		t.Error("unknown token reported success")
	}
	if res.TrackingID != "rfx-1-2-3" {
		t.Errorf("tracking id = %q, want recovered token for diagnosis", res.TrackingID)
	}
	if len(replies.replies) != 1 || replies.replies[0].TrackingID != "rfx-1-2-3" {
		t.Errorf("orphan audit row missing recovered token: %+v", replies.replies)
	}
}

func TestInboundMessageWriteFailureKeepsAudit(t *testing.T) {
	threads := seedThread(42, domain.KindRFx)
	tracking := &fakeTrackingRepo{}
	replies := &fakeReplyRepo{}
	dispatch := newDispatcher(threads, &fakeMessageRepo{}, tracking, &fakeMailer{})

	sendRes, err := dispatch.SendEmail(context.Background(), &in.SendEmailRequest{
		RequestID: 7,
		ThreadID:  42,
		To:        "sales@acme.com",
		Subject:   "Quote",
		Text:      "body",
	})
	if err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}

	failing := &fakeMessageRepo{err: errors.New("insert failed")}
	inbound := NewInboundService(
		correlate.NewResolver(tracking),
		threads, failing, replies, nil, nil,
		newTestGenerator(t),
	)

	res, err := inbound.ProcessInbound(context.Background(), &domain.InboundEmail{
		Subject: "Re: Quote [" + sendRes.TrackingID + "]",
		From:    "sales@acme.com",
		Text:    "Our reply.",
	})
	if err != nil {
		t.Fatalf("ProcessInbound() error = %v", err)
	}
	if !res.Success {
		t.Errorf("result = %+v, want success despite message write failure", res)
	}
	if len(replies.replies) != 1 {
		t.Error("reply audit row missing")
	}
}
