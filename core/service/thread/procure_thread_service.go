// Package thread manages vendor conversation threads.
package thread

import (
	"context"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/pkg/apperr"
	"procure_server/pkg/logger"

	"github.com/google/uuid"
)

type service struct {
	threadRepo      out.ThreadRepository
	messageRepo     out.MessageRepository
	negotiationRepo out.NegotiationRepository
	realtime        out.RealtimePort
	now             func() time.Time
	log             *logger.Logger
}

// NewService creates the thread service. realtime may be nil.
func NewService(
	threadRepo out.ThreadRepository,
	messageRepo out.MessageRepository,
	negotiationRepo out.NegotiationRepository,
	realtime out.RealtimePort,
) in.ThreadService {
	return &service{
		threadRepo:      threadRepo,
		messageRepo:     messageRepo,
		negotiationRepo: negotiationRepo,
		realtime:        realtime,
		now:             time.Now,
		log:             logger.WithField("component", "thread"),
	}
}

func (s *service) CreateThread(ctx context.Context, req *in.CreateThreadRequest) (*domain.Thread, error) {
	if req.VendorName == "" {
		return nil, apperr.MissingField("vendor_name")
	}
	if req.Subject == "" {
		return nil, apperr.MissingField("subject")
	}

	kind := req.Kind
	if !kind.IsValid() {
		kind = domain.KindRFx
	}

	now := s.now()
	thread := &domain.Thread{
		RequestID:   req.RequestID,
		VendorName:  req.VendorName,
		VendorEmail: req.VendorEmail,
		Subject:     req.Subject,
		Status:      domain.StatusAwaitingReply,
		Unread:      false,
		Kind:        kind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return nil, apperr.DatabaseError("create thread", err)
	}

	s.broadcast(ctx, thread)
	return thread, nil
}

// CreateNegotiationThread creates a negotiation thread together with its
// budget settings and an optional opening message.
func (s *service) CreateNegotiationThread(ctx context.Context, req *in.CreateNegotiationThreadRequest) (*domain.Thread, error) {
	if req.VendorName == "" {
		return nil, apperr.MissingField("vendor_name")
	}
	if req.Subject == "" {
		return nil, apperr.MissingField("subject")
	}
	if req.MinBudget > req.MaxBudget {
		return nil, apperr.InvalidInput("min_budget", "must not exceed max_budget")
	}

	now := s.now()
	thread := &domain.Thread{
		RequestID:   req.RequestID,
		VendorName:  req.VendorName,
		VendorEmail: req.VendorEmail,
		Subject:     req.Subject,
		Status:      domain.StatusNegotiating,
		Unread:      false,
		Kind:        domain.KindNegotiation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return nil, apperr.DatabaseError("create negotiation thread", err)
	}

	settings := &domain.NegotiationSettings{
		ID:           uuid.New(),
		ThreadID:     thread.ID,
		RequestID:    req.RequestID,
		MinBudget:    req.MinBudget,
		MaxBudget:    req.MaxBudget,
		TargetBudget: req.TargetBudget,
		Status:       domain.NegotiationActive,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.negotiationRepo.Create(ctx, settings); err != nil {
		// The thread exists either way; settings can be recreated from the
		// settings API.
		s.log.WithError(err).WithField("thread_id", thread.ID).Error("failed to store negotiation settings")
	}

	if req.OpeningMessage != "" {
		msg := &domain.Message{
			ThreadID:  thread.ID,
			Sender:    domain.SenderYou,
			Text:      req.OpeningMessage,
			Kind:      domain.KindNegotiation,
			Timestamp: now,
		}
		if err := s.messageRepo.Create(ctx, msg); err != nil {
			s.log.WithError(err).WithField("thread_id", thread.ID).Error("failed to store opening message")
		}
	}

	s.broadcast(ctx, thread)
	return thread, nil
}

func (s *service) GetThread(ctx context.Context, id int64) (*in.ThreadDetail, error) {
	thread, err := s.threadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.DatabaseError("get thread", err)
	}
	if thread == nil {
		return nil, apperr.NotFound("thread")
	}

	messages, err := s.messageRepo.ListByThread(ctx, id)
	if err != nil {
		return nil, apperr.DatabaseError("list messages", err)
	}

	return &in.ThreadDetail{Thread: thread, Messages: messages}, nil
}

func (s *service) ListThreads(ctx context.Context, requestID int64, limit, offset int) ([]*domain.Thread, int, error) {
	threads, total, err := s.threadRepo.List(ctx, requestID, limit, offset)
	if err != nil {
		return nil, 0, apperr.DatabaseError("list threads", err)
	}
	return threads, total, nil
}

func (s *service) MarkRead(ctx context.Context, id int64) error {
	thread, err := s.threadRepo.GetByID(ctx, id)
	if err != nil {
		return apperr.DatabaseError("get thread", err)
	}
	if thread == nil {
		return apperr.NotFound("thread")
	}
	if err := s.threadRepo.MarkRead(ctx, id); err != nil {
		return apperr.DatabaseError("mark thread read", err)
	}
	return nil
}

func (s *service) broadcast(ctx context.Context, thread *domain.Thread) {
	if s.realtime == nil {
		return
	}
	event := &domain.RealtimeEvent{
		Type:      domain.EventThreadUpdated,
		ThreadID:  thread.ID,
		RequestID: thread.RequestID,
		Payload:   thread,
		Timestamp: s.now(),
	}
	if err := s.realtime.Broadcast(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to broadcast thread event")
	}
}
