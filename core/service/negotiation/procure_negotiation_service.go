// Package negotiation manages budget settings and the negotiation state
// derived from a thread's message history.
package negotiation

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/pkg/apperr"
	"procure_server/pkg/logger"

	"github.com/google/uuid"
)

// offerPattern matches money amounts like $85, $4,500 or $1299.50 in
// message bodies.
var offerPattern = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d{1,2})?)`)

type service struct {
	negotiationRepo out.NegotiationRepository
	threadRepo      out.ThreadRepository
	messageRepo     out.MessageRepository
	now             func() time.Time
	log             *logger.Logger
}

// NewService creates the negotiation service.
func NewService(
	negotiationRepo out.NegotiationRepository,
	threadRepo out.ThreadRepository,
	messageRepo out.MessageRepository,
) in.NegotiationService {
	return &service{
		negotiationRepo: negotiationRepo,
		threadRepo:      threadRepo,
		messageRepo:     messageRepo,
		now:             time.Now,
		log:             logger.WithField("component", "negotiation"),
	}
}

func validateBudget(req *in.NegotiationSettingsRequest) error {
	if req.MinBudget > req.MaxBudget {
		return apperr.InvalidInput("min_budget", "must not exceed max_budget")
	}
	if req.TargetBudget < req.MinBudget || req.TargetBudget > req.MaxBudget {
		return apperr.InvalidInput("target_budget", "must lie within the budget range")
	}
	return nil
}

func (s *service) CreateSettings(ctx context.Context, req *in.NegotiationSettingsRequest) (*domain.NegotiationSettings, error) {
	if req.ThreadID == 0 {
		return nil, apperr.MissingField("thread_id")
	}
	if err := validateBudget(req); err != nil {
		return nil, err
	}

	thread, err := s.threadRepo.GetByID(ctx, req.ThreadID)
	if err != nil {
		return nil, apperr.DatabaseError("get thread", err)
	}
	if thread == nil {
		return nil, apperr.NotFound("thread")
	}

	status := req.Status
	if status == "" {
		status = domain.NegotiationActive
	}

	now := s.now()
	settings := &domain.NegotiationSettings{
		ID:            uuid.New(),
		ThreadID:      req.ThreadID,
		RequestID:     req.RequestID,
		MinBudget:     req.MinBudget,
		MaxBudget:     req.MaxBudget,
		TargetBudget:  req.TargetBudget,
		AutoNegotiate: req.AutoNegotiate,
		Status:        status,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.negotiationRepo.Create(ctx, settings); err != nil {
		return nil, apperr.DatabaseError("create negotiation settings", err)
	}
	return settings, nil
}

func (s *service) GetSettings(ctx context.Context, threadID int64) (*domain.NegotiationSettings, error) {
	settings, err := s.negotiationRepo.GetByThreadID(ctx, threadID)
	if err != nil {
		return nil, apperr.DatabaseError("get negotiation settings", err)
	}
	if settings == nil {
		return nil, apperr.NotFound("negotiation settings")
	}
	return settings, nil
}

func (s *service) UpdateSettings(ctx context.Context, threadID int64, req *in.NegotiationSettingsRequest) (*domain.NegotiationSettings, error) {
	if err := validateBudget(req); err != nil {
		return nil, err
	}

	settings, err := s.GetSettings(ctx, threadID)
	if err != nil {
		return nil, err
	}

	settings.MinBudget = req.MinBudget
	settings.MaxBudget = req.MaxBudget
	settings.TargetBudget = req.TargetBudget
	settings.AutoNegotiate = req.AutoNegotiate
	settings.Notes = req.Notes
	if req.Status != "" {
		settings.Status = req.Status
	}
	settings.UpdatedAt = s.now()

	if err := s.negotiationRepo.Update(ctx, settings); err != nil {
		return nil, apperr.DatabaseError("update negotiation settings", err)
	}
	return settings, nil
}

func (s *service) ListSettings(ctx context.Context) ([]*domain.NegotiationSettings, error) {
	settings, err := s.negotiationRepo.ListAll(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list negotiation settings", err)
	}
	return settings, nil
}

// GetState rebuilds the derived negotiation view from the thread's messages.
// Nothing here is persisted; the message history is the source of truth.
func (s *service) GetState(ctx context.Context, threadID int64) (*domain.NegotiationState, error) {
	thread, err := s.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		return nil, apperr.DatabaseError("get thread", err)
	}
	if thread == nil {
		return nil, apperr.NotFound("thread")
	}

	messages, err := s.messageRepo.ListByThread(ctx, threadID)
	if err != nil {
		return nil, apperr.DatabaseError("list messages", err)
	}

	settings, err := s.negotiationRepo.GetByThreadID(ctx, threadID)
	if err != nil {
		s.log.WithError(err).WithField("thread_id", threadID).Warn("settings lookup failed, deriving state without budget")
		settings = nil
	}

	state := &domain.NegotiationState{
		ThreadID:     threadID,
		RequestID:    thread.RequestID,
		WithinBudget: true,
	}

	for _, msg := range messages {
		if offer, ok := firstOffer(msg); ok {
			state.Offers = append(state.Offers, offer)
		}
	}
	state.Round = len(state.Offers)
	if n := len(state.Offers); n > 0 {
		state.LastOffer = &state.Offers[n-1]
		if settings != nil {
			amount := state.LastOffer.Amount
			state.WithinBudget = amount >= settings.MinBudget && amount <= settings.MaxBudget
		}
	}

	return state, nil
}

// firstOffer extracts the first money amount mentioned in a message.
func firstOffer(msg *domain.Message) (domain.OfferEvent, bool) {
	m := offerPattern.FindStringSubmatch(msg.Text)
	if m == nil {
		return domain.OfferEvent{}, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return domain.OfferEvent{}, false
	}
	return domain.OfferEvent{
		MessageID: msg.ID,
		Sender:    msg.Sender,
		Amount:    amount,
		Raw:       m[0],
		Timestamp: msg.Timestamp,
	}, true
}
