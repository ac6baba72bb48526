package mail

import (
	"context"
	"errors"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/core/service/correlate"
	"procure_server/core/service/extract"
	"procure_server/core/service/track"
	"procure_server/pkg/logger"
	"procure_server/pkg/snowflake"
)

type inboundService struct {
	resolver    *correlate.Resolver
	threadRepo  out.ThreadRepository
	messageRepo out.MessageRepository
	replyRepo   out.ReplyRepository
	rawArchive  out.RawPayloadArchive
	realtime    out.RealtimePort
	idgen       *snowflake.Generator
	now         func() time.Time
	log         *logger.Logger
}

// NewInboundService creates the inbound webhook pipeline. rawArchive and
// realtime may be nil.
func NewInboundService(
	resolver *correlate.Resolver,
	threadRepo out.ThreadRepository,
	messageRepo out.MessageRepository,
	replyRepo out.ReplyRepository,
	rawArchive out.RawPayloadArchive,
	realtime out.RealtimePort,
	idgen *snowflake.Generator,
) in.InboundService {
	return &inboundService{
		resolver:    resolver,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		replyRepo:   replyRepo,
		rawArchive:  rawArchive,
		realtime:    realtime,
		idgen:       idgen,
		now:         time.Now,
		log:         logger.WithField("component", "inbound"),
	}
}

// ProcessInbound runs extraction, correlation, and state updates for one
// webhook delivery. Failed writes are logged and skipped, never rolled back;
// the reply audit row is written first so no delivery is silently lost.
func (s *inboundService) ProcessInbound(ctx context.Context, email *domain.InboundEmail) (*in.InboundResult, error) {
	receivedAt := email.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}

	text := extract.Extract(email.Text)
	cleanSubject := track.CleanSubject(email.Subject)
	senderEmail := email.SenderAddress()

	log := s.log.WithField("subject", cleanSubject)

	resolution, err := s.resolver.Resolve(ctx, email)
	if err != nil {
		var unresolved *correlate.UnresolvedError
		if !errors.As(err, &unresolved) {
			log.WithError(err).Error("tracking lookup failed")
			s.auditOrphan(ctx, email, "", cleanSubject, text, senderEmail, receivedAt)
			return &in.InboundResult{Error: "database error while retrieving tracking data"}, nil
		}

		log.WithField("recovered_token", unresolved.RecoveredToken).Warn("inbound reply could not be correlated")
		s.auditOrphan(ctx, email, unresolved.RecoveredToken, cleanSubject, text, senderEmail, receivedAt)

		result := &in.InboundResult{TrackingID: unresolved.RecoveredToken}
		if unresolved.RecoveredToken == "" {
			result.Error = "no tracking id found"
		} else {
			result.Error = "tracking id not found in database"
		}
		return result, nil
	}

	log = log.WithFields(map[string]any{
		"tracking_id": resolution.TrackingID,
		"thread_id":   resolution.ThreadID,
		"type":        string(resolution.Kind),
	})

	// Audit row first.
	reply := &domain.ReplyRecord{
		ID:          s.idgen.MustGenerate(),
		TrackingID:  resolution.TrackingID,
		RequestID:   resolution.RequestID,
		ThreadID:    resolution.ThreadID,
		UserID:      resolution.UserID,
		SenderEmail: senderEmail,
		Subject:     cleanSubject,
		TextContent: text,
		HTMLContent: email.HTML,
		Kind:        resolution.Kind,
		ReceivedAt:  receivedAt,
	}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		log.WithError(err).Error("failed to store reply record")
	}

	s.archiveRaw(ctx, email, reply.ID, receivedAt, log)

	msg := &domain.Message{
		ThreadID:  resolution.ThreadID,
		Sender:    domain.SenderVendor,
		Text:      text,
		Kind:      resolution.Kind,
		Timestamp: receivedAt,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		log.WithError(err).Error("failed to store vendor message")
	}

	if err := s.threadRepo.UpdateAfterInbound(ctx, resolution.ThreadID, domain.StatusResponded, resolution.Kind); err != nil {
		log.WithError(err).Error("failed to update thread after inbound reply")
	}

	if s.realtime != nil {
		event := &domain.RealtimeEvent{
			Type:      domain.EventReplyReceived,
			ThreadID:  resolution.ThreadID,
			RequestID: resolution.RequestID,
			Payload: map[string]any{
				"tracking_id":  resolution.TrackingID,
				"sender_email": senderEmail,
				"type":         string(resolution.Kind),
			},
			Timestamp: receivedAt,
		}
		if err := s.realtime.Broadcast(ctx, event); err != nil {
			log.WithError(err).Warn("failed to broadcast reply event")
		}
	}

	log.Info("inbound reply processed")

	return &in.InboundResult{
		Success:    true,
		TrackingID: resolution.TrackingID,
		ThreadID:   resolution.ThreadID,
		Kind:       resolution.Kind,
		ReplyID:    reply.ID,
	}, nil
}

// auditOrphan stores whatever audit data is available for a delivery that
// could not be correlated, so it can be replayed or diagnosed later.
func (s *inboundService) auditOrphan(ctx context.Context, email *domain.InboundEmail, trackingID, cleanSubject, text, senderEmail string, receivedAt time.Time) {
	reply := &domain.ReplyRecord{
		ID:          s.idgen.MustGenerate(),
		TrackingID:  trackingID,
		SenderEmail: senderEmail,
		Subject:     cleanSubject,
		TextContent: text,
		HTMLContent: email.HTML,
		Kind:        domain.KindRFx,
		ReceivedAt:  receivedAt,
	}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		s.log.WithError(err).Error("failed to store orphan reply record")
		return
	}
	s.archiveRaw(ctx, email, reply.ID, receivedAt, s.log)
}

func (s *inboundService) archiveRaw(ctx context.Context, email *domain.InboundEmail, replyID int64, receivedAt time.Time, log *logger.Logger) {
	if s.rawArchive == nil {
		return
	}
	doc := &out.RawPayloadDoc{
		ReplyID:    replyID,
		Fields:     email.Fields,
		ReceivedAt: receivedAt,
	}
	if err := s.rawArchive.Save(ctx, doc); err != nil {
		log.WithError(err).Warn("failed to archive raw payload")
	}
}
