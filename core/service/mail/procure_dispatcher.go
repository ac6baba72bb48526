// Package mail implements the two terminal pipeline stages: dispatching
// outbound vendor emails with tracking applied, and committing inbound
// replies to conversation state.
package mail

import (
	"context"
	"fmt"
	"time"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/core/port/out"
	"procure_server/core/service/track"
	"procure_server/pkg/apperr"
	"procure_server/pkg/logger"

	"github.com/google/uuid"
)

// defaultTextBody is used when a send request carries only HTML.
const defaultTextBody = "Please see attached RFx request."

// DispatcherConfig carries the sender identity applied to every outbound
// message.
type DispatcherConfig struct {
	FromEmail string
	FromName  string
	ReplyTo   string
}

type dispatcher struct {
	cfg          DispatcherConfig
	threadRepo   out.ThreadRepository
	messageRepo  out.MessageRepository
	trackingRepo out.TrackingRepository
	mailer       out.Mailer
	classify     in.ClassifyService
	realtime     out.RealtimePort
	now          func() time.Time
	log          *logger.Logger
}

// NewDispatcher creates the outbound dispatch service. realtime may be nil.
func NewDispatcher(
	cfg DispatcherConfig,
	threadRepo out.ThreadRepository,
	messageRepo out.MessageRepository,
	trackingRepo out.TrackingRepository,
	mailer out.Mailer,
	classify in.ClassifyService,
	realtime out.RealtimePort,
) in.DispatchService {
	return &dispatcher{
		cfg:          cfg,
		threadRepo:   threadRepo,
		messageRepo:  messageRepo,
		trackingRepo: trackingRepo,
		mailer:       mailer,
		classify:     classify,
		realtime:     realtime,
		now:          time.Now,
		log:          logger.WithField("component", "dispatcher"),
	}
}

func (d *dispatcher) SendEmail(ctx context.Context, req *in.SendEmailRequest) (*in.SendEmailResult, error) {
	if req.To == "" {
		return nil, apperr.MissingField("to")
	}
	if req.Subject == "" {
		return nil, apperr.MissingField("subject")
	}
	if req.ThreadID == 0 {
		return nil, apperr.MissingField("thread_id")
	}

	// The target conversation must already exist. Sending into a missing
	// thread is a caller error, not something to repair silently.
	thread, err := d.threadRepo.GetByID(ctx, req.ThreadID)
	if err != nil {
		return nil, apperr.DatabaseError("get thread", err)
	}
	if thread == nil {
		return nil, apperr.NotFound(fmt.Sprintf("thread %d", req.ThreadID))
	}

	kind := req.Kind
	if !kind.IsValid() {
		kind = d.classify.ClassifySubject(ctx, req.Subject).Kind
	}

	sentAt := d.now()
	trackingID := track.Encode(kind, req.RequestID, req.ThreadID, sentAt.UnixMilli())
	emailSubject := fmt.Sprintf("%s [%s]", req.Subject, trackingID)

	text := req.Text
	if text == "" {
		text = defaultTextBody
	}

	outbound := &out.OutboundEmail{
		To:       req.To,
		ToName:   req.ToName,
		From:     d.cfg.FromEmail,
		FromName: d.cfg.FromName,
		ReplyTo:  d.cfg.ReplyTo,
		Subject:  emailSubject,
		Text:     text,
		HTML:     req.HTML,
		Headers: map[string]string{
			"X-RFx-ID":      trackingID,
			"X-Thread-ID":   fmt.Sprintf("%d", req.ThreadID),
			"X-RFx-Request": fmt.Sprintf("%d", req.RequestID),
			"X-Email-Type":  string(kind),
		},
	}

	if err := d.mailer.Send(ctx, outbound); err != nil {
		return nil, apperr.MailerError(err)
	}

	log := d.log.WithFields(map[string]any{
		"tracking_id": trackingID,
		"thread_id":   req.ThreadID,
	})
	log.Info("email sent, persisting tracking state")

	// The message left the building. Everything below is bookkeeping and
	// must not turn a delivered email into a reported failure.
	d.persistAfterSend(ctx, req, kind, trackingID, text, sentAt, log)

	return &in.SendEmailResult{
		TrackingID: trackingID,
		ThreadID:   req.ThreadID,
		Kind:       kind,
		Subject:    emailSubject,
	}, nil
}

func (d *dispatcher) persistAfterSend(
	ctx context.Context,
	req *in.SendEmailRequest,
	kind domain.Kind,
	trackingID, text string,
	sentAt time.Time,
	log *logger.Logger,
) {
	rec := &domain.TrackingRecord{
		ID:             uuid.New(),
		TrackingID:     trackingID,
		RequestID:      req.RequestID,
		ThreadID:       req.ThreadID,
		UserID:         req.UserID,
		RecipientEmail: req.To,
		Subject:        req.Subject,
		Kind:           kind,
		SentAt:         sentAt,
	}
	if err := d.trackingRepo.Create(ctx, rec); err != nil {
		log.WithError(err).Error("failed to store tracking record")
	}

	body := req.Text
	if body == "" {
		body = req.HTML
	}
	if body == "" {
		body = text
	}
	msg := &domain.Message{
		ThreadID:  req.ThreadID,
		Sender:    domain.SenderYou,
		Text:      body,
		Kind:      kind,
		Timestamp: sentAt,
	}
	if err := d.messageRepo.Create(ctx, msg); err != nil {
		log.WithError(err).Error("failed to store outbound message")
	}

	if err := d.threadRepo.UpdateAfterDispatch(ctx, req.ThreadID, domain.StatusAwaitingReply); err != nil {
		log.WithError(err).Error("failed to update thread after dispatch")
	}

	if d.realtime != nil {
		event := &domain.RealtimeEvent{
			Type:      domain.EventDispatchComplete,
			ThreadID:  req.ThreadID,
			RequestID: req.RequestID,
			Payload:   map[string]any{"tracking_id": trackingID, "type": string(kind)},
			Timestamp: sentAt,
		}
		if err := d.realtime.Broadcast(ctx, event); err != nil {
			log.WithError(err).Warn("failed to broadcast dispatch event")
		}
	}
}
