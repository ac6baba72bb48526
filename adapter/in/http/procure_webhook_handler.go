package http

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"procure_server/core/domain"
	"procure_server/core/port/in"
	"procure_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// WebhookMetrics counts inbound webhook deliveries.
type WebhookMetrics struct {
	Received   int64
	Correlated int64
	Orphaned   int64
	Errors     int64
}

// WebhookHandler receives inbound-parse deliveries from the email provider.
// The provider retries on any non-2xx status, so every path through here
// acknowledges with 200; failures are reported inside the body instead.
type WebhookHandler struct {
	inboundService in.InboundService
	metrics        WebhookMetrics
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(inboundService in.InboundService) *WebhookHandler {
	return &WebhookHandler{inboundService: inboundService}
}

// Register registers webhook routes. The provider is configured with the
// bare path; the api-prefixed aliases keep older configurations working.
func (h *WebhookHandler) Register(app *fiber.App) {
	app.Post("/webhook/email-reply", h.EmailReply)
	app.Post("/webhooks/email-reply", h.EmailReply)
	app.Post("/api/v1/webhook/email-reply", h.EmailReply)
}

// GetMetrics returns a snapshot of webhook counters.
func (h *WebhookHandler) GetMetrics() WebhookMetrics {
	return WebhookMetrics{
		Received:   atomic.LoadInt64(&h.metrics.Received),
		Correlated: atomic.LoadInt64(&h.metrics.Correlated),
		Orphaned:   atomic.LoadInt64(&h.metrics.Orphaned),
		Errors:     atomic.LoadInt64(&h.metrics.Errors),
	}
}

type webhookResponse struct {
	Success    bool   `json:"success"`
	TrackingID string `json:"trackingId,omitempty"`
	ThreadID   int64  `json:"threadId,omitempty"`
	EmailType  string `json:"emailType,omitempty"`
	Error      string `json:"error,omitempty"`
	Received   bool   `json:"received"`
}

// EmailReply handles one inbound-parse delivery.
func (h *WebhookHandler) EmailReply(c *fiber.Ctx) error {
	atomic.AddInt64(&h.metrics.Received, 1)

	email, err := h.parsePayload(c)
	if err != nil {
		atomic.AddInt64(&h.metrics.Errors, 1)
		logger.WithError(err).Warn("[EmailReply] failed to parse webhook payload")
		return c.Status(fiber.StatusOK).JSON(webhookResponse{
			Success:  false,
			Error:    "unparseable payload",
			Received: true,
		})
	}

	result, err := h.inboundService.ProcessInbound(c.Context(), email)
	if err != nil {
		atomic.AddInt64(&h.metrics.Errors, 1)
		logger.WithError(err).Error("[EmailReply] inbound processing failed")
		return c.Status(fiber.StatusOK).JSON(webhookResponse{
			Success:  false,
			Error:    "processing failed",
			Received: true,
		})
	}

	if result.Success {
		atomic.AddInt64(&h.metrics.Correlated, 1)
	} else {
		atomic.AddInt64(&h.metrics.Orphaned, 1)
	}

	return c.Status(fiber.StatusOK).JSON(webhookResponse{
		Success:    result.Success,
		TrackingID: result.TrackingID,
		ThreadID:   result.ThreadID,
		EmailType:  string(result.Kind),
		Error:      result.Error,
		Received:   true,
	})
}

// parsePayload normalizes the delivery into a domain.InboundEmail. Inbound
// parse posts multipart or urlencoded form data; some test harnesses post
// JSON, so that is accepted as a fallback.
func (h *WebhookHandler) parsePayload(c *fiber.Ctx) (*domain.InboundEmail, error) {
	fields := map[string]string{}

	contentType := string(c.Request().Header.ContentType())
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for key, values := range form.Value {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
	case strings.HasPrefix(contentType, fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			fields[string(key)] = string(value)
		})
	default:
		var payload map[string]any
		if err := json.Unmarshal(c.Body(), &payload); err != nil {
			return nil, err
		}
		for key, value := range payload {
			if s, ok := value.(string); ok {
				fields[key] = s
				continue
			}
			// Nested values (a headers object most of all) are kept as JSON
			// text so header recovery and the field scan see them.
			if encoded, err := json.Marshal(value); err == nil {
				fields[key] = string(encoded)
			}
		}
	}

	return &domain.InboundEmail{
		Email:      fields["to"],
		Subject:    fields["subject"],
		From:       fields["from"],
		Text:       fields["text"],
		HTML:       fields["html"],
		Headers:    parseHeaders(fields["headers"]),
		Envelope:   fields["envelope"],
		Fields:     fields,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// parseHeaders accepts either the provider's raw header block or a JSON
// object of header name/value pairs.
func parseHeaders(raw string) map[string]string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			headers := make(map[string]string, len(obj))
			for name, value := range obj {
				if s, ok := value.(string); ok {
					headers[name] = s
				} else {
					headers[name] = fmt.Sprint(value)
				}
			}
			return headers
		}
	}
	return parseRawHeaders(raw)
}

// parseRawHeaders splits the provider's raw header block into a lookup map.
// Folded continuation lines are appended to the previous header.
func parseRawHeaders(raw string) map[string]string {
	headers := map[string]string{}
	if raw == "" {
		return headers
	}

	var last string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if last != "" {
				headers[last] += " " + strings.TrimSpace(line)
			}
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		last = strings.TrimSpace(name)
		headers[last] = strings.TrimSpace(value)
	}
	return headers
}
