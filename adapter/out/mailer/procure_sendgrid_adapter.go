// Package mailer implements the outbound email provider adapter.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"procure_server/core/port/out"
	"procure_server/pkg/httputil"
	"procure_server/pkg/logger"

	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.sendgrid.com"

// SendGridAdapter implements out.Mailer using the SendGrid v3 mail send API.
type SendGridAdapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewSendGridAdapter creates a new SendGrid adapter. An empty baseURL uses
// the public API endpoint.
func NewSendGridAdapter(apiKey, baseURL string) *SendGridAdapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	log := logger.WithField("component", "sendgrid")

	cbSettings := gobreaker.Settings{
		Name:        "sendgrid-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	}

	return &SendGridAdapter{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  httputil.NewOptimizedClient(httputil.SendGridClientConfig()),
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		log:     log,
	}
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To      []emailAddress `json:"to"`
	Subject string         `json:"subject"`
}

type contentPart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	ReplyTo          *emailAddress     `json:"reply_to,omitempty"`
	Content          []contentPart     `json:"content"`
	Headers          map[string]string `json:"headers,omitempty"`
}

// Send delivers one outbound email. Plain text content goes first; SendGrid
// rejects payloads with text/html ahead of text/plain.
func (a *SendGridAdapter) Send(ctx context.Context, email *out.OutboundEmail) error {
	content := []contentPart{{Type: "text/plain", Value: email.Text}}
	if email.HTML != "" {
		content = append(content, contentPart{Type: "text/html", Value: email.HTML})
	}

	payload := sendRequest{
		Personalizations: []personalization{{
			To:      []emailAddress{{Email: email.To, Name: email.ToName}},
			Subject: email.Subject,
		}},
		From:    emailAddress{Email: email.From, Name: email.FromName},
		Content: content,
		Headers: email.Headers,
	}
	if email.ReplyTo != "" {
		payload.ReplyTo = &emailAddress{Email: email.ReplyTo, Name: email.FromName}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	_, err = a.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v3/mail/send", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return nil, fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, string(detail))
		}
		return nil, nil
	})
	if err != nil {
		a.log.WithError(err).WithField("to", email.To).Error("failed to send email")
		return err
	}

	a.log.WithField("to", email.To).Debug("email accepted by provider")
	return nil
}
