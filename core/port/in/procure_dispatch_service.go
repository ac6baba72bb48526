// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"

	"procure_server/core/domain"

	"github.com/google/uuid"
)

// DispatchService sends outbound vendor emails with tracking applied.
type DispatchService interface {
	SendEmail(ctx context.Context, req *SendEmailRequest) (*SendEmailResult, error)
}

// SendEmailRequest is the outbound send request. Kind is optional; when empty
// the dispatcher classifies the subject itself.
type SendEmailRequest struct {
	RequestID int64       `json:"rfx_id"`
	ThreadID  int64       `json:"thread_id"`
	UserID    uuid.UUID   `json:"-"`
	To        string      `json:"to"`
	ToName    string      `json:"to_name,omitempty"`
	Subject   string      `json:"subject"`
	Text      string      `json:"text"`
	HTML      string      `json:"html,omitempty"`
	Kind      domain.Kind `json:"type,omitempty"`
}

// SendEmailResult reports a completed dispatch.
type SendEmailResult struct {
	TrackingID string      `json:"tracking_id"`
	ThreadID   int64       `json:"thread_id"`
	Kind       domain.Kind `json:"type"`
	Subject    string      `json:"subject"`
}
