package out

import "context"

// Mailer defines the outbound port for transactional email delivery.
type Mailer interface {
	Send(ctx context.Context, email *OutboundEmail) error
}

// OutboundEmail is a fully assembled message ready for the provider API.
// Headers already carry the correlation values; Subject already carries the
// bracketed tracking token.
type OutboundEmail struct {
	To       string
	ToName   string
	From     string
	FromName string
	ReplyTo  string
	Subject  string
	Text     string
	HTML     string
	Headers  map[string]string
}
