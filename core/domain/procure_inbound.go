package domain

import (
	"strings"
	"time"
)

// InboundEmail is the single internal shape every inbound webhook payload is
// normalized into before extraction, classification, or correlation runs.
// Fields carries every raw form field so the brute-force token scan can look
// anywhere a provider may have relocated data.
type InboundEmail struct {
	Email      string
	Subject    string
	From       string
	Text       string
	HTML       string
	Headers    map[string]string
	Envelope   string
	Fields     map[string]string
	ReceivedAt time.Time
}

// HeaderValue returns a header by name, tolerating the case differences
// transactional-email providers introduce.
func (e *InboundEmail) HeaderValue(name string) string {
	if v, ok := e.Headers[name]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// SenderAddress extracts the bare address from a "Name <addr>" From value.
func (e *InboundEmail) SenderAddress() string {
	if start := strings.LastIndex(e.From, "<"); start >= 0 {
		if end := strings.Index(e.From[start:], ">"); end > 0 {
			return e.From[start+1 : start+end]
		}
	}
	return strings.TrimSpace(e.From)
}
