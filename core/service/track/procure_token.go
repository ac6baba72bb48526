// Package track implements the tracking token embedded in outbound subject
// lines and headers. The token is the only correlation channel that survives
// an email round trip through an arbitrary vendor mail client.
package track

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"procure_server/core/domain"
)

var (
	bracketedPattern = regexp.MustCompile(`\[((?:rfx|negotiation)-\d+-\d+-\d+)\]`)
	barePattern      = regexp.MustCompile(`(?:rfx|negotiation)-\d+-\d+-\d+`)
	tokenPattern     = regexp.MustCompile(`^(rfx|negotiation)-(\d+)-(\d+)-(\d+)$`)
)

// Token carries conversation identity across the email round trip.
// Wire form is {kind}-{requestId}-{threadId}-{sentAtMillis}.
type Token struct {
	Kind         domain.Kind
	RequestID    int64
	ThreadID     int64
	SentAtMillis int64
}

// Encode renders the token in wire form.
func Encode(kind domain.Kind, requestID, threadID, sentAtMillis int64) string {
	return fmt.Sprintf("%s-%d-%d-%d", kind, requestID, threadID, sentAtMillis)
}

// String returns the bare wire form.
func (t Token) String() string {
	return Encode(t.Kind, t.RequestID, t.ThreadID, t.SentAtMillis)
}

// Bracketed returns the form appended to outbound subjects.
func (t Token) Bracketed() string {
	return "[" + t.String() + "]"
}

// Parse decodes a bare token string. Reports ok=false for anything that is
// not exactly a well-formed token.
func Parse(s string) (Token, bool) {
	m := tokenPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Token{}, false
	}
	requestID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Token{}, false
	}
	threadID, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Token{}, false
	}
	millis, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return Token{}, false
	}
	return Token{
		Kind:         domain.Kind(m[1]),
		RequestID:    requestID,
		ThreadID:     threadID,
		SentAtMillis: millis,
	}, true
}

// DecodeBracketed scans free text for a bracket-delimited token.
func DecodeBracketed(s string) (Token, bool) {
	if m := bracketedPattern.FindStringSubmatch(s); m != nil {
		return Parse(m[1])
	}
	return Token{}, false
}

// DecodeBare scans free text for a token without requiring brackets.
func DecodeBare(s string) (Token, bool) {
	if m := barePattern.FindString(s); m != "" {
		return Parse(m)
	}
	return Token{}, false
}

// Decode scans free text for a token. A bracketed token wins over a bare one
// so a forwarded token fragment in the body of the subject cannot shadow the
// one the dispatcher appended. Never errors; unmatched input reports ok=false.
func Decode(s string) (Token, bool) {
	if tok, ok := DecodeBracketed(s); ok {
		return tok, true
	}
	return DecodeBare(s)
}

// CleanSubject strips every bracketed token from a subject line for display
// and storage.
func CleanSubject(subject string) string {
	return strings.TrimSpace(bracketedPattern.ReplaceAllString(subject, ""))
}
