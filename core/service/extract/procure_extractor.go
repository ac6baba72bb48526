// Package extract isolates newly authored reply text from quoted email
// history. Every mail client quotes differently, so extraction runs an
// ordered list of named strategies and the first match wins.
package extract

import (
	"regexp"
	"strings"
)

// Strategy locates the start of quoted content in a raw body. TryExtract
// reports the byte offset where quoting begins, or ok=false when the
// strategy finds nothing.
type Strategy interface {
	Name() string
	TryExtract(text string) (int, bool)
}

type regexStrategy struct {
	name     string
	patterns []*regexp.Regexp
}

func (s *regexStrategy) Name() string { return s.name }

func (s *regexStrategy) TryExtract(text string) (int, bool) {
	for _, p := range s.patterns {
		if loc := p.FindStringIndex(text); loc != nil && loc[0] > 0 {
			return loc[0], true
		}
	}
	return 0, false
}

// Strategies in fixed priority order. A delimiter at offset zero means the
// body starts with quoting and is left to the line scan in Extract.
var strategies = []Strategy{
	&regexStrategy{"wrote-line", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*On .+ wrote:`),
	}},
	&regexStrategy{"quote-prefix", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*>`),
	}},
	&regexStrategy{"header-line", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*From:`),
		regexp.MustCompile(`(?m)^\s*Sent:`),
		regexp.MustCompile(`(?m)^\s*To:`),
		regexp.MustCompile(`(?m)^\s*Subject:`),
	}},
	&regexStrategy{"dash-rule", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*-{3,}\s*Original Message\s*-{3,}`),
		regexp.MustCompile(`(?m)^\s*-{4,}`),
	}},
	&regexStrategy{"date-address", []*regexp.Regexp{
		regexp.MustCompile(`(?m)^.*\d{1,2}/\d{1,2}/\d{2,4}.*<.+>.*$`),
	}},
}

// fallbackThreshold is the body length above which an undelimited body is
// assumed to contain an unrecognized quoted thread.
const fallbackThreshold = 500

// quotedLineStart matches a line that itself begins quoted content.
var quotedLineStart = regexp.MustCompile(`^\s*(>|On .+ wrote:)`)

// Extract returns the newly authored portion of a raw email body. The result
// is always a trimmed prefix of the input at a line or paragraph boundary;
// a body that is entirely quoted history yields an empty string.
func Extract(raw string) string {
	for _, s := range strategies {
		if idx, ok := s.TryExtract(raw); ok {
			return strings.TrimSpace(raw[:idx])
		}
	}

	// The offset strategies only match past position zero, so a body whose
	// quoting starts on the very first line falls through to a line scan.
	if head, ok := cutAtQuotedLine(raw); ok {
		return head
	}

	// No delimiter recognized. A long body probably still carries a quoted
	// thread, so keep only the first two paragraphs.
	if len(raw) > fallbackThreshold {
		paragraphs := strings.Split(raw, "\n\n")
		if len(paragraphs) > 2 {
			paragraphs = paragraphs[:2]
		}
		if head := strings.TrimSpace(strings.Join(paragraphs, "\n\n")); head != "" {
			return head
		}
	}

	return strings.TrimSpace(raw)
}

// cutAtQuotedLine walks the body line by line and cuts at the first line
// that starts quoted content.
func cutAtQuotedLine(raw string) (string, bool) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		if quotedLineStart.MatchString(line) {
			return strings.TrimSpace(strings.Join(lines[:i], "\n")), true
		}
	}
	return "", false
}
