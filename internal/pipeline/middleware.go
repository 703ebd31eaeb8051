package pipeline

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// PIIRedactMiddleware masks personal data in reader comments before they
// are sent to a language model or stored.
type PIIRedactMiddleware struct {
	patterns []piiPattern
	logger   *slog.Logger
}

type piiPattern struct {
	kind string
	re   *regexp.Regexp
}

func NewPIIRedactMiddleware(logger *slog.Logger) *PIIRedactMiddleware {
	// Order matters: resident numbers and cards before the looser phone forms.
	return &PIIRedactMiddleware{
		patterns: []piiPattern{
			{"email", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
			{"rrn", regexp.MustCompile(`\b\d{6}-[1-4]\d{6}\b`)},
			{"credit_card", regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
			{"phone_kr", regexp.MustCompile(`\b01[016789][-.\s]?\d{3,4}[-.\s]?\d{4}\b`)},
			{"phone_intl", regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)},
			{"ip_v4", regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},
		},
		logger: logger.With("component", "pii_redact"),
	}
}

func (m *PIIRedactMiddleware) Name() string { return "pii_redact" }

func (m *PIIRedactMiddleware) Process(a *types.Article) (*types.Article, error) {
	for i := range a.Comments {
		a.Comments[i].Text = m.redact(a.Comments[i].Text, a.URL)
		// Some outlets show phone numbers or emails as the author name
		if a.Comments[i].Author != "" {
			a.Comments[i].Author = m.redact(a.Comments[i].Author, a.URL)
		}
	}
	return a, nil
}

// Redact masks every known PII pattern in s.
func (m *PIIRedactMiddleware) Redact(s string) string {
	return m.redact(s, "")
}

func (m *PIIRedactMiddleware) redact(s, url string) string {
	for _, p := range m.patterns {
		if p.re.MatchString(s) {
			s = p.re.ReplaceAllString(s, "[REDACTED_"+strings.ToUpper(p.kind)+"]")
			m.logger.Debug("PII redacted", "url", url, "type", p.kind)
		}
	}
	return s
}

// Default builds the chain the coordinator runs on every crawl: sanitize,
// drop incomplete articles, filter comments and optionally redact PII.
func Default(maxComments int, redactPII bool, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewSanitizeMiddleware())
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&CommentFilterMiddleware{Max: maxComments})
	// Redaction runs last so it sees sanitized text
	if redactPII {
		p.Use(NewPIIRedactMiddleware(logger))
	}
	return p
}
