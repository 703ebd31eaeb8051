// Package pipeline cleans extracted articles before they are scored.
package pipeline

import (
	"html"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Middleware processes an article and returns the (possibly modified)
// article. Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(a *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order.
func (p *Pipeline) Process(a *types.Article) (*types.Article, error) {
	current := a
	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{Stage: mw.Name(), URL: a.URL, Err: err}
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", a.URL)
			return nil, nil
		}
		current = result
	}
	return current, nil
}

// ProcessAll runs every article through the chain and keeps the survivors
// in order. Failing articles are logged and dropped.
func (p *Pipeline) ProcessAll(articles []*types.Article) []*types.Article {
	kept := make([]*types.Article, 0, len(articles))
	for _, a := range articles {
		out, err := p.Process(a)
		if err != nil {
			p.logger.Warn("article processing failed", "error", err)
			continue
		}
		// nil means a middleware dropped the article
		if out != nil {
			kept = append(kept, out)
		}
	}
	return kept
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// --- Built-in Middleware ---

// SanitizeMiddleware strips leftover markup from titles, bodies and
// comments, decodes entities, collapses whitespace and applies NFC.
type SanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewSanitizeMiddleware() *SanitizeMiddleware {
	return &SanitizeMiddleware{stripRe: regexp.MustCompile(`<[^>]*>`)}
}

func (m *SanitizeMiddleware) Name() string { return "sanitize" }

func (m *SanitizeMiddleware) Process(a *types.Article) (*types.Article, error) {
	a.Title = m.clean(a.Title)
	a.Content = m.clean(a.Content)
	for i := range a.Comments {
		a.Comments[i].Text = m.clean(a.Comments[i].Text)
	}
	return a, nil
}

func (m *SanitizeMiddleware) clean(s string) string {
	if s == "" {
		return s
	}
	// Strip tags before decoding so &lt;b&gt; stays literal text
	s = m.stripRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(s)
}

// RequiredFieldsMiddleware drops articles without a title or body.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(a *types.Article) (*types.Article, error) {
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Content) == "" {
		return nil, nil
	}
	return a, nil
}

// CommentFilterMiddleware drops blank comments, keeps at most Max and sets
// CommentCount to the number kept.
type CommentFilterMiddleware struct {
	Max int
}

func (m *CommentFilterMiddleware) Name() string { return "comment_filter" }

func (m *CommentFilterMiddleware) Process(a *types.Article) (*types.Article, error) {
	kept := make([]types.Comment, 0, len(a.Comments))
	for _, c := range a.Comments {
		// Max of 0 keeps every comment
		if m.Max > 0 && len(kept) == m.Max {
			break
		}
		if strings.TrimSpace(c.Text) != "" {
			kept = append(kept, c)
		}
	}
	a.Comments = kept
	a.CommentCount = len(kept)
	return a, nil
}
