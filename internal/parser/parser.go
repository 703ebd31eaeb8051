// Package parser extracts article fields from fetched pages by trying an
// ordered list of candidate selectors until one yields a usable match.
package parser

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// XPathPrefix marks a candidate as an XPath expression. Every other
// candidate is treated as a CSS selector.
const XPathPrefix = "xpath:"

// Extractor evaluates selector candidates against a document. It is
// stateless apart from its logger and safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("component", "extractor"),
	}
}

// FirstText returns the whitespace-collapsed text of the first candidate
// whose first match is longer than minLen runes, together with the
// candidate that produced it. ok is false when no candidate qualifies.
func (e *Extractor) FirstText(doc *goquery.Document, candidates []string, minLen int) (text, selector string, ok bool) {
	for _, candidate := range candidates {
		sel := e.selectAll(doc, candidate)
		if sel == nil || sel.Length() == 0 {
			continue
		}
		text = SelectionText(sel.First())
		if utf8.RuneCountInString(text) > minLen {
			return text, candidate, true
		}
	}
	return "", "", false
}

// FirstSelection returns the matches of the first candidate selecting at
// least minMatches nodes.
func (e *Extractor) FirstSelection(doc *goquery.Document, candidates []string, minMatches int) (*goquery.Selection, string, bool) {
	if minMatches < 1 {
		minMatches = 1
	}
	for _, candidate := range candidates {
		sel := e.selectAll(doc, candidate)
		if sel != nil && sel.Length() >= minMatches {
			return sel, candidate, true
		}
	}
	return nil, "", false
}

// selectAll evaluates one candidate. Invalid expressions yield nil.
func (e *Extractor) selectAll(doc *goquery.Document, candidate string) *goquery.Selection {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil
	}
	if expr, ok := strings.CutPrefix(candidate, XPathPrefix); ok {
		return e.selectXPath(doc, expr)
	}
	return e.selectCSS(doc, candidate)
}
