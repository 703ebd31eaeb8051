package parser

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// Readable is the main content of a page as found by the readability
// heuristics.
type Readable struct {
	Title    string
	Text     string
	SiteName string
}

// ReadableContent runs go-readability over a fetched page. It is the last
// resort when no body candidate matches.
func ReadableContent(body []byte, pageURL string) (Readable, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Readable{}, fmt.Errorf("parse page url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Readable{}, fmt.Errorf("readability: %w", err)
	}
	return Readable{
		Title:    CleanText(article.Title),
		Text:     CleanText(article.TextContent),
		SiteName: article.SiteName,
	}, nil
}
