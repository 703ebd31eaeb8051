// Package scraper implements per-source news search and article extraction
// behind one contract.
package scraper

import (
	"context"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Scraper searches one news source and extracts its articles. A Scraper
// owns its fetchers; Close releases them and must be called exactly once
// when the session ends.
type Scraper interface {
	// Source identifies the news provider.
	Source() types.SourceID

	// SearchNews returns up to maxResults candidate article URLs for
	// keyword. It returns types.ErrNoResultsFound when nothing qualifies.
	SearchNews(ctx context.Context, keyword string, maxResults int) ([]string, error)

	// ExtractArticle fetches and parses one article. Pages without a usable
	// title or body fail with *types.ExtractionFailedError.
	ExtractArticle(ctx context.Context, url string) (*types.Article, error)

	// Close releases browser pages and connections.
	Close() error
}

// orDefault returns override when it has entries, defaults otherwise.
func orDefault(override, defaults []string) []string {
	if len(override) > 0 {
		return override
	}
	return defaults
}

// positive returns v, or def when v is not positive.
func positive(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
