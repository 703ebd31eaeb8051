package fetcher

import (
	"context"

	"github.com/go-rod/rod"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Fetcher is the interface for all request fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// PageAction runs against a live browser page after navigation and before
// the DOM is read, e.g. to expand collapsed comment threads.
type PageAction func(page *rod.Page) error

// ActionFetcher is implemented by fetchers that can drive a page.
type ActionFetcher interface {
	Fetcher
	FetchWithActions(ctx context.Context, req *types.Request, actions ...PageAction) (*types.Response, error)
}

// Resolver follows redirects without keeping the body.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}
