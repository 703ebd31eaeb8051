package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrNoResultsFound     = errors.New("no results found")
	ErrUnsupportedSource  = errors.New("unsupported news source")
	ErrInvalidKeyword     = errors.New("invalid keyword")
	ErrCrawlTimeout       = errors.New("crawl timed out")
	ErrEmptyResponse      = errors.New("empty response body")
	ErrInvalidURL         = errors.New("invalid URL")
	ErrNoFetcher          = errors.New("no fetcher available for request")
	ErrActionsUnsupported = errors.New("fetcher does not support page actions")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ExtractionFailedError reports that neither a title nor a body could be
// extracted from an article page.
type ExtractionFailedError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ExtractionFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Reason)
}

func (e *ExtractionFailedError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while parsing a document or a model reply.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PipelineError wraps a failure in one article processing stage.
type PipelineError struct {
	Stage string
	URL   string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while persisting results.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// LLMError wraps errors returned by a language model provider.
type LLMError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm error (%s, status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm error (%s): %v", e.Provider, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// IsRateLimited reports whether the provider asked us to slow down.
func (e *LLMError) IsRateLimited() bool { return e.StatusCode == 429 }
