package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request is one page fetch issued on behalf of a news source.
type Request struct {
	URL     *url.URL
	Method  string
	Headers http.Header
	Source  SourceID

	// Timeout overrides the fetcher default when positive.
	Timeout time.Duration

	// WaitSelector is only honored by the browser fetcher, which waits for
	// the element before snapshotting the DOM. Naver renders its comment
	// list after load.
	WaitSelector string
}

// NewRequest builds a GET request for an absolute http(s) URL.
func NewRequest(source SourceID, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w %q: unsupported scheme", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidURL, rawURL)
	}
	return &Request{
		URL:     u,
		Method:  http.MethodGet,
		Headers: make(http.Header),
		Source:  source,
	}, nil
}

func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the request host without port.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
