package types

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Response is a fetched page body, always UTF-8, together with where it
// ended up and how it was obtained.
type Response struct {
	StatusCode  int
	Headers     http.Header
	Body        []byte
	ContentType string

	// FinalURL is the page address after redirects. Google News links only
	// reveal the publisher URL here.
	FinalURL string

	// Rendered is true when the body came from a headless browser.
	Rendered bool

	Request *Request
	Elapsed time.Duration

	doc *goquery.Document
}

func NewResponse(req *Request, httpResp *http.Response, body []byte, elapsed time.Duration) *Response {
	final := req.URLString()
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		final = httpResp.Request.URL.String()
	}
	return &Response{
		StatusCode:  httpResp.StatusCode,
		Headers:     httpResp.Header,
		Body:        body,
		ContentType: httpResp.Header.Get("Content-Type"),
		FinalURL:    final,
		Request:     req,
		Elapsed:     elapsed,
	}
}

// NewBrowserResponse wraps the DOM snapshot of a rendered page. Browsers do
// not expose the status code of the main document, so it is reported as 200.
func NewBrowserResponse(req *Request, html string, finalURL string, elapsed time.Duration) *Response {
	return &Response{
		StatusCode:  http.StatusOK,
		Headers:     make(http.Header),
		Body:        []byte(html),
		ContentType: "text/html; charset=utf-8",
		FinalURL:    finalURL,
		Rendered:    true,
		Request:     req,
		Elapsed:     elapsed,
	}
}

// Document parses Body once and caches the result. Not safe for
// concurrent use.
func (r *Response) Document() (*goquery.Document, error) {
	if r.doc == nil {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			return nil, err
		}
		if u, err := url.Parse(r.FinalURL); err == nil {
			doc.Url = u
		}
		r.doc = doc
	}
	return r.doc, nil
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode/100 == 2
}
