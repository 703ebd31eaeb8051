package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/korean"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Crawl.MaxRetries = 0
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	f.retryBase = time.Millisecond
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func mustRequest(t *testing.T, rawURL string) *types.Request {
	t.Helper()
	req, err := types.NewRequest(types.SourceNaver, rawURL)
	if err != nil {
		t.Fatalf("NewRequest(%q): %v", rawURL, err)
	}
	return req
}

func TestHTTPFetcherSendsHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if !strings.Contains(gotUA, "Chrome/91") {
		t.Errorf("unexpected User-Agent %q", gotUA)
	}
	if !strings.HasPrefix(gotLang, "ko-KR") {
		t.Errorf("unexpected Accept-Language %q", gotLang)
	}
}

func TestHTTPFetcherBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, _ = bw.Write([]byte("<html><body><p>압축된 본문</p></body></html>"))
	_ = bw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	resp, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(string(resp.Body), "압축된 본문") {
		t.Errorf("body not decompressed: %q", resp.Body)
	}
}

func TestHTTPFetcherDecodesEUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte("<html><body>한글 기사</body></html>"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	resp, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(string(resp.Body), "한글 기사") {
		t.Errorf("expected UTF-8 body, got %q", resp.Body)
	}
}

func TestHTTPFetcherStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(tt.status)
		}))

		_, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
		srv.Close()

		var fe *types.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("status %d: expected FetchError, got %v", tt.status, err)
		}
		if fe.StatusCode != tt.status {
			t.Errorf("expected status %d, got %d", tt.status, fe.StatusCode)
		}
		if fe.IsRetryable() != tt.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, fe.IsRetryable(), tt.retryable)
		}
	}
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	f.maxRetries = 3
	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if string(resp.Body) != "recovered" || calls.Load() != 3 {
		t.Errorf("unexpected result body=%q calls=%d", resp.Body, calls.Load())
	}
}

func TestHTTPFetcherEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := newTestFetcher(t).Fetch(context.Background(), mustRequest(t, srv.URL))
	if !errors.Is(err, types.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestHTTPFetcherResolveFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("publisher"))
	})
	mux.HandleFunc("/rss/articles/abc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestFetcher(t).Resolve(context.Background(), srv.URL+"/rss/articles/abc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != srv.URL+"/final" {
		t.Errorf("expected %s/final, got %s", srv.URL, got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("expected 3s, got %v", got)
	}
	if got := parseRetryAfter("9999"); got != 120*time.Second {
		t.Errorf("expected cap at 120s, got %v", got)
	}
	if got := parseRetryAfter(""); got != 5*time.Second {
		t.Errorf("expected default 5s, got %v", got)
	}
}

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager(&config.ProxyConfig{
		Enabled:  true,
		Rotation: "round_robin",
		URLs:     []string{"http://p1:8080", "http://p2:8080", "::bad"},
	}, testLogger)

	if pm.HealthyCount() != 2 {
		t.Fatalf("expected 2 valid proxies, got %d", pm.HealthyCount())
	}

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		seen[pm.Next().Host] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected both proxies in rotation, got %v", seen)
	}

	p1, _ := url.Parse("http://p1:8080")
	pm.MarkFailed(p1, errors.New("refused"))
	for i := 0; i < 3; i++ {
		if got := pm.Next(); got.Host != "p2:8080" {
			t.Errorf("expected only p2 after failure, got %s", got.Host)
		}
	}

	pm.MarkFailed(&url.URL{Scheme: "http", Host: "unknown:1"}, nil)
	if pm.HealthyCount() != 1 {
		t.Errorf("unknown proxy should not change health, got %d", pm.HealthyCount())
	}
}

func TestStealthConfigDefaults(t *testing.T) {
	sc := NewStealthConfig(config.BrowserConfig{})
	if sc.ViewportWidth != 1920 || sc.ViewportHeight != 1080 || sc.Language != "ko-KR" {
		t.Errorf("unexpected defaults %+v", sc)
	}
	js := sc.StealthJS()
	if !strings.Contains(js, "['ko-KR', 'ko']") {
		t.Errorf("expected language list in script, got %s", js)
	}
}
