// Package observability exposes pipeline counters in Prometheus text
// format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Metrics tracks operational metrics for the analysis pipeline.
type Metrics struct {
	// Session metrics
	SessionsTotal    atomic.Int64
	SessionsFailed   atomic.Int64
	SessionsTimedOut atomic.Int64
	SessionsActive   atomic.Int32

	// Crawl metrics
	SearchesFailed    atomic.Int64
	ArticlesExtracted atomic.Int64
	ArticlesFailed    atomic.Int64

	// Analysis metrics
	ArticlesScored atomic.Int64
	CommentsScored atomic.Int64
	TokensTotal    atomic.Int64
	costMicroUSD   atomic.Int64

	// Storage metrics
	ResultsStored atomic.Int64
	StoreErrors   atomic.Int64

	mu        sync.Mutex
	perSource map[types.SourceID]int64
	durations time.Duration

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		perSource: make(map[types.SourceID]int64),
		logger:    logger.With("component", "metrics"),
	}
}

// SearchFailed records a failed source search.
func (m *Metrics) SearchFailed(source types.SourceID) {
	m.SearchesFailed.Add(1)
}

// ArticleExtracted records one extracted article.
func (m *Metrics) ArticleExtracted(source types.SourceID) {
	m.ArticlesExtracted.Add(1)
	m.mu.Lock()
	m.perSource[source]++
	m.mu.Unlock()
}

// ExtractionFailed records one dropped article.
func (m *Metrics) ExtractionFailed(source types.SourceID) {
	m.ArticlesFailed.Add(1)
}

// SessionStarted marks a session as running.
func (m *Metrics) SessionStarted() {
	m.SessionsTotal.Add(1)
	m.SessionsActive.Add(1)
}

// SessionFinished records the outcome of a session.
func (m *Metrics) SessionFinished(result *types.AnalysisResult, elapsed time.Duration, timedOut bool) {
	m.SessionsActive.Add(-1)
	m.mu.Lock()
	m.durations += elapsed
	m.mu.Unlock()

	if timedOut {
		m.SessionsTimedOut.Add(1)
	}
	if result == nil || result.IsError() {
		m.SessionsFailed.Add(1)
		return
	}

	m.ArticlesScored.Add(int64(len(result.Articles)))
	for _, a := range result.Articles {
		m.CommentsScored.Add(int64(a.CommentCount))
	}
	if result.TokenUsage != nil {
		m.TokensTotal.Add(int64(result.TokenUsage.TotalTokens))
		m.costMicroUSD.Add(int64(result.TokenUsage.EstimatedCost * 1e6))
	}
}

// ResultStored records a persistence attempt.
func (m *Metrics) ResultStored(err error) {
	if err != nil {
		m.StoreErrors.Add(1)
		return
	}
	m.ResultsStored.Add(1)
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"newspulse_sessions_total", "Total analysis sessions", "counter", m.SessionsTotal.Load()},
		{"newspulse_sessions_failed_total", "Sessions that returned an error result", "counter", m.SessionsFailed.Load()},
		{"newspulse_sessions_timed_out_total", "Sessions whose crawl timed out", "counter", m.SessionsTimedOut.Load()},
		{"newspulse_sessions_active", "Sessions currently running", "gauge", int64(m.SessionsActive.Load())},
		{"newspulse_searches_failed_total", "Source searches that failed", "counter", m.SearchesFailed.Load()},
		{"newspulse_articles_extracted_total", "Articles extracted", "counter", m.ArticlesExtracted.Load()},
		{"newspulse_articles_failed_total", "Articles dropped after extraction failure", "counter", m.ArticlesFailed.Load()},
		{"newspulse_articles_scored_total", "Articles scored for sentiment", "counter", m.ArticlesScored.Load()},
		{"newspulse_comments_scored_total", "Comments scored for sentiment", "counter", m.CommentsScored.Load()},
		{"newspulse_llm_tokens_total", "LLM tokens consumed", "counter", m.TokensTotal.Load()},
		{"newspulse_results_stored_total", "Results persisted", "counter", m.ResultsStored.Load()},
		{"newspulse_store_errors_total", "Result persistence failures", "counter", m.StoreErrors.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}

	fmt.Fprintf(w, "# HELP newspulse_llm_cost_usd_total Estimated LLM cost in USD\n")
	fmt.Fprintf(w, "# TYPE newspulse_llm_cost_usd_total counter\n")
	fmt.Fprintf(w, "newspulse_llm_cost_usd_total %.6f\n", m.CostUSD())

	m.mu.Lock()
	sources := make([]string, 0, len(m.perSource))
	for id := range m.perSource {
		sources = append(sources, string(id))
	}
	sort.Strings(sources)
	fmt.Fprintf(w, "# HELP newspulse_source_articles_total Articles extracted per source\n")
	fmt.Fprintf(w, "# TYPE newspulse_source_articles_total counter\n")
	for _, id := range sources {
		fmt.Fprintf(w, "newspulse_source_articles_total{source=%q} %d\n", id, m.perSource[types.SourceID(id)])
	}
	m.mu.Unlock()
}

// CostUSD returns the accumulated estimated LLM cost.
func (m *Metrics) CostUSD() float64 {
	return float64(m.costMicroUSD.Load()) / 1e6
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]any {
	m.mu.Lock()
	perSource := make(map[string]int64, len(m.perSource))
	for id, n := range m.perSource {
		perSource[string(id)] = n
	}
	total := m.durations
	m.mu.Unlock()

	var avg time.Duration
	if n := m.SessionsTotal.Load() - int64(m.SessionsActive.Load()); n > 0 {
		avg = total / time.Duration(n)
	}

	return map[string]any{
		"sessions_total":     m.SessionsTotal.Load(),
		"sessions_failed":    m.SessionsFailed.Load(),
		"sessions_timed_out": m.SessionsTimedOut.Load(),
		"sessions_active":    m.SessionsActive.Load(),
		"articles_extracted": m.ArticlesExtracted.Load(),
		"articles_failed":    m.ArticlesFailed.Load(),
		"comments_scored":    m.CommentsScored.Load(),
		"llm_tokens":         m.TokensTotal.Load(),
		"llm_cost_usd":       m.CostUSD(),
		"avg_session":        avg.String(),
		"per_source":         perSource,
	}
}
