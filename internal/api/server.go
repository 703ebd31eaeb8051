package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/IshaanNene/NewsPulse/internal/analysis"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Analyzer runs one analysis session.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.AnalyzeRequest) *types.AnalysisResult
}

// SessionSummary is the short record kept for every finished session.
type SessionSummary struct {
	SessionID     string    `json:"sessionId,omitempty"`
	Keyword       string    `json:"keyword"`
	SearchType    string    `json:"searchType,omitempty"`
	Sources       []string  `json:"sources"`
	TotalArticles int       `json:"totalArticles"`
	Overall       string    `json:"overallSentiment,omitempty"`
	Error         string    `json:"error,omitempty"`
	TotalTokens   int       `json:"totalTokens"`
	Duration      float64   `json:"duration"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Server exposes the analysis pipeline over JSON HTTP.
type Server struct {
	mux      *http.ServeMux
	cfg      config.ServerConfig
	analyzer Analyzer
	metrics  http.Handler
	page     http.Handler
	stats    func() any
	logger   *slog.Logger

	// Most recent sessions, oldest first.
	sessions   []SessionSummary
	sessionsMu sync.RWMutex
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves h on metricsPath.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithDashboard serves h on GET /.
func WithDashboard(h http.Handler) Option {
	return func(s *Server) { s.page = h }
}

// WithStats serves the value returned by fn on GET /api/stats.
func WithStats(fn func() any) Option {
	return func(s *Server) { s.stats = fn }
}

// NewServer creates a new API server.
func NewServer(cfg config.ServerConfig, metricsPath string, analyzer Analyzer, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		analyzer: analyzer,
		logger:   logger.With("component", "api_server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.SessionsKept <= 0 {
		s.cfg.SessionsKept = 50
	}
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	s.registerRoutes(metricsPath)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(metricsPath string) {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /api/sessions", s.handleSessions)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	if s.metrics != nil {
		s.mux.Handle("GET "+metricsPath, s.metrics)
	}
	if s.page != nil {
		s.mux.Handle("GET /{$}", s.page)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"version":          config.Version,
		"supportedSources": types.SupportedSourceNames(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	start := time.Now()
	result := s.analyzer.Analyze(r.Context(), req)
	s.remember(result, time.Since(start))

	status := http.StatusOK
	if result.IsError() {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, result)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.sessionsMu.RLock()
	out := make([]SessionSummary, len(s.sessions))
	// Newest first.
	for i, sess := range s.sessions {
		out[len(s.sessions)-1-i] = sess
	}
	s.sessionsMu.RUnlock()
	s.jsonResponse(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"error": "stats not available"})
		return
	}
	s.jsonResponse(w, http.StatusOK, s.stats())
}

func (s *Server) remember(result *types.AnalysisResult, elapsed time.Duration) {
	sum := SessionSummary{
		SessionID:     result.SessionID,
		Keyword:       result.Keyword,
		SearchType:    string(result.SearchType),
		Sources:       result.Sources,
		TotalArticles: result.TotalArticles,
		Error:         result.Error,
		Duration:      elapsed.Seconds(),
		FinishedAt:    time.Now(),
	}
	if result.Trend != nil {
		sum.Overall = string(result.Trend.OverallSentiment)
	}
	if result.TokenUsage != nil {
		sum.TotalTokens = result.TokenUsage.TotalTokens
	}

	s.sessionsMu.Lock()
	s.sessions = append(s.sessions, sum)
	if n := len(s.sessions) - s.cfg.SessionsKept; n > 0 {
		s.sessions = append([]SessionSummary(nil), s.sessions[n:]...)
	}
	s.sessionsMu.Unlock()
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Debug("response encode failed", "error", err)
	}
}
