// Package newspulse provides a public SDK for embedding the news sentiment
// pipeline as a library.
//
// Example usage:
//
//	analyzer, err := newspulse.New(
//	    newspulse.WithSources("naver", "google"),
//	    newspulse.WithMaxArticles(5),
//	    newspulse.WithLLM("ollama", "llama3.2:3b", "http://localhost:11434"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer analyzer.Close()
//
//	result := analyzer.Analyze(ctx, "삼성전자 || LG전자")
//	fmt.Println(result.SentimentDistribution)
package newspulse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/NewsPulse/internal/ai"
	"github.com/IshaanNene/NewsPulse/internal/analysis"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/scraper"
	"github.com/IshaanNene/NewsPulse/internal/storage"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Result is the structured outcome of one analysis.
type Result = types.AnalysisResult

// Article is one analyzed news article.
type Article = types.Article

// Analyzer is the high-level API for running analyses from Go code.
type Analyzer struct {
	cfg         *config.Config
	coordinator *analysis.Coordinator
	sources     []string
	maxArticles int
	logger      *slog.Logger
}

type settings struct {
	cfg         *config.Config
	sources     []string
	maxArticles int
	client      ai.Client
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*settings)

// WithConfig replaces the default configuration. Options applied after it
// still take effect.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithSources sets the default sources for Analyze.
func WithSources(sources ...string) Option {
	return func(s *settings) { s.sources = sources }
}

// WithMaxArticles sets the default per-source article limit.
func WithMaxArticles(n int) Option {
	return func(s *settings) { s.maxArticles = n }
}

// WithLLM selects the language model provider, model and endpoint.
func WithLLM(provider, model, endpoint string) Option {
	return func(s *settings) {
		s.cfg.LLM.Provider = config.LLMProvider(provider)
		s.cfg.LLM.Model = model
		s.cfg.LLM.Endpoint = endpoint
	}
}

// WithAPIKey sets the LLM API key.
func WithAPIKey(key string) Option {
	return func(s *settings) { s.cfg.LLM.APIKey = key }
}

// WithOfflineScoring classifies sentiment with the built-in Korean lexicon
// instead of a language model.
func WithOfflineScoring() Option {
	return func(s *settings) { s.cfg.LLM.Provider = config.ProviderLocal }
}

// WithBrowser fetches pages through a headless browser.
func WithBrowser(headless bool) Option {
	return func(s *settings) {
		s.cfg.Fetcher.Engine = config.EngineBrowser
		s.cfg.Browser.Headless = headless
	}
}

// WithTimeout sets the crawl timeout of a session.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.Crawl.Timeout = d }
}

// WithStorage persists every successful result, e.g. WithStorage("jsonl",
// "./output/results.jsonl").
func WithStorage(kind, path string) Option {
	return func(s *settings) {
		s.cfg.Storage.Type = kind
		s.cfg.Storage.Path = path
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(s *settings) { s.cfg.Logging.Level = "debug" }
}

// New creates an Analyzer with the given options.
func New(opts ...Option) (*Analyzer, error) {
	s := &settings{cfg: config.DefaultConfig()}
	s.cfg.Storage.Type = "none"
	for _, opt := range opts {
		opt(s)
	}
	if err := config.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if s.logger == nil {
		level := slog.LevelInfo
		if s.cfg.Logging.Level == "debug" {
			level = slog.LevelDebug
		}
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	client, err := ai.NewClient(s.cfg.LLM, s.logger)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	var coordOpts []analysis.Option
	store, err := storage.New(s.cfg.Storage, s.logger)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}
	if store != nil {
		coordOpts = append(coordOpts, analysis.WithStore(store))
	}

	factory := scraper.NewFactory(s.cfg, s.logger)
	return &Analyzer{
		cfg:         s.cfg,
		coordinator: analysis.NewCoordinator(s.cfg, factory, client, s.logger, coordOpts...),
		sources:     s.sources,
		maxArticles: s.maxArticles,
		logger:      s.logger,
	}, nil
}

// Analyze runs one session for keyword with the configured defaults. The
// result is never nil; failures are reported in Result.Error.
func (a *Analyzer) Analyze(ctx context.Context, keyword string) *Result {
	return a.coordinator.Analyze(ctx, analysis.AnalyzeRequest{
		Keyword:     keyword,
		Sources:     a.sources,
		MaxArticles: a.maxArticles,
	})
}

// AnalyzeSources runs one session against explicit sources.
func (a *Analyzer) AnalyzeSources(ctx context.Context, keyword string, maxArticles int, sources ...string) *Result {
	return a.coordinator.Analyze(ctx, analysis.AnalyzeRequest{
		Keyword:     keyword,
		Sources:     sources,
		MaxArticles: maxArticles,
	})
}

// Search lists candidate article URLs per source without extracting them.
func (a *Analyzer) Search(ctx context.Context, keyword string) (map[string][]string, error) {
	found, err := a.coordinator.Search(ctx, keyword, a.sources, a.maxArticles)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(found))
	for id, urls := range found {
		out[string(id)] = urls
	}
	return out, nil
}

// Stats returns crawl statistics.
func (a *Analyzer) Stats() map[string]any {
	return a.coordinator.Orchestrator().Stats().Snapshot()
}

// Close releases the result store.
func (a *Analyzer) Close() error {
	return a.coordinator.Close()
}
