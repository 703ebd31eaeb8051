// Package analysis runs one keyword analysis session end to end and always
// produces a single structured result.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/NewsPulse/internal/ai"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/engine"
	"github.com/IshaanNene/NewsPulse/internal/parser"
	"github.com/IshaanNene/NewsPulse/internal/pipeline"
	"github.com/IshaanNene/NewsPulse/internal/scraper"
	"github.com/IshaanNene/NewsPulse/internal/storage"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// AnalyzeRequest is one analysis request as callers submit it.
type AnalyzeRequest struct {
	Keyword     string   `json:"keyword"`
	Sources     []string `json:"sources"`
	MaxArticles int      `json:"max_articles"`
}

// Observer is notified about session lifecycle events.
type Observer interface {
	SessionStarted()
	SessionFinished(result *types.AnalysisResult, elapsed time.Duration, timedOut bool)
	ResultStored(err error)
}

// Coordinator validates requests, crawls, scores, aggregates and summarizes.
type Coordinator struct {
	cfg          *config.Config
	factory      scraper.Factory
	client       ai.Client
	orchestrator *engine.Orchestrator
	cleaner      *pipeline.Pipeline
	scorer       *ai.Scorer
	aggregator   *ai.Aggregator
	summarizer   *ai.Summarizer
	prices       ai.PriceTable
	store        storage.ResultStore
	observer     Observer
	recorder     engine.Recorder
	logger       *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStore persists every successful result to store.
func WithStore(store storage.ResultStore) Option {
	return func(c *Coordinator) { c.store = store }
}

// WithObserver sets the session observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithRecorder sets the crawl event recorder.
func WithRecorder(r engine.Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// NewCoordinator creates a Coordinator. A nil client falls back to the
// offline lexicon classifier.
func NewCoordinator(cfg *config.Config, factory scraper.Factory, client ai.Client, logger *slog.Logger, opts ...Option) *Coordinator {
	if client == nil {
		client = ai.NewLexiconClient()
	}
	maxComments := cfg.Analysis.MaxComments
	if maxComments <= 0 {
		maxComments = 10
	}
	c := &Coordinator{
		cfg:        cfg,
		factory:    factory,
		client:     client,
		cleaner:    pipeline.Default(maxComments, cfg.Analysis.RedactPII, logger),
		scorer:     ai.NewScorer(client, cfg.LLM, logger),
		aggregator: ai.NewAggregator(client, cfg.LLM, cfg.Analysis, logger),
		summarizer: ai.NewSummarizer(client, cfg.LLM, cfg.Analysis, logger),
		prices:     ai.PriceTable(cfg.Pricing.Models),
		logger:     logger.With("component", "coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}

	var engineOpts []engine.Option
	if c.recorder != nil {
		engineOpts = append(engineOpts, engine.WithRecorder(c.recorder))
	}
	c.orchestrator = engine.NewOrchestrator(cfg.Crawl, logger, engineOpts...)
	return c
}

// Orchestrator returns the crawl orchestrator, mainly for its stats.
func (c *Coordinator) Orchestrator() *engine.Orchestrator {
	return c.orchestrator
}

// Close releases the result store.
func (c *Coordinator) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// keywordOutcome is the crawl and scoring outcome of one keyword.
type keywordOutcome struct {
	keyword  string
	articles []*types.Article
	comments []ai.CommentSentiment
	counts   types.SentimentCounts
	timing   types.Timing
	usage    types.TokenUsage
	err      string
	timedOut bool
}

// Analyze runs one session. It never returns nil, never returns an error
// value and never panics: every failure becomes the error shape.
func (c *Coordinator) Analyze(ctx context.Context, req AnalyzeRequest) (result *types.AnalysisResult) {
	start := time.Now()
	timedOut := false
	if c.observer != nil {
		c.observer.SessionStarted()
		defer func() { c.observer.SessionFinished(result, time.Since(start), timedOut) }()
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("analysis panicked", "keyword", req.Keyword, "panic", r)
			result = types.ErrorResult(fmt.Sprintf("뉴스 분석 중 오류: %v", r), req.Keyword, req.Sources)
		}
	}()

	keyword, err := NormalizeKeyword(req.Keyword, c.cfg.Analysis.MaxKeywordLength)
	if err != nil {
		c.logger.Warn("invalid keyword", "keyword", req.Keyword, "error", err)
		return types.ErrorResult("유효하지 않은 키워드입니다: "+req.Keyword, req.Keyword, req.Sources)
	}

	sel := SelectSources(req.Sources, c.cfg.Analysis.DefaultSources, c.factory.Supports)
	if len(sel.Valid) == 0 {
		r := types.ErrorResult(
			fmt.Sprintf("선택한 뉴스 소스(%s)는 현재 지원하지 않습니다. 네이버 또는 구글을 선택해주세요.", strings.Join(sel.Rejected, ", ")),
			keyword, req.Sources)
		r.RejectedSources = sel.Rejected
		r.SupportedSources = types.SupportedSourceNames()
		return r
	}
	if len(sel.Rejected) > 0 {
		c.logger.Warn("ignoring unsupported sources", "rejected", sel.Rejected)
	}

	maxArticles := c.clampMax(req.MaxArticles)
	query := types.NewSearchQuery(keyword, sel.Valid, maxArticles)
	sessionID := uuid.NewString()
	sourceLabels := types.SourceLabels(sel.Valid)
	log := c.logger.With("session", sessionID, "keyword", keyword)
	log.Info("analysis started", "sources", sel.Valid, "max_articles", maxArticles, "search_type", query.Operator)

	scrapers, err := c.openScrapers(sel.Valid)
	if err != nil {
		log.Error("scraper setup failed", "error", err)
		return types.ErrorResult(fmt.Sprintf("뉴스 분석 중 오류: %v", err), keyword, sourceLabels)
	}
	defer c.closeScrapers(scrapers)

	budget := query.PerKeywordBudget(c.cfg.Analysis.ORMinPerKeyword)
	outcomes := make([]*keywordOutcome, 0, len(query.Keywords))
	for _, kw := range query.Keywords {
		o := c.collect(ctx, kw, scrapers, budget, log)
		if o.timedOut {
			timedOut = true
		}
		outcomes = append(outcomes, o)
	}

	var ok []*keywordOutcome
	for _, o := range outcomes {
		if o.err == "" {
			ok = append(ok, o)
		}
	}
	if len(ok) == 0 {
		return types.ErrorResult(outcomes[0].err, keyword, sourceLabels)
	}

	result = c.merge(ctx, query, ok, log)
	result.SessionID = sessionID
	result.Sources = sourceLabels
	if query.Operator == types.OperatorOR {
		result.KeywordResults = keywordResults(outcomes)
	}
	result.Timing.TotalTime = time.Since(start).Seconds()

	log.Info("analysis complete",
		"articles", result.TotalArticles,
		"tokens", result.TokenUsage.TotalTokens,
		"cost", result.TokenUsage.EstimatedCost,
		"duration", time.Since(start),
	)

	c.persist(ctx, result, log)
	return result
}

// Search runs only the search phase and returns candidate URLs per source.
func (c *Coordinator) Search(ctx context.Context, keyword string, sources []string, maxArticles int) (map[types.SourceID][]string, error) {
	keyword, err := NormalizeKeyword(keyword, c.cfg.Analysis.MaxKeywordLength)
	if err != nil {
		return nil, err
	}
	sel := SelectSources(sources, c.cfg.Analysis.DefaultSources, c.factory.Supports)
	if len(sel.Valid) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedSource, strings.Join(sel.Rejected, ", "))
	}

	scrapers, err := c.openScrapers(sel.Valid)
	if err != nil {
		return nil, err
	}
	defer c.closeScrapers(scrapers)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Crawl.Timeout)
	defer cancel()
	return c.orchestrator.SearchAll(ctx, scrapers, keyword, c.clampMax(maxArticles)), nil
}

func (c *Coordinator) clampMax(n int) int {
	if n <= 0 {
		n = c.cfg.Analysis.DefaultMaxArticles
	}
	if limit := c.cfg.Analysis.MaxArticles; limit > 0 && n > limit {
		n = limit
	}
	if n <= 0 {
		n = 5
	}
	return n
}

func (c *Coordinator) openScrapers(sources []types.SourceID) ([]scraper.Scraper, error) {
	scrapers := make([]scraper.Scraper, 0, len(sources))
	for _, id := range sources {
		s, err := c.factory.New(id)
		if err != nil {
			c.closeScrapers(scrapers)
			return nil, fmt.Errorf("create %s scraper: %w", id, err)
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}

func (c *Coordinator) closeScrapers(scrapers []scraper.Scraper) {
	for _, s := range scrapers {
		if err := s.Close(); err != nil {
			c.logger.Warn("scraper close failed", "source", s.Source(), "error", err)
		}
	}
}

// collect crawls and scores one keyword under the crawl timeout.
func (c *Coordinator) collect(ctx context.Context, keyword string, scrapers []scraper.Scraper, maxPerSource int, log *slog.Logger) *keywordOutcome {
	o := &keywordOutcome{keyword: keyword}
	meter := ai.NewUsageMeter(c.prices, c.client.Model())

	crawlStart := time.Now()
	crawlCtx, cancel := context.WithTimeout(ctx, c.cfg.Crawl.Timeout)
	articles, err := c.orchestrator.ScrapeAll(crawlCtx, scrapers, keyword, maxPerSource)
	cancel()
	o.timing.CrawlingTime = time.Since(crawlStart).Seconds()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("crawl timed out", "keyword", keyword, "timeout", c.cfg.Crawl.Timeout)
		o.err = fmt.Sprintf("'%s' 키워드로 기사 검색 중 시간 초과가 발생했습니다.", keyword)
		o.timedOut = true
		return o
	case err != nil:
		o.err = fmt.Sprintf("뉴스 분석 중 오류: %v", err)
		return o
	}

	articles = c.cleaner.ProcessAll(articles)
	if len(articles) == 0 {
		o.err = fmt.Sprintf("'%s' 키워드로 기사를 찾을 수 없습니다.", keyword)
		return o
	}

	sentimentStart := time.Now()
	o.comments = c.score(ctx, articles, meter)
	for _, a := range articles {
		a.Keyword = keyword
		if a.Sentiment != nil {
			o.counts.Add(a.Sentiment.Label)
		} else {
			o.counts.Add(types.Neutral)
		}
	}
	o.timing.SentimentTime = time.Since(sentimentStart).Seconds()

	if c.cfg.LLM.ArticleSummaries {
		summaryStart := time.Now()
		c.summarizeArticles(ctx, articles, meter)
		o.timing.SummaryTime = time.Since(summaryStart).Seconds()
	}

	o.articles = articles
	o.usage = meter.Usage()
	o.timing.TotalTime = o.timing.CrawlingTime + o.timing.SentimentTime + o.timing.SummaryTime
	return o
}

// score classifies every article body and its comments with bounded
// concurrency. It returns the comment sentiments in article order.
func (c *Coordinator) score(ctx context.Context, articles []*types.Article, meter *ai.UsageMeter) []ai.CommentSentiment {
	textLimit := c.cfg.Analysis.ArticleTextLimit
	if textLimit <= 0 {
		textLimit = 500
	}

	var eg errgroup.Group
	eg.SetLimit(max(c.cfg.Analysis.ScoringConcurrency, 1))
	for _, a := range articles {
		eg.Go(func() error {
			res, usage := c.scorer.Score(ctx, parser.TruncateRunes(a.Text(), textLimit))
			meter.Record(usage)
			a.Sentiment = &res
			return nil
		})
		for i := range a.Comments {
			cm := &a.Comments[i]
			eg.Go(func() error {
				res, usage := c.scorer.Score(ctx, cm.Text)
				meter.Record(usage)
				cm.Sentiment = &res
				return nil
			})
		}
	}
	_ = eg.Wait()

	var out []ai.CommentSentiment
	for _, a := range articles {
		for _, cm := range a.Comments {
			out = append(out, ai.CommentSentiment{Text: cm.Text, Sentiment: *cm.Sentiment})
		}
	}
	return out
}

func (c *Coordinator) summarizeArticles(ctx context.Context, articles []*types.Article, meter *ai.UsageMeter) {
	var eg errgroup.Group
	eg.SetLimit(max(c.cfg.Analysis.ScoringConcurrency, 1))
	for _, a := range articles {
		eg.Go(func() error {
			summary, usage := c.summarizer.SummarizeArticle(ctx, a)
			meter.Record(usage)
			a.Summary = summary
			return nil
		})
	}
	_ = eg.Wait()
}

// merge combines keyword outcomes into the success shape: articles are
// concatenated, counts and usage summed, and the trend, keyword table and
// overall summary computed once over the merged set.
func (c *Coordinator) merge(ctx context.Context, query types.SearchQuery, outcomes []*keywordOutcome, log *slog.Logger) *types.AnalysisResult {
	var (
		articles []*types.Article
		comments []ai.CommentSentiment
		counts   types.SentimentCounts
		timing   types.Timing
		usage    types.TokenUsage
	)
	for _, o := range outcomes {
		for _, a := range o.articles {
			a.Keyword = query.Keyword
			if query.Operator == types.OperatorOR {
				a.MatchedKeyword = o.keyword
			}
		}
		articles = append(articles, o.articles...)
		comments = append(comments, o.comments...)
		counts.Merge(o.counts)
		timing.Add(o.timing)
		usage.Add(o.usage)
	}

	meter := ai.NewUsageMeter(c.prices, c.client.Model())

	trendStart := time.Now()
	trend, trendUsage := c.aggregator.Aggregate(ctx, query.Keyword, comments)
	meter.Record(trendUsage)
	timing.SentimentTime += time.Since(trendStart).Seconds()

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Text()
	}
	keywords := ai.TopKeywords(texts, query.Keywords, c.cfg.Analysis.TopKeywords)

	summaryStart := time.Now()
	overall, summaryUsage := c.summarizer.SummarizeOverall(ctx, query.Keyword, articles)
	meter.Record(summaryUsage)
	timing.SummaryTime += time.Since(summaryStart).Seconds()

	usage.Add(meter.Usage())
	if usage.Model == "" {
		usage.Model = c.client.Model()
	}
	if overall == "" {
		log.Debug("overall summary unavailable")
	}

	now := time.Now()
	return &types.AnalysisResult{
		Keyword:               query.Keyword,
		SearchType:            query.Operator,
		TotalArticles:         len(articles),
		Articles:              articles,
		SentimentDistribution: &counts,
		Trend:                 &trend,
		Keywords:              keywords,
		OverallSummary:        overall,
		Timing:                &timing,
		TokenUsage:            &usage,
		AnalyzedAt:            &now,
	}
}

func keywordResults(outcomes []*keywordOutcome) []types.KeywordResult {
	results := make([]types.KeywordResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = types.KeywordResult{
			Keyword:               o.keyword,
			TotalArticles:         len(o.articles),
			SentimentDistribution: o.counts,
			Timing:                o.timing,
			TokenUsage:            o.usage,
			Error:                 o.err,
		}
	}
	return results
}

// persist saves result when a store is configured. Failures are logged and
// never change the result.
func (c *Coordinator) persist(ctx context.Context, result *types.AnalysisResult, log *slog.Logger) {
	if c.store == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := c.store.Save(saveCtx, result)
	if c.observer != nil {
		c.observer.ResultStored(err)
	}
	if err != nil {
		log.Error("result persistence failed", "store", c.store.Name(), "error", err)
		return
	}
	log.Debug("result persisted", "store", c.store.Name())
}
