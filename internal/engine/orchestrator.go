// Package engine runs the two-phase crawl of one keyword across several
// news sources.
package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/scraper"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Recorder receives crawl events, typically to update metrics.
type Recorder interface {
	SearchFailed(source types.SourceID)
	ArticleExtracted(source types.SourceID)
	ExtractionFailed(source types.SourceID)
}

// Orchestrator fans searches out to every source concurrently and then
// extracts the discovered articles with bounded concurrency.
type Orchestrator struct {
	concurrency   int
	courtesyDelay time.Duration
	logger        *slog.Logger
	recorder      Recorder
	stats         *Stats
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithConcurrency overrides the extraction worker limit.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// NewOrchestrator creates an Orchestrator from the crawl configuration.
func NewOrchestrator(cfg config.CrawlConfig, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		concurrency:   cfg.Concurrency,
		courtesyDelay: cfg.CourtesyDelay,
		logger:        logger.With("component", "orchestrator"),
		stats:         newStats(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// Stats returns the live crawl statistics.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// task is one article URL waiting for extraction.
type task struct {
	url     string
	scraper scraper.Scraper
}

// SearchAll runs SearchNews on every scraper concurrently. A failing
// source is logged and contributes an empty list; it never aborts the
// others. The result is keyed by source.
func (o *Orchestrator) SearchAll(ctx context.Context, scrapers []scraper.Scraper, keyword string, maxPerSource int) map[types.SourceID][]string {
	lists := make([][]string, len(scrapers))

	var eg errgroup.Group
	for i, s := range scrapers {
		eg.Go(func() error {
			o.stats.Searches.Add(1)
			urls, err := s.SearchNews(ctx, keyword, maxPerSource)
			if err != nil {
				o.stats.SearchesFailed.Add(1)
				if o.recorder != nil {
					o.recorder.SearchFailed(s.Source())
				}
				o.logger.Warn("search failed", "source", s.Source(), "keyword", keyword, "error", err)
				return nil
			}
			if len(urls) > maxPerSource {
				urls = urls[:maxPerSource]
			}
			lists[i] = urls
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[types.SourceID][]string, len(scrapers))
	for i, s := range scrapers {
		out[s.Source()] = lists[i]
	}
	return out
}

// ScrapeAll searches every source and extracts the discovered articles.
// URLs are deduplicated in canonical form across sources; failed
// extractions are dropped and counted. When the context expires the
// articles gathered so far are returned together with ctx.Err().
func (o *Orchestrator) ScrapeAll(ctx context.Context, scrapers []scraper.Scraper, keyword string, maxPerSource int) ([]*types.Article, error) {
	start := time.Now()
	found := o.SearchAll(ctx, scrapers, keyword, maxPerSource)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dedup := NewDeduplicator(len(scrapers) * maxPerSource)
	var tasks []task
	for _, s := range scrapers {
		urls := found[s.Source()]
		o.stats.recordSource(s.Source(), func(ss *SourceStats) { ss.Discovered += int64(len(urls)) })
		for _, u := range urls {
			o.stats.URLsDiscovered.Add(1)
			if !dedup.Claim(s.Source(), u) {
				o.stats.URLsDuplicate.Add(1)
				owner, _ := dedup.Owner(u)
				o.logger.Debug("duplicate article url", "url", u, "source", s.Source(), "claimed_by", owner)
				continue
			}
			tasks = append(tasks, task{url: u, scraper: s})
		}
	}

	o.logger.Info("search phase complete",
		"keyword", keyword,
		"sources", len(scrapers),
		"urls", len(tasks),
		"duration", time.Since(start),
	)

	results := make([]*types.Article, len(tasks))

	// A single worker is a sequential crawl; space its requests out.
	var limiter *rate.Limiter
	if o.concurrency == 1 && o.courtesyDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(o.courtesyDelay), 1)
	}

	var eg errgroup.Group
	eg.SetLimit(o.concurrency)
	for i, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
			}
			o.stats.ActiveWorkers.Add(1)
			defer o.stats.ActiveWorkers.Add(-1)

			article, err := t.scraper.ExtractArticle(ctx, t.url)
			source := t.scraper.Source()
			if err != nil {
				o.stats.ArticlesFailed.Add(1)
				o.stats.recordSource(source, func(ss *SourceStats) { ss.Failed++ })
				if o.recorder != nil {
					o.recorder.ExtractionFailed(source)
				}
				o.logger.Warn("article extraction failed", "source", source, "url", t.url, "error", err)
				return nil
			}

			o.stats.ArticlesExtracted.Add(1)
			o.stats.recordSource(source, func(ss *SourceStats) {
				ss.Extracted++
				ss.LastFetch = time.Now()
			})
			if o.recorder != nil {
				o.recorder.ArticleExtracted(source)
			}
			results[i] = article
			return nil
		})
	}
	_ = eg.Wait()

	articles := make([]*types.Article, 0, len(results))
	for _, a := range results {
		if a != nil {
			articles = append(articles, a)
		}
	}

	o.logger.Info("crawl complete",
		"keyword", keyword,
		"articles", len(articles),
		"failed", len(tasks)-len(articles),
		"duration", time.Since(start),
	)

	if err := ctx.Err(); err != nil {
		return articles, err
	}
	return articles, nil
}
