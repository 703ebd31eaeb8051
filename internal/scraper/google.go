package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/fetcher"
	"github.com/IshaanNene/NewsPulse/internal/parser"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// resolveConcurrency bounds parallel redirect resolution during search.
const resolveConcurrency = 4

// FeedFetcher fetches the RSS feed and resolves its redirect links.
type FeedFetcher interface {
	fetcher.Fetcher
	fetcher.Resolver
}

// feedItem is what the RSS feed said about one link.
type feedItem struct {
	title     string
	published *time.Time
}

// Google scrapes Google News: search through the RSS feed, articles from
// the publisher page each feed link leads to.
type Google struct {
	cfg       config.SourceConfig
	feed      FeedFetcher
	pages     fetcher.Fetcher
	extractor *parser.Extractor
	logger    *slog.Logger

	titleCandidates   []string
	contentCandidates []string

	mu    sync.Mutex
	items map[string]feedItem
}

// NewGoogle creates a Google scraper. feed serves the RSS search and link
// resolution; pages fetches publisher articles and may be the same
// fetcher. The scraper takes ownership of both.
func NewGoogle(cfg config.SourceConfig, feed FeedFetcher, pages fetcher.Fetcher, logger *slog.Logger) *Google {
	if pages == nil {
		pages = feed
	}
	return &Google{
		cfg:               cfg,
		feed:              feed,
		pages:             pages,
		extractor:         parser.NewExtractor(logger),
		logger:            logger.With("component", "google_scraper"),
		titleCandidates:   orDefault(cfg.TitleSelectors, genericTitleCandidates),
		contentCandidates: orDefault(cfg.ContentSelectors, genericContentCandidates),
		items:             make(map[string]feedItem),
	}
}

// Source implements Scraper.
func (g *Google) Source() types.SourceID { return types.SourceGoogle }

// SearchURL builds the Korean-edition RSS search URL for keyword.
func (g *Google) SearchURL(keyword string) string {
	return g.cfg.SearchURL + "?q=" + url.QueryEscape(keyword) + "&hl=ko&gl=KR&ceid=KR:ko"
}

// SearchNews implements Scraper. Feed links are resolved to publisher URLs;
// a link whose resolution fails is kept as is.
func (g *Google) SearchNews(ctx context.Context, keyword string, maxResults int) ([]string, error) {
	feedURL := g.SearchURL(keyword)
	req, err := types.NewRequest(types.SourceGoogle, feedURL)
	if err != nil {
		return nil, err
	}

	resp, err := g.feed.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("google rss %q: %w", keyword, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &types.ParseError{URL: feedURL, Err: fmt.Errorf("rss parse failed: %w", err)}
	}

	seen := make(map[string]bool)
	var links []string
	var meta []feedItem
	for _, item := range feed.Items {
		if len(links) >= maxResults {
			break
		}
		link := strings.TrimSpace(item.Link)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
		meta = append(meta, feedItem{title: parser.CleanText(item.Title), published: item.PublishedParsed})
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("google rss %q: %w", keyword, types.ErrNoResultsFound)
	}

	resolved := make([]string, len(links))
	copy(resolved, links)
	if g.cfg.ResolveRedirects {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(resolveConcurrency)
		for i, link := range links {
			eg.Go(func() error {
				final, err := g.feed.Resolve(egCtx, link)
				if err != nil || final == "" {
					g.logger.Debug("redirect resolution failed, keeping feed link", "url", link, "error", err)
					return nil
				}
				resolved[i] = final
				return nil
			})
		}
		_ = eg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	g.mu.Lock()
	for i := range links {
		g.items[resolved[i]] = meta[i]
		g.items[links[i]] = meta[i]
	}
	g.mu.Unlock()

	g.logger.Info("google search complete", "keyword", keyword, "urls", len(resolved))
	return resolved, nil
}

// ExtractArticle implements Scraper. The article URL is where the fetch
// finally landed.
func (g *Google) ExtractArticle(ctx context.Context, articleURL string) (*types.Article, error) {
	req, err := types.NewRequest(types.SourceGoogle, articleURL)
	if err != nil {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "invalid url", Err: err}
	}

	resp, err := g.pages.Fetch(ctx, req)
	if err != nil {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "fetch failed", Err: err}
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "parse failed", Err: err}
	}

	g.mu.Lock()
	item := g.items[articleURL]
	g.mu.Unlock()

	meta := g.extractor.Meta(doc)
	title, _, ok := g.extractor.FirstText(doc, g.titleCandidates, g.cfg.MinTitleLength)
	if !ok {
		title = meta.BestTitle()
	}
	if title == "" {
		title = parser.StripSiteSuffix(item.title)
	}

	content, _, ok := g.extractor.FirstText(doc, g.contentCandidates, g.cfg.MinContentLength)
	if !ok {
		if readable, err := parser.ReadableContent(resp.Body, resp.FinalURL); err == nil &&
			len([]rune(readable.Text)) > g.cfg.MinContentLength {
			content = readable.Text
			if title == "" {
				title = readable.Title
			}
		}
	}
	if title == "" || content == "" {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "no title or body matched"}
	}

	finalURL := resp.FinalURL
	if finalURL == "" {
		finalURL = articleURL
	}
	article := types.NewArticle(finalURL, types.SourceGoogle)
	article.Title = title
	article.Content = parser.TruncateRunes(content, positive(g.cfg.MaxContentLength, 3000))
	article.PublishedAt = meta.PublishedAt
	if article.PublishedAt == nil {
		article.PublishedAt = item.published
	}

	g.logger.Debug("google article extracted", "url", articleURL, "final_url", finalURL)
	return article, nil
}

// Close implements Scraper.
func (g *Google) Close() error {
	err := g.feed.Close()
	if g.pages != fetcher.Fetcher(g.feed) {
		if perr := g.pages.Close(); err == nil {
			err = perr
		}
	}
	return err
}
