package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/NewsPulse/internal/automation"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/fetcher"
	"github.com/IshaanNene/NewsPulse/internal/parser"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// commentLoadWait is how long to let a "more comments" click render.
const commentLoadWait = 2 * time.Second

// Naver scrapes Naver News: search through the rendered results page,
// articles from the n.news.naver.com article view.
type Naver struct {
	cfg         config.SourceConfig
	fetcher     fetcher.Fetcher
	extractor   *parser.Extractor
	media       parser.MediaRules
	maxComments int
	logger      *slog.Logger

	linkCandidates    []string
	titleCandidates   []string
	contentCandidates []string
	commentCandidates []string
}

// NewNaver creates a Naver scraper that takes ownership of f.
func NewNaver(cfg config.SourceConfig, f fetcher.Fetcher, maxComments int, logger *slog.Logger) *Naver {
	return &Naver{
		cfg:       cfg,
		fetcher:   f,
		extractor: parser.NewExtractor(logger),
		media: parser.MediaRules{
			ImageCandidates: naverImageCandidates,
			TableCandidates: naverTableCandidates,
			CaptionSelector: naverCaptionSelector,
			Filter:          parser.DefaultImageFilter(),
			MaxImages:       positive(cfg.MaxImages, 10),
			MaxTables:       positive(cfg.MaxTables, 5),
			MaxTableHTML:    5000,
		},
		maxComments:       positive(maxComments, 10),
		logger:            logger.With("component", "naver_scraper"),
		linkCandidates:    orDefault(cfg.LinkSelectors, naverLinkCandidates),
		titleCandidates:   orDefault(cfg.TitleSelectors, naverTitleCandidates),
		contentCandidates: orDefault(cfg.ContentSelectors, naverContentCandidates),
		commentCandidates: orDefault(cfg.CommentSelectors, naverCommentCandidates),
	}
}

// Source implements Scraper.
func (n *Naver) Source() types.SourceID { return types.SourceNaver }

// SearchURL builds the newest-first news search URL for keyword.
func (n *Naver) SearchURL(keyword string) string {
	q := url.Values{}
	q.Set("where", "news")
	q.Set("query", keyword)
	q.Set("sort", "1")
	return n.cfg.SearchURL + "?" + q.Encode()
}

// SearchNews implements Scraper. Link candidates are tried in order and the
// first one that yields any allowed article link wins.
func (n *Naver) SearchNews(ctx context.Context, keyword string, maxResults int) ([]string, error) {
	searchURL := n.SearchURL(keyword)
	req, err := types.NewRequest(types.SourceNaver, searchURL)
	if err != nil {
		return nil, err
	}

	resp, err := n.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("naver search %q: %w", keyword, err)
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: searchURL, Err: err}
	}

	seen := make(map[string]bool)
	var urls []string
	for _, candidate := range n.linkCandidates {
		sel, _, ok := n.extractor.FirstSelection(doc, []string{candidate}, 1)
		if !ok {
			continue
		}
		for _, link := range parser.Links(sel, resp.FinalURL) {
			if len(urls) >= maxResults {
				break
			}
			if !IsNaverArticleURL(link) {
				continue
			}
			canonical := types.CanonicalURL(link)
			if seen[canonical] {
				continue
			}
			seen[canonical] = true
			urls = append(urls, link)
		}
		if len(urls) > 0 {
			break
		}
	}

	n.logger.Info("naver search complete", "keyword", keyword, "urls", len(urls))
	if len(urls) == 0 {
		return nil, fmt.Errorf("naver search %q: %w", keyword, types.ErrNoResultsFound)
	}
	return urls, nil
}

// ExtractArticle implements Scraper.
func (n *Naver) ExtractArticle(ctx context.Context, articleURL string) (*types.Article, error) {
	req, err := types.NewRequest(types.SourceNaver, articleURL)
	if err != nil {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "invalid url", Err: err}
	}

	var resp *types.Response
	if af, ok := n.fetcher.(fetcher.ActionFetcher); ok && n.cfg.MoreCommentsSel != "" && n.cfg.MoreClicks > 0 {
		resp, err = af.FetchWithActions(ctx, req, automation.Sequence(
			automation.ScrollToBottom(),
			automation.ClickRepeatedly(n.cfg.MoreCommentsSel, n.cfg.MoreClicks, commentLoadWait),
		))
	} else {
		resp, err = n.fetcher.Fetch(ctx, req)
	}
	if err != nil {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "fetch failed", Err: err}
	}

	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "parse failed", Err: err}
	}
	meta := n.extractor.Meta(doc)

	title, _, ok := n.extractor.FirstText(doc, n.titleCandidates, n.cfg.MinTitleLength)
	if !ok {
		title = meta.BestTitle()
	}
	content, selector, ok := n.extractor.FirstText(doc, n.contentCandidates, n.cfg.MinContentLength)
	if title == "" || !ok {
		return nil, &types.ExtractionFailedError{URL: articleURL, Reason: "no title or body matched"}
	}

	article := types.NewArticle(articleURL, types.SourceNaver)
	article.Title = title
	article.Content = parser.TruncateRunes(content, positive(n.cfg.MaxContentLength, 3000))
	article.PublishedAt = meta.PublishedAt
	article.Images = n.extractor.Images(doc, n.media, resp.FinalURL)
	article.Tables = n.extractor.Tables(doc, n.media)
	article.Comments = n.comments(doc)
	article.CommentCount = len(article.Comments)

	n.logger.Debug("naver article extracted",
		"url", articleURL,
		"content_selector", selector,
		"images", len(article.Images),
		"tables", len(article.Tables),
		"comments", article.CommentCount,
	)
	return article, nil
}

// comments reads up to maxComments non-empty comment bodies.
func (n *Naver) comments(doc *goquery.Document) []types.Comment {
	comments := []types.Comment{}
	sel, _, ok := n.extractor.FirstSelection(doc, n.commentCandidates, 1)
	if !ok {
		return comments
	}
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(comments) >= n.maxComments {
			return false
		}
		if text := parser.SelectionText(s); text != "" {
			comments = append(comments, types.Comment{
				ID:   fmt.Sprintf("comment_%d", i+1),
				Text: text,
			})
		}
		return true
	})
	return comments
}

// Close implements Scraper.
func (n *Naver) Close() error {
	return n.fetcher.Close()
}

// IsNaverArticleURL reports whether rawURL matches the article allow-list.
func IsNaverArticleURL(rawURL string) bool {
	for _, pattern := range naverArticlePatterns {
		if strings.Contains(rawURL, pattern) {
			return true
		}
	}
	return false
}
