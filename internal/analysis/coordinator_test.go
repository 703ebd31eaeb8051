package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/NewsPulse/internal/ai"
	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/scraper"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// stubScraper returns count URLs per keyword and builds articles whose
// body carries the keyword.
type stubScraper struct {
	source      types.SourceID
	count       int
	searchDelay time.Duration
	comments    []string
	mention     string
	closed      atomic.Int32
}

func (s *stubScraper) Source() types.SourceID { return s.source }

func (s *stubScraper) SearchNews(ctx context.Context, keyword string, max int) ([]string, error) {
	if s.searchDelay > 0 {
		select {
		case <-time.After(s.searchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	n := min(s.count, max)
	if n == 0 {
		return nil, types.ErrNoResultsFound
	}
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://%s.example.com/%s/%d", s.source, keyword, i)
	}
	return urls, nil
}

func (s *stubScraper) ExtractArticle(ctx context.Context, url string) (*types.Article, error) {
	a := types.NewArticle(url, s.source)
	a.Title = "반도체 호재 " + url
	a.Content = "반도체 수출 호재 소식 " + url
	if s.mention != "" {
		a.Content += " " + s.mention
	}
	for i, text := range s.comments {
		a.Comments = append(a.Comments, types.Comment{ID: fmt.Sprintf("comment_%d", i+1), Text: text})
	}
	return a, nil
}

func (s *stubScraper) Close() error {
	s.closed.Add(1)
	return nil
}

type stubFactory struct {
	scrapers map[types.SourceID]*stubScraper
	created  atomic.Int32
}

func (f *stubFactory) Supports(id types.SourceID) bool {
	_, ok := f.scrapers[id]
	return ok
}

func (f *stubFactory) New(id types.SourceID) (scraper.Scraper, error) {
	s, ok := f.scrapers[id]
	if !ok {
		return nil, types.ErrUnsupportedSource
	}
	f.created.Add(1)
	return s, nil
}

// scriptedClient labels texts mentioning 악재 negative, 호재 positive and
// everything else neutral. Every call costs 10 tokens.
type scriptedClient struct {
	mu    sync.Mutex
	tasks map[ai.Task]int
}

func (c *scriptedClient) Model() string { return "gpt-4o-mini" }

func (c *scriptedClient) Chat(ctx context.Context, req ai.ChatRequest) (*ai.Completion, error) {
	c.mu.Lock()
	if c.tasks == nil {
		c.tasks = make(map[ai.Task]int)
	}
	c.tasks[req.Task]++
	c.mu.Unlock()

	usage := types.TokenUsage{PromptTokens: 8, CompletionTokens: 2, TotalTokens: 10}
	switch req.Task {
	case ai.TaskSentiment:
		label := "neutral"
		switch {
		case strings.Contains(req.User, "악재"):
			label = "negative"
		case strings.Contains(req.User, "호재"):
			label = "positive"
		}
		return &ai.Completion{Text: fmt.Sprintf(`{"sentiment":%q,"confidence":0.8,"reason":"test","keywords":[]}`, label), Usage: usage}, nil
	case ai.TaskTrend:
		return &ai.Completion{Text: `{"summary":"댓글 여론 요약"}`, Usage: usage}, nil
	default:
		return &ai.Completion{Text: "요약문", Usage: usage}, nil
	}
}

func (c *scriptedClient) count(t ai.Task) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tasks[t]
}

type recordingStore struct {
	mu      sync.Mutex
	saved   []*types.AnalysisResult
	failErr error
}

func (s *recordingStore) Save(ctx context.Context, r *types.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.saved = append(s.saved, r)
	return nil
}

func (s *recordingStore) Close() error { return nil }
func (s *recordingStore) Name() string { return "recording" }

type countingObserver struct {
	started, finished, stored, timedOut int
}

func (o *countingObserver) SessionStarted() { o.started++ }
func (o *countingObserver) SessionFinished(r *types.AnalysisResult, d time.Duration, timedOut bool) {
	o.finished++
	if timedOut {
		o.timedOut++
	}
}
func (o *countingObserver) ResultStored(err error) { o.stored++ }

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Crawl.CourtesyDelay = 0
	cfg.Crawl.Concurrency = 4
	cfg.Crawl.Timeout = 5 * time.Second
	cfg.Analysis.ScoringConcurrency = 4
	return cfg
}

func twoSources() *stubFactory {
	return &stubFactory{scrapers: map[types.SourceID]*stubScraper{
		types.SourceNaver:  {source: types.SourceNaver, count: 10, comments: []string{"좋은 소식", "악재가 걱정된다"}},
		types.SourceGoogle: {source: types.SourceGoogle, count: 10},
	}}
}

func TestAnalyzeSingleKeyword(t *testing.T) {
	factory := twoSources()
	client := &scriptedClient{}
	c := NewCoordinator(testConfig(), factory, client, testLogger)

	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", Sources: []string{"naver", "google"}, MaxArticles: 2})
	if r.IsError() {
		t.Fatalf("unexpected error result: %s", r.Error)
	}
	if r.SessionID == "" {
		t.Error("missing session id")
	}
	if r.SearchType != types.OperatorSingle {
		t.Errorf("searchType = %q", r.SearchType)
	}
	if r.TotalArticles != 4 || len(r.Articles) != 4 {
		t.Fatalf("totalArticles = %d, articles = %d", r.TotalArticles, len(r.Articles))
	}
	if got := r.SentimentDistribution.Total(); got != r.TotalArticles {
		t.Errorf("distribution total %d != %d", got, r.TotalArticles)
	}
	if r.SentimentDistribution.Positive != 4 {
		t.Errorf("positive = %d, want 4", r.SentimentDistribution.Positive)
	}
	if r.Trend.TotalComments != 4 || r.Trend.Summary == "" {
		t.Errorf("trend = %+v", r.Trend)
	}
	if strings.Join(r.Sources, ",") != "네이버,구글" {
		t.Errorf("sources = %v", r.Sources)
	}
	for _, a := range r.Articles {
		if a.Sentiment == nil {
			t.Fatalf("article %s not scored", a.URL)
		}
		if a.Source == types.SourceNaver && a.CommentCount != 2 {
			t.Errorf("commentCount = %d", a.CommentCount)
		}
		for _, cm := range a.Comments {
			if cm.Sentiment == nil {
				t.Errorf("comment %s not scored", cm.ID)
			}
		}
	}
	if r.OverallSummary != "요약문" {
		t.Errorf("overallSummary = %q", r.OverallSummary)
	}
	// 4 article scores, 4 comment scores, 1 trend, 4 article summaries, 1 overall.
	if r.TokenUsage.TotalTokens != 140 {
		t.Errorf("totalTokens = %d, want 140", r.TokenUsage.TotalTokens)
	}
	if r.TokenUsage.EstimatedCost <= 0 {
		t.Error("expected a cost estimate for a priced model")
	}
	if r.AnalyzedAt == nil || r.Timing.TotalTime <= 0 {
		t.Error("missing timing or analyzedAt")
	}
	if len(r.KeywordResults) != 0 {
		t.Error("single keyword must not report keywordResults")
	}
	for _, s := range factory.scrapers {
		if s.closed.Load() != 1 {
			t.Errorf("%s closed %d times", s.source, s.closed.Load())
		}
	}
}

func TestAnalyzeUnsupportedSourcesOnly(t *testing.T) {
	factory := twoSources()
	c := NewCoordinator(testConfig(), factory, &scriptedClient{}, testLogger)

	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", Sources: []string{"Daum", "KBS"}})
	if !r.IsError() {
		t.Fatal("expected error shape")
	}
	if !strings.Contains(r.Error, "Daum, KBS") {
		t.Errorf("error = %q", r.Error)
	}
	if strings.Join(r.RejectedSources, ",") != "Daum,KBS" {
		t.Errorf("rejected = %v", r.RejectedSources)
	}
	if strings.Join(r.SupportedSources, ",") != "Naver,Google" {
		t.Errorf("supported = %v", r.SupportedSources)
	}
	if factory.created.Load() != 0 {
		t.Error("no scraper should be created")
	}
}

func TestAnalyzePartialRejection(t *testing.T) {
	c := NewCoordinator(testConfig(), twoSources(), &scriptedClient{}, testLogger)
	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", Sources: []string{"naver", "daum"}, MaxArticles: 1})
	if r.IsError() {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if strings.Join(r.Sources, ",") != "네이버" || r.TotalArticles != 1 {
		t.Errorf("sources = %v, articles = %d", r.Sources, r.TotalArticles)
	}
}

func TestAnalyzeInvalidKeyword(t *testing.T) {
	c := NewCoordinator(testConfig(), twoSources(), &scriptedClient{}, testLogger)
	for _, kw := range []string{"", "   ", "삼성; DROP TABLE users", strings.Repeat("가", 101)} {
		r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: kw})
		if !strings.HasPrefix(r.Error, "유효하지 않은 키워드입니다") {
			t.Errorf("keyword %q: error = %q", kw, r.Error)
		}
	}
}

func TestAnalyzeTimeoutClosesScrapers(t *testing.T) {
	cfg := testConfig()
	cfg.Crawl.Timeout = 50 * time.Millisecond
	factory := twoSources()
	for _, s := range factory.scrapers {
		s.searchDelay = time.Second
	}
	obs := &countingObserver{}
	c := NewCoordinator(cfg, factory, &scriptedClient{}, testLogger, WithObserver(obs))

	start := time.Now()
	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", Sources: []string{"naver", "google"}})
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("timeout not honored: %v", time.Since(start))
	}
	if r.Error != "'반도체' 키워드로 기사 검색 중 시간 초과가 발생했습니다." {
		t.Errorf("error = %q", r.Error)
	}
	for _, s := range factory.scrapers {
		if s.closed.Load() != 1 {
			t.Errorf("%s not closed", s.source)
		}
	}
	if obs.started != 1 || obs.finished != 1 || obs.timedOut != 1 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestAnalyzeNoArticles(t *testing.T) {
	factory := &stubFactory{scrapers: map[types.SourceID]*stubScraper{
		types.SourceNaver: {source: types.SourceNaver},
	}}
	c := NewCoordinator(testConfig(), factory, &scriptedClient{}, testLogger)
	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "없는키워드"})
	if r.Error != "'없는키워드' 키워드로 기사를 찾을 수 없습니다." {
		t.Errorf("error = %q", r.Error)
	}
}

func TestAnalyzeORQuery(t *testing.T) {
	client := &scriptedClient{}
	c := NewCoordinator(testConfig(), twoSources(), client, testLogger)

	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "삼성전자 || LG전자", Sources: []string{"naver", "google"}, MaxArticles: 6})
	if r.IsError() {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if r.SearchType != types.OperatorOR {
		t.Errorf("searchType = %q", r.SearchType)
	}
	if len(r.KeywordResults) != 2 {
		t.Fatalf("keywordResults = %+v", r.KeywordResults)
	}
	// Budget is max(3, 6/2) = 3 per source per sub-keyword.
	for _, kr := range r.KeywordResults {
		if kr.TotalArticles != 6 || kr.Error != "" {
			t.Errorf("sub result %+v", kr)
		}
	}
	if r.TotalArticles != 12 {
		t.Errorf("totalArticles = %d, want 12", r.TotalArticles)
	}
	matched := map[string]int{}
	for _, a := range r.Articles {
		matched[a.MatchedKeyword]++
		if a.Keyword != "삼성전자 || LG전자" {
			t.Errorf("article keyword = %q", a.Keyword)
		}
	}
	if matched["삼성전자"] != 6 || matched["LG전자"] != 6 {
		t.Errorf("matched = %v", matched)
	}
	if got := r.SentimentDistribution.Total(); got != 12 {
		t.Errorf("merged distribution total = %d", got)
	}
	if client.count(ai.TaskTrend) != 1 {
		t.Errorf("trend narrated %d times, want once over the merged set", client.count(ai.TaskTrend))
	}
}

func TestAnalyzeORQueryExcludesSubKeywords(t *testing.T) {
	factory := &stubFactory{scrapers: map[types.SourceID]*stubScraper{
		types.SourceNaver: {
			source:   types.SourceNaver,
			count:    4,
			mention:  "삼성전자 LG전자 실적",
			comments: []string{"삼성전자 LG전자 모두 좋다", "LG전자 삼성전자 실적 걱정"},
		},
	}}
	c := NewCoordinator(testConfig(), factory, &scriptedClient{}, testLogger)

	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "삼성전자 || LG전자", Sources: []string{"naver"}, MaxArticles: 4})
	if r.IsError() {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	subs := map[string]bool{"삼성전자": true, "LG전자": true}
	for _, kf := range r.Keywords {
		if subs[kf.Keyword] {
			t.Errorf("keyword table contains sub-keyword %q: %v", kf.Keyword, r.Keywords)
		}
	}
	for _, topic := range r.Trend.Topics {
		if subs[topic] {
			t.Errorf("trend topics contain sub-keyword %q: %v", topic, r.Trend.Topics)
		}
	}
	found := false
	for _, kf := range r.Keywords {
		found = found || kf.Keyword == "실적"
	}
	if !found {
		t.Errorf("expected 실적 in keyword table, got %v", r.Keywords)
	}
}

func TestAnalyzeNoCommentsFallbackTrend(t *testing.T) {
	factory := &stubFactory{scrapers: map[types.SourceID]*stubScraper{
		types.SourceGoogle: {source: types.SourceGoogle, count: 2},
	}}
	c := NewCoordinator(testConfig(), factory, &scriptedClient{}, testLogger)
	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", Sources: []string{"google"}})
	if r.IsError() {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	want := types.EmptyTrend("반도체")
	if r.Trend.TotalComments != 0 || r.Trend.OverallSentiment != types.Neutral || r.Trend.Summary != want.Summary {
		t.Errorf("trend = %+v", r.Trend)
	}
}

type panickingFactory struct{}

func (panickingFactory) Supports(types.SourceID) bool { return true }

func (panickingFactory) New(types.SourceID) (scraper.Scraper, error) { panic("boom") }

func TestAnalyzeRecoversPanic(t *testing.T) {
	obs := &countingObserver{}
	c := NewCoordinator(testConfig(), panickingFactory{}, &scriptedClient{}, testLogger, WithObserver(obs))

	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체"})
	if r.Error != "뉴스 분석 중 오류: boom" {
		t.Errorf("error = %q", r.Error)
	}
	if r.Keyword != "반도체" {
		t.Errorf("keyword = %q", r.Keyword)
	}
	if obs.finished != 1 {
		t.Error("observer not notified after panic")
	}
}

func TestAnalyzePersistsResult(t *testing.T) {
	store := &recordingStore{}
	obs := &countingObserver{}
	c := NewCoordinator(testConfig(), twoSources(), &scriptedClient{}, testLogger, WithStore(store), WithObserver(obs))

	r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", MaxArticles: 1})
	if r.IsError() {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if len(store.saved) != 1 || store.saved[0].SessionID != r.SessionID {
		t.Errorf("saved = %d", len(store.saved))
	}
	if obs.stored != 1 {
		t.Errorf("stored notifications = %d", obs.stored)
	}

	// Errors are never persisted, and a failing store does not change the result.
	_ = c.Analyze(context.Background(), AnalyzeRequest{Keyword: ""})
	if len(store.saved) != 1 {
		t.Error("error shape must not be stored")
	}
	store.failErr = errors.New("disk full")
	if r := c.Analyze(context.Background(), AnalyzeRequest{Keyword: "반도체", MaxArticles: 1}); r.IsError() {
		t.Errorf("store failure leaked into result: %s", r.Error)
	}
}

func TestSearchOnly(t *testing.T) {
	c := NewCoordinator(testConfig(), twoSources(), &scriptedClient{}, testLogger)
	found, err := c.Search(context.Background(), "반도체", []string{"naver"}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found[types.SourceNaver]) != 3 {
		t.Errorf("found = %v", found)
	}
	if _, err := c.Search(context.Background(), "반도체", []string{"daum"}, 3); !errors.Is(err, types.ErrUnsupportedSource) {
		t.Errorf("err = %v", err)
	}
}

func TestNormalizeKeyword(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"  삼성전자  ", "삼성전자", false},
		{"삼성전자 || LG전자", "삼성전자 || LG전자", false},
		{"", "", true},
		{"a' OR 1=1", "", true},
		{"select * from t", "", true},
		{"주가 -- 폭락", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeKeyword(tt.in, 100)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeKeyword(%q) err = %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, types.ErrInvalidKeyword) {
			t.Errorf("error %v does not wrap ErrInvalidKeyword", err)
		}
		if got != tt.want {
			t.Errorf("NormalizeKeyword(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSelectSources(t *testing.T) {
	all := func(types.SourceID) bool { return true }
	naverOnly := func(id types.SourceID) bool { return id == types.SourceNaver }

	sel := SelectSources([]string{"네이버", "naver", "Google"}, nil, all)
	if len(sel.Valid) != 2 || sel.Valid[0] != types.SourceNaver || sel.Valid[1] != types.SourceGoogle {
		t.Errorf("valid = %v", sel.Valid)
	}

	sel = SelectSources([]string{"google", "daum"}, nil, naverOnly)
	if len(sel.Valid) != 0 || strings.Join(sel.Rejected, ",") != "google,daum" {
		t.Errorf("sel = %+v", sel)
	}

	sel = SelectSources(nil, []string{"google"}, all)
	if len(sel.Valid) != 1 || sel.Valid[0] != types.SourceGoogle {
		t.Errorf("defaults not applied: %+v", sel)
	}

	sel = SelectSources(nil, nil, all)
	if len(sel.Valid) != 1 || sel.Valid[0] != types.SourceNaver {
		t.Errorf("fallback = %+v", sel)
	}
}
