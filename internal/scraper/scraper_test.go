package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/fetcher"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Crawl.MaxRetries = 0
	return cfg
}

func newHTTPFetcher(t *testing.T, cfg *config.Config) *fetcher.HTTPFetcher {
	t.Helper()
	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	return f
}

const naverSearchHTML = `<html><body>
<div class="ad"><a class="news_tit" href="https://ad.example.com/promo">광고</a></div>
<ul class="list_news">
  <li><div class="news_area"><a class="news_tit" href="https://n.news.naver.com/mnews/article/001/0001">기사 1</a></div></li>
  <li><div class="news_area"><a class="news_tit" href="https://n.news.naver.com/mnews/article/001/0001#comments">기사 1 중복</a></div></li>
  <li><div class="news_area"><a class="news_tit" href="https://news.naver.com/main/read.naver?oid=2&aid=2">기사 2</a></div></li>
  <li><div class="news_area"><a class="news_tit" href="https://n.news.naver.com/article/003/0003">기사 3</a></div></li>
</ul>
</body></html>`

const naverArticleHTML = `<html><head><title>삼성전자 실적 발표 : 네이버 뉴스</title></head><body>
<h2 class="media_end_head_headline">삼성전자, 3분기 영업이익 시장 예상 상회</h2>
<article id="dic_area">
  삼성전자가 3분기 잠정 실적을 발표했다. 영업이익은 시장 예상치를 웃돌며 반도체 부문 회복을 보여줬다. 증권가는 4분기에도 메모리 가격 상승이 이어질 것으로 내다봤다.
  <span class="end_photo_org"><img src="https://imgnews.pstatic.net/image/001/photo.jpg" alt="사옥"><em class="img_desc">삼성전자 서초사옥</em></span>
  <img src="https://ssl.pstatic.net/static/icon_share.png">
</article>
<div class="u_cbox_comment_box"><span class="u_cbox_contents">좋은 소식이네요</span></div>
<div class="u_cbox_comment_box"><span class="u_cbox_contents">   </span></div>
<div class="u_cbox_comment_box"><span class="u_cbox_contents">주가도 오르길</span></div>
<div class="u_cbox_comment_box"><span class="u_cbox_contents">글쎄요</span></div>
</body></html>`

func naverServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search.naver", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("where") != "news" || r.URL.Query().Get("sort") != "1" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("query") == "없는키워드" {
			_, _ = fmt.Fprint(w, "<html><body><p>검색결과가 없습니다</p></body></html>")
			return
		}
		_, _ = fmt.Fprint(w, naverSearchHTML)
	})
	mux.HandleFunc("/mnews/article/001/0001", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, naverArticleHTML)
	})
	mux.HandleFunc("/mnews/article/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><div>로그인이 필요합니다</div></body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestNaver(t *testing.T, srv *httptest.Server, maxComments int) *Naver {
	cfg := testConfig()
	cfg.Naver.SearchURL = srv.URL + "/search.naver"
	n := NewNaver(cfg.Naver, newHTTPFetcher(t, cfg), maxComments, testLogger)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func TestNaverSearchAllowListAndDedup(t *testing.T) {
	n := newTestNaver(t, naverServer(t), 10)

	urls, err := n.SearchNews(context.Background(), "삼성전자", 5)
	if err != nil {
		t.Fatalf("SearchNews: %v", err)
	}
	want := []string{
		"https://n.news.naver.com/mnews/article/001/0001",
		"https://news.naver.com/main/read.naver?oid=2&aid=2",
		"https://n.news.naver.com/article/003/0003",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("expected %v, got %v", want, urls)
	}

	urls, err = n.SearchNews(context.Background(), "삼성전자", 2)
	if err != nil || len(urls) != 2 {
		t.Errorf("expected 2 urls with cap, got %v (%v)", urls, err)
	}
}

func TestNaverSearchNoResults(t *testing.T) {
	n := newTestNaver(t, naverServer(t), 10)
	_, err := n.SearchNews(context.Background(), "없는키워드", 5)
	if !errors.Is(err, types.ErrNoResultsFound) {
		t.Errorf("expected ErrNoResultsFound, got %v", err)
	}
}

func TestNaverExtractArticle(t *testing.T) {
	srv := naverServer(t)
	n := newTestNaver(t, srv, 2)

	article, err := n.ExtractArticle(context.Background(), srv.URL+"/mnews/article/001/0001")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if article.Title != "삼성전자, 3분기 영업이익 시장 예상 상회" {
		t.Errorf("unexpected title %q", article.Title)
	}
	if !strings.HasPrefix(article.Content, "삼성전자가 3분기 잠정 실적을 발표했다.") {
		t.Errorf("unexpected content %q", article.Content)
	}
	if article.Source != types.SourceNaver || article.SourceLabel != "네이버" {
		t.Errorf("unexpected source %q/%q", article.Source, article.SourceLabel)
	}
	if len(article.Images) != 1 || article.Images[0].Caption != "삼성전자 서초사옥" {
		t.Errorf("unexpected images %+v", article.Images)
	}
	if article.CommentCount != 2 || len(article.Comments) != 2 {
		t.Fatalf("expected comment cap of 2, got %d", article.CommentCount)
	}
	if article.Comments[0].ID != "comment_1" || article.Comments[1].ID != "comment_3" {
		t.Errorf("unexpected comment ids %q, %q", article.Comments[0].ID, article.Comments[1].ID)
	}

	again, err := n.ExtractArticle(context.Background(), srv.URL+"/mnews/article/001/0001")
	if err != nil {
		t.Fatalf("second ExtractArticle: %v", err)
	}
	if again.Title != article.Title || again.Content != article.Content || len(again.Comments) != len(article.Comments) {
		t.Error("expected identical extraction on an unchanged page")
	}
}

func TestNaverExtractArticleFails(t *testing.T) {
	srv := naverServer(t)
	n := newTestNaver(t, srv, 10)

	for _, u := range []string{srv.URL + "/mnews/article/empty", srv.URL + "/missing", "not a url"} {
		_, err := n.ExtractArticle(context.Background(), u)
		var efe *types.ExtractionFailedError
		if !errors.As(err, &efe) {
			t.Errorf("%s: expected ExtractionFailedError, got %v", u, err)
		}
	}
}

func TestIsNaverArticleURL(t *testing.T) {
	if !IsNaverArticleURL("https://n.news.naver.com/mnews/article/421/0007") {
		t.Error("expected mnews article to be allowed")
	}
	if IsNaverArticleURL("https://news.naver.com/section/101") {
		t.Error("expected section page to be rejected")
	}
}

func googleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/rss/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("hl") != "ko" || q.Get("gl") != "KR" || q.Get("ceid") != "KR:ko" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		if q.Get("q") == "empty" {
			_, _ = fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title></channel></rss>`)
			return
		}
		_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>"%[2]s" - Google 뉴스</title>
<item><title>배터리 수출 급증 - 매일경제</title><link>%[1]s/rss/articles/a1</link><pubDate>Tue, 03 Dec 2024 01:00:00 GMT</pubDate></item>
<item><title>두번째 기사 - 연합뉴스</title><link>%[1]s/rss/articles/broken</link></item>
<item><title>세번째</title><link>%[1]s/rss/articles/a3</link></item>
</channel></rss>`, srv.URL, q.Get("q"))
	})
	mux.HandleFunc("/rss/articles/a1", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/publisher/battery", http.StatusFound)
	})
	mux.HandleFunc("/rss/articles/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	mux.HandleFunc("/publisher/battery", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><title>배터리 수출 급증 - 매일경제</title></head><body>
<div class="title">짧다</div>
<div class="article-body">국내 배터리 업체들의 수출이 전년 대비 크게 늘었다. 전기차 수요 회복과 에너지저장장치 주문 증가가 배경으로 꼽힌다. 업계는 내년에도 성장세가 이어질 것으로 기대하고 있다.</div>
</body></html>`)
	})
	mux.HandleFunc("/publisher/notitle", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<html><head><title>정책 발표 - 경제신문</title></head><body>
<section itemprop="articleBody">정부가 새로운 산업 지원 정책을 발표했다. 세부 내용은 다음 달 공개될 예정이며 업계는 환영의 뜻을 밝혔다. 전문가들은 실효성 있는 후속 조치가 필요하다고 지적했다.</section>
</body></html>`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogle(t *testing.T, srv *httptest.Server) *Google {
	cfg := testConfig()
	cfg.Google.SearchURL = srv.URL + "/rss/search"
	f := newHTTPFetcher(t, cfg)
	g := NewGoogle(cfg.Google, f, nil, testLogger)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGoogleSearchResolvesRedirects(t *testing.T) {
	srv := googleServer(t)
	g := newTestGoogle(t, srv)

	urls, err := g.SearchNews(context.Background(), "배터리", 3)
	if err != nil {
		t.Fatalf("SearchNews: %v", err)
	}
	want := []string{
		srv.URL + "/publisher/battery",
		srv.URL + "/rss/articles/broken",
		srv.URL + "/rss/articles/a3",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("expected %v, got %v", want, urls)
	}

	urls, _ = g.SearchNews(context.Background(), "배터리", 1)
	if len(urls) != 1 {
		t.Errorf("expected cap of 1, got %d", len(urls))
	}
}

func TestGoogleSearchEmptyFeed(t *testing.T) {
	g := newTestGoogle(t, googleServer(t))
	_, err := g.SearchNews(context.Background(), "empty", 5)
	if !errors.Is(err, types.ErrNoResultsFound) {
		t.Errorf("expected ErrNoResultsFound, got %v", err)
	}
}

func TestGoogleExtractArticle(t *testing.T) {
	srv := googleServer(t)
	g := newTestGoogle(t, srv)

	if _, err := g.SearchNews(context.Background(), "배터리", 3); err != nil {
		t.Fatalf("SearchNews: %v", err)
	}

	article, err := g.ExtractArticle(context.Background(), srv.URL+"/publisher/battery")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if article.Title != "배터리 수출 급증" {
		t.Errorf("expected title from page title without suffix, got %q", article.Title)
	}
	if !strings.Contains(article.Content, "전기차 수요 회복") {
		t.Errorf("unexpected content %q", article.Content)
	}
	if article.SourceLabel != "구글" {
		t.Errorf("unexpected label %q", article.SourceLabel)
	}
	if article.PublishedAt == nil || article.PublishedAt.Year() != 2024 {
		t.Errorf("expected published time from feed item, got %v", article.PublishedAt)
	}
	if !reflect.DeepEqual(article.Comments, []types.Comment{}) {
		t.Errorf("google articles carry no comments, got %v", article.Comments)
	}
}

func TestGoogleExtractFollowsRedirectURL(t *testing.T) {
	srv := googleServer(t)
	g := newTestGoogle(t, srv)

	article, err := g.ExtractArticle(context.Background(), srv.URL+"/rss/articles/a1")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if article.URL != srv.URL+"/publisher/battery" {
		t.Errorf("expected final URL, got %s", article.URL)
	}

	article, err = g.ExtractArticle(context.Background(), srv.URL+"/publisher/notitle")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if article.Title != "정책 발표" {
		t.Errorf("unexpected fallback title %q", article.Title)
	}
}

func TestFactory(t *testing.T) {
	cfg := testConfig()
	cfg.Google.Enabled = false
	f := NewFactory(cfg, testLogger)

	if !f.Supports(types.SourceNaver) || f.Supports(types.SourceGoogle) {
		t.Fatal("unexpected support matrix")
	}
	if _, err := f.New(types.SourceGoogle); !errors.Is(err, types.ErrUnsupportedSource) {
		t.Errorf("expected ErrUnsupportedSource, got %v", err)
	}
	s, err := f.New(types.SourceNaver)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()
	if s.Source() != types.SourceNaver {
		t.Errorf("unexpected source %q", s.Source())
	}
}
