package parser

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const articleHTML = `<!DOCTYPE html>
<html>
<head>
    <title>반도체 수출 회복세 뚜렷 - 한국경제</title>
    <meta property="og:title" content="반도체 수출 회복세 뚜렷">
    <meta property="article:published_time" content="2024-12-03T09:30:00+09:00">
    <script type="application/ld+json">
    {"@context":"https://schema.org","@graph":[{"@type":"NewsArticle","headline":"반도체"}]}
    </script>
</head>
<body>
    <div class="media_end_head_title"><h2 id="title_area"><span>짧음</span></h2></div>
    <h2 class="media_end_head_headline">반도체 수출이 석 달 연속 증가하며 회복세</h2>
    <article id="dic_area">
        <script>var tracking = 1;</script>
        반도체 수출이 지난달에도 증가하며 석 달 연속 플러스를 기록했다.
        업계는 메모리 가격 반등이 이어질 것으로 보고 있다. 정부는 추가 지원책을 검토 중이다.
        <span class="end_photo_org">
            <img src="https://imgnews.pstatic.net/image/015/2024/12/03/photo" alt="공장" width="600" height="auto">
            <em class="img_desc">반도체 공장 전경</em>
        </span>
        <img src="//img.example.com/static/logo.png">
        <img src="/assets/spacer.gif" data-src="/photos/chart.jpg">
        <table><caption>월별 수출</caption><tr><th>월</th><th>금액</th></tr><tr><td>10월</td><td>100</td></tr></table>
        <table><tr><td>한 줄</td></tr></table>
    </article>
    <div class="links">
        <a href="/mnews/article/001/001">기사1</a>
        <a href="https://n.news.naver.com/mnews/article/001/002#comment">기사2</a>
        <a href="javascript:void(0)">무시</a>
        <a href="/mnews/article/001/001">중복</a>
    </div>
</body>
</html>`

func testDoc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestFirstTextHonorsOrderAndLength(t *testing.T) {
	e := NewExtractor(testLogger)
	doc := testDoc(t)

	candidates := []string{"#title_area span", "h2.media_end_head_headline", "h1"}
	text, selector, ok := e.FirstText(doc, candidates, 10)
	if !ok {
		t.Fatal("expected a title")
	}
	if selector != "h2.media_end_head_headline" {
		t.Errorf("short first candidate should be skipped, got %q", selector)
	}
	if text != "반도체 수출이 석 달 연속 증가하며 회복세" {
		t.Errorf("unexpected title %q", text)
	}

	// Same input, same output.
	again, _, _ := e.FirstText(doc, candidates, 10)
	if again != text {
		t.Errorf("expected deterministic output, got %q then %q", text, again)
	}
}

func TestFirstTextStripsScripts(t *testing.T) {
	e := NewExtractor(testLogger)
	text, _, ok := e.FirstText(testDoc(t), []string{"#dic_area"}, 50)
	if !ok {
		t.Fatal("expected body")
	}
	if strings.Contains(text, "tracking") {
		t.Errorf("script content leaked into body: %q", text)
	}
	if strings.Contains(text, "\n") || strings.Contains(text, "  ") {
		t.Errorf("whitespace not collapsed: %q", text)
	}
}

func TestFirstTextNotFound(t *testing.T) {
	e := NewExtractor(testLogger)
	text, selector, ok := e.FirstText(testDoc(t), []string{".missing", "[[invalid", "xpath://*[", ""}, 0)
	if ok || text != "" || selector != "" {
		t.Errorf("expected not-found sentinel, got (%q, %q, %v)", text, selector, ok)
	}
}

func TestFirstTextXPath(t *testing.T) {
	e := NewExtractor(testLogger)
	text, selector, ok := e.FirstText(testDoc(t), []string{"xpath://h2[contains(@class,'headline')]"}, 10)
	if !ok || !strings.HasPrefix(text, "반도체 수출이") {
		t.Fatalf("xpath candidate failed: %q %v", text, ok)
	}
	if !strings.HasPrefix(selector, XPathPrefix) {
		t.Errorf("expected xpath selector back, got %q", selector)
	}
}

func TestFirstSelectionMinMatches(t *testing.T) {
	e := NewExtractor(testLogger)
	sel, selector, ok := e.FirstSelection(testDoc(t), []string{"h1", "table", ".links a"}, 3)
	if !ok {
		t.Fatal("expected a selection")
	}
	if selector != ".links a" || sel.Length() != 4 {
		t.Errorf("unexpected selection %q with %d nodes", selector, sel.Length())
	}
}

func TestLinksResolveAndDedup(t *testing.T) {
	doc := testDoc(t)
	links := Links(doc.Find(".links a"), "https://n.news.naver.com/main")
	want := []string{
		"https://n.news.naver.com/mnews/article/001/001",
		"https://n.news.naver.com/mnews/article/001/002",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %v, got %v", want, links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: expected %s, got %s", i, want[i], links[i])
		}
	}
}

func TestImagesFilteredAndResolved(t *testing.T) {
	e := NewExtractor(testLogger)
	rules := MediaRules{
		ImageCandidates: []string{"#newsct_article img", "#dic_area img"},
		CaptionSelector: "em.img_desc, span.img_desc, figcaption",
		Filter:          DefaultImageFilter(),
		MaxImages:       10,
	}
	images := e.Images(testDoc(t), rules, "https://n.news.naver.com/mnews/article/015/1")
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %+v", images)
	}
	if images[0].Caption != "반도체 공장 전경" || images[0].Width != "600" || images[0].Height != "" {
		t.Errorf("unexpected first image %+v", images[0])
	}
	if images[1].URL != "https://n.news.naver.com/photos/chart.jpg" {
		t.Errorf("expected data-src fallback resolved to host, got %s", images[1].URL)
	}
	if images[1].Order != 2 {
		t.Errorf("order should follow document position, got %d", images[1].Order)
	}

	rules.MaxImages = 1
	if got := e.Images(testDoc(t), rules, "https://n.news.naver.com/"); len(got) != 1 {
		t.Errorf("expected cap of 1, got %d", len(got))
	}
}

func TestImageFilter(t *testing.T) {
	f := DefaultImageFilter()
	tests := map[string]bool{
		"https://imgnews.pstatic.net/image/001/2024/photo":   true,
		"https://cdn.example.com/a.JPG":                      true,
		"https://cdn.example.com/banner_top.jpg":             false,
		"https://ssl.pstatic.net/naver.pstatic.net/static/x": false,
		"https://cdn.example.com/anim.gif":                   false,
		"https://cdn.example.com/file.svg":                   false,
		"":                                                   false,
	}
	for u, want := range tests {
		if got := f.Allow(u); got != want {
			t.Errorf("Allow(%q) = %v, want %v", u, got, want)
		}
	}
}

func TestTablesRequireTwoRows(t *testing.T) {
	e := NewExtractor(testLogger)
	tables := e.Tables(testDoc(t), MediaRules{
		TableCandidates: []string{"#dic_area table"},
		MaxTables:       5,
		MaxTableHTML:    20,
	})
	if len(tables) != 1 {
		t.Fatalf("expected one qualifying table, got %d", len(tables))
	}
	tbl := tables[0]
	if tbl.Rows != 2 || tbl.Cols != 2 || tbl.Caption != "월별 수출" {
		t.Errorf("unexpected table %+v", tbl)
	}
	if len([]rune(tbl.HTML)) != 20 {
		t.Errorf("expected html truncated to 20 runes, got %d", len([]rune(tbl.HTML)))
	}
}

func TestMeta(t *testing.T) {
	meta := NewExtractor(testLogger).Meta(testDoc(t))
	if meta.OGTitle != "반도체 수출 회복세 뚜렷" {
		t.Errorf("unexpected og title %q", meta.OGTitle)
	}
	if meta.PublishedAt == nil || meta.PublishedAt.Year() != 2024 {
		t.Errorf("expected published time, got %v", meta.PublishedAt)
	}
	if len(meta.JSONLD) != 2 {
		t.Errorf("expected @graph to be flattened, got %d objects", len(meta.JSONLD))
	}
	if got := (PageMeta{Title: "제목 - 매체명"}).BestTitle(); got != "제목" {
		t.Errorf("expected suffix stripped, got %q", got)
	}
}

func TestTextHelpers(t *testing.T) {
	if got := CleanText("  a \n\t b  "); got != "a b" {
		t.Errorf("CleanText = %q", got)
	}
	if got := TruncateRunes("가나다라", 2); got != "가나" {
		t.Errorf("TruncateRunes = %q", got)
	}
	if got := TruncateRunes("abc", 10); got != "abc" {
		t.Errorf("TruncateRunes should keep short input, got %q", got)
	}
	if got := StripSiteSuffix("Title only"); got != "Title only" {
		t.Errorf("StripSiteSuffix = %q", got)
	}
}

func TestReadableContent(t *testing.T) {
	page := `<html><head><title>Markets rally</title></head><body>
<nav>Home | World | Business</nav>
<div class="story">
<p>Stocks rallied on Tuesday as investors welcomed fresh data showing inflation cooling faster than expected across major economies.</p>
<p>Analysts said the move reflected growing confidence that central banks would begin easing policy before the end of the year.</p>
<p>Trading volumes were above average, with technology and industrial shares leading the gains in both Seoul and New York.</p>
<p>Bond yields slipped for a third session, and the dollar weakened against most major currencies, giving exporters some relief after a difficult quarter.</p>
<p>Strategists cautioned, however, that the rally could fade if upcoming employment figures surprise to the upside and revive fears of prolonged tightening.</p>
</div>
<footer>Copyright</footer>
</body></html>`
	r, err := ReadableContent([]byte(page), "https://example.com/markets")
	if err != nil {
		t.Fatalf("ReadableContent: %v", err)
	}
	if !strings.Contains(r.Text, "Stocks rallied") {
		t.Errorf("expected main text, got %q", r.Text)
	}
}
