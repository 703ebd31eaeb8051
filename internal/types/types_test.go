package types

import (
	"math"
	"reflect"
	"testing"
)

func TestParseKeywordOperator(t *testing.T) {
	tests := []struct {
		in   string
		want KeywordQuery
	}{
		{"삼성전자 || LG전자", KeywordQuery{OperatorOR, []string{"삼성전자", "LG전자"}}},
		{"a||b||c", KeywordQuery{OperatorOR, []string{"a", "b", "c"}}},
		{"apple OR banana", KeywordQuery{OperatorOR, []string{"apple", "banana"}}},
		{"apple or banana", KeywordQuery{OperatorOR, []string{"apple", "banana"}}},
		{"  x  Or  y ", KeywordQuery{OperatorOR, []string{"x", "y"}}},
		{"a || ", KeywordQuery{OperatorSingle, []string{"a ||"}}},
		{"|| a", KeywordQuery{OperatorSingle, []string{"|| a"}}},
		{"oracle", KeywordQuery{OperatorSingle, []string{"oracle"}}},
		{"ORCA whale", KeywordQuery{OperatorSingle, []string{"ORCA whale"}}},
		{"반도체", KeywordQuery{OperatorSingle, []string{"반도체"}}},
	}

	for _, tt := range tests {
		got := ParseKeywordOperator(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseKeywordOperator(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPerKeywordBudget(t *testing.T) {
	q := NewSearchQuery("삼성전자 || LG전자", []SourceID{SourceNaver, SourceGoogle}, 6)
	if got := q.PerKeywordBudget(3); got != 3 {
		t.Errorf("expected budget 3, got %d", got)
	}

	q = NewSearchQuery("a || b || c", nil, 4)
	if got := q.PerKeywordBudget(3); got != 3 {
		t.Errorf("expected floor 3, got %d", got)
	}
	if got := q.PerKeywordBudget(1); got != 1 {
		t.Errorf("expected 4/3=1 with floor 1, got %d", got)
	}

	q = NewSearchQuery("single", nil, 7)
	if got := q.PerKeywordBudget(3); got != 7 {
		t.Errorf("single keyword keeps its budget, got %d", got)
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in     string
		want   SourceID
		wantOK bool
	}{
		{"네이버", SourceNaver, true},
		{"Naver", SourceNaver, true},
		{" google ", SourceGoogle, true},
		{"구글", SourceGoogle, true},
		{"Daum", "", false},
		{"KBS", "", false},
		{"연합뉴스", "", false},
		{"bing", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSource(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseSource(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}

	if names := SupportedSourceNames(); !reflect.DeepEqual(names, []string{"Naver", "Google"}) {
		t.Errorf("unexpected supported names %v", names)
	}
}

func TestParseLabel(t *testing.T) {
	for in, want := range map[string]Label{"긍정": Positive, "NEGATIVE": Negative, "중립": Neutral} {
		got, ok := ParseLabel(in)
		if !ok || got != want {
			t.Errorf("ParseLabel(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseLabel("mixed"); ok {
		t.Error("expected unknown label to report false")
	}
}

func TestClampConfidence(t *testing.T) {
	for _, c := range []float64{-1, 1.5, math.NaN(), math.Inf(1)} {
		if got := ClampConfidence(c); got != 0.5 {
			t.Errorf("ClampConfidence(%v) = %v, want 0.5", c, got)
		}
	}
	if got := ClampConfidence(0.92); got != 0.92 {
		t.Errorf("expected valid confidence unchanged, got %v", got)
	}
}

func TestDistributionNormalize(t *testing.T) {
	d := DistributionFromCounts(SentimentCounts{Positive: 1, Negative: 1, Neutral: 1})
	var sum float64
	for _, v := range d {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("expected sum 1, got %v", sum)
	}

	empty := DistributionFromCounts(SentimentCounts{})
	if !reflect.DeepEqual(empty, FallbackDistribution()) {
		t.Errorf("expected fallback distribution, got %v", empty)
	}

	skewed := Distribution{Positive: 2, Negative: 0.5, Neutral: -1}.Normalize()
	if math.Abs(skewed[Positive]-0.8) > 1e-9 || skewed[Neutral] != 0 {
		t.Errorf("unexpected normalized distribution %v", skewed)
	}
}

func TestDistributionDominant(t *testing.T) {
	if got := (Distribution{Positive: 0.6, Negative: 0.3, Neutral: 0.1}).Dominant(); got != Positive {
		t.Errorf("expected positive, got %q", got)
	}
	if got := (Distribution{Positive: 0.4, Negative: 0.4, Neutral: 0.2}).Dominant(); got != Neutral {
		t.Errorf("ties resolve to neutral, got %q", got)
	}
}

func TestAnalysisResultShapes(t *testing.T) {
	r := ErrorResult("boom", "kw", nil)
	if !r.IsError() {
		t.Error("expected error shape")
	}
	if r.Sources == nil {
		t.Error("error shape should carry a non-nil sources list")
	}
	ok := &AnalysisResult{Keyword: "kw"}
	if ok.IsError() {
		t.Error("expected success shape")
	}
}

func TestNewRequestRejectsBadScheme(t *testing.T) {
	if _, err := NewRequest(SourceNaver, "javascript:alert(1)"); err == nil {
		t.Error("expected error for non-http scheme")
	}
	if _, err := NewRequest(SourceNaver, "https:///path"); err == nil {
		t.Error("expected error for missing host")
	}
	req, err := NewRequest(SourceNaver, "https://n.news.naver.com/mnews/article/001/0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Domain() != "n.news.naver.com" || req.Source != SourceNaver {
		t.Errorf("unexpected request %q / %q", req.Domain(), req.Source)
	}
}

func TestCanonicalURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"HTTPS://News.Naver.com:443/main/read?oid=001&aid=0001#top", "https://news.naver.com/main/read?aid=0001&oid=001"},
		{"https://n.news.naver.com/mnews/article/001/0001/", "https://n.news.naver.com/mnews/article/001/0001"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"http://example.com:8080/a", "http://example.com:8080/a"},
	}
	for _, c := range cases {
		if got := CanonicalURL(c.in); got != c.want {
			t.Errorf("CanonicalURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if CanonicalURL("https://example.com/b?y=2&x=1") != CanonicalURL("https://example.com/b?x=1&y=2") {
		t.Error("query order should not matter")
	}
}
