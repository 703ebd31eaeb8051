package types

import (
	"regexp"
	"strings"
)

// Operator is how a raw keyword combines its parts.
type Operator string

const (
	OperatorSingle Operator = "single"
	OperatorOR     Operator = "or"
)

// KeywordQuery is the result of parsing a raw keyword string.
type KeywordQuery struct {
	Type     Operator `json:"type"`
	Keywords []string `json:"keywords"`
}

var orSplitter = regexp.MustCompile(`(?i)\s*\|\|\s*|\s+or\s+`)

// ParseKeywordOperator splits raw on "||" or a whitespace delimited "OR"
// (any case). At least two non-empty segments make an OR query; segments are
// trimmed and keep their order. Anything else is a single keyword.
func ParseKeywordOperator(raw string) KeywordQuery {
	trimmed := strings.TrimSpace(raw)
	parts := orSplitter.Split(trimmed, -1)

	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}

	if len(keywords) >= 2 {
		return KeywordQuery{Type: OperatorOR, Keywords: keywords}
	}
	return KeywordQuery{Type: OperatorSingle, Keywords: []string{trimmed}}
}

// SearchQuery is one validated analysis request.
type SearchQuery struct {
	Keyword              string
	Operator             Operator
	Keywords             []string
	Sources              []SourceID
	MaxArticlesPerSource int
}

// NewSearchQuery builds a SearchQuery from an already validated keyword.
func NewSearchQuery(keyword string, sources []SourceID, maxArticles int) SearchQuery {
	kq := ParseKeywordOperator(keyword)
	return SearchQuery{
		Keyword:              strings.TrimSpace(keyword),
		Operator:             kq.Type,
		Keywords:             kq.Keywords,
		Sources:              append([]SourceID(nil), sources...),
		MaxArticlesPerSource: maxArticles,
	}
}

// PerKeywordBudget is the article budget for each sub-keyword of an OR
// query: max(floor, max/len(keywords)).
func (q SearchQuery) PerKeywordBudget(floor int) int {
	if q.Operator != OperatorOR || len(q.Keywords) == 0 {
		return q.MaxArticlesPerSource
	}
	per := q.MaxArticlesPerSource / len(q.Keywords)
	if per < floor {
		return floor
	}
	return per
}
