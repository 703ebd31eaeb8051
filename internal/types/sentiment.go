package types

import (
	"math"
	"strings"
)

// Label is a sentiment class.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Labels lists every label in a fixed order.
var Labels = []Label{Positive, Negative, Neutral}

// Korean returns the Korean label the prompts and summaries use.
func (l Label) Korean() string {
	switch l {
	case Positive:
		return "긍정"
	case Negative:
		return "부정"
	default:
		return "중립"
	}
}

// ParseLabel accepts English or Korean spellings. Unknown values report false.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "pos", "긍정", "긍정적":
		return Positive, true
	case "negative", "neg", "부정", "부정적":
		return Negative, true
	case "neutral", "중립", "중립적":
		return Neutral, true
	default:
		return Neutral, false
	}
}

// FallbackReason marks a SentimentResult produced without a usable model reply.
const FallbackReason = "fallback"

// SentimentResult is the classification of one text span.
type SentimentResult struct {
	Label      Label    `json:"label"      bson:"label"`
	Confidence float64  `json:"confidence" bson:"confidence"`
	Reason     string   `json:"reason"     bson:"reason"`
	Keywords   []string `json:"keywords"   bson:"keywords"`
}

// FallbackSentiment is returned whenever classification fails.
func FallbackSentiment() SentimentResult {
	return SentimentResult{
		Label:      Neutral,
		Confidence: 0.5,
		Reason:     FallbackReason,
		Keywords:   []string{},
	}
}

// IsFallback reports whether the result came from the failure path.
func (r SentimentResult) IsFallback() bool {
	return r.Reason == FallbackReason
}

// ClampConfidence maps NaN and out-of-range values to 0.5 and keeps valid
// values unchanged.
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 || c > 1 {
		return 0.5
	}
	return c
}

// SentimentCounts tallies labels.
type SentimentCounts struct {
	Positive int `json:"positive" bson:"positive"`
	Negative int `json:"negative" bson:"negative"`
	Neutral  int `json:"neutral"  bson:"neutral"`
}

// Add counts one label.
func (c *SentimentCounts) Add(l Label) {
	switch l {
	case Positive:
		c.Positive++
	case Negative:
		c.Negative++
	default:
		c.Neutral++
	}
}

// Merge adds other into c.
func (c *SentimentCounts) Merge(other SentimentCounts) {
	c.Positive += other.Positive
	c.Negative += other.Negative
	c.Neutral += other.Neutral
}

// Total returns the number of counted labels.
func (c SentimentCounts) Total() int {
	return c.Positive + c.Negative + c.Neutral
}

// Get returns the count for l.
func (c SentimentCounts) Get(l Label) int {
	switch l {
	case Positive:
		return c.Positive
	case Negative:
		return c.Negative
	default:
		return c.Neutral
	}
}

// Distribution is a probability distribution over labels.
type Distribution map[Label]float64

// FallbackDistribution is used when there is nothing to tally.
func FallbackDistribution() Distribution {
	return Distribution{Positive: 0.33, Negative: 0.33, Neutral: 0.34}
}

// Normalize rescales d so its values sum to 1. An all-zero distribution
// becomes FallbackDistribution.
func (d Distribution) Normalize() Distribution {
	var sum float64
	for _, l := range Labels {
		if v := d[l]; v > 0 && !math.IsNaN(v) {
			sum += v
		}
	}
	if sum == 0 {
		return FallbackDistribution()
	}
	out := make(Distribution, len(Labels))
	for _, l := range Labels {
		v := d[l]
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		out[l] = v / sum
	}
	return out
}

// DistributionFromCounts converts counts to proportions.
func DistributionFromCounts(c SentimentCounts) Distribution {
	d := Distribution{
		Positive: float64(c.Positive),
		Negative: float64(c.Negative),
		Neutral:  float64(c.Neutral),
	}
	return d.Normalize()
}

// Dominant returns the label with the highest share. Ties resolve to Neutral.
func (d Distribution) Dominant() Label {
	best, bestLabel, tie := -1.0, Neutral, false
	for _, l := range Labels {
		v := d[l]
		switch {
		case v > best:
			best, bestLabel, tie = v, l, false
		case v == best:
			tie = true
		}
	}
	if tie {
		return Neutral
	}
	return bestLabel
}

// TrendAnalysis is the keyword level sentiment picture across comments.
type TrendAnalysis struct {
	Keyword          string       `json:"keyword"           bson:"keyword"`
	OverallSentiment Label        `json:"overallSentiment"  bson:"overall_sentiment"`
	Distribution     Distribution `json:"distribution"      bson:"distribution"`
	Topics           []string     `json:"topics"            bson:"topics"`
	Summary          string       `json:"summary"           bson:"summary"`
	TotalComments    int          `json:"totalComments"     bson:"total_comments"`
}

// NoCommentsSummary is the trend summary when no comments were collected.
const NoCommentsSummary = "댓글이 없어 동향 분석을 수행할 수 없습니다."

// EmptyTrend is the trend for a keyword without any comments.
func EmptyTrend(keyword string) TrendAnalysis {
	return TrendAnalysis{
		Keyword:          keyword,
		OverallSentiment: Neutral,
		Distribution:     FallbackDistribution(),
		Topics:           []string{},
		Summary:          NoCommentsSummary,
		TotalComments:    0,
	}
}
