package types

import "time"

// Timing records stage durations of one session, in seconds.
type Timing struct {
	CrawlingTime  float64 `json:"crawlingTime"  bson:"crawling_time"`
	SentimentTime float64 `json:"sentimentTime" bson:"sentiment_time"`
	SummaryTime   float64 `json:"summaryTime"   bson:"summary_time"`
	TotalTime     float64 `json:"totalTime"     bson:"total_time"`
}

// Add sums other into t.
func (t *Timing) Add(other Timing) {
	t.CrawlingTime += other.CrawlingTime
	t.SentimentTime += other.SentimentTime
	t.SummaryTime += other.SummaryTime
	t.TotalTime += other.TotalTime
}

// TokenUsage accumulates LLM token counts and the estimated USD cost.
type TokenUsage struct {
	PromptTokens     int     `json:"promptTokens"     bson:"prompt_tokens"`
	CompletionTokens int     `json:"completionTokens" bson:"completion_tokens"`
	TotalTokens      int     `json:"totalTokens"      bson:"total_tokens"`
	EstimatedCost    float64 `json:"estimatedCost"    bson:"estimated_cost"`
	Model            string  `json:"model,omitempty"  bson:"model,omitempty"`
}

// Add sums other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.EstimatedCost += other.EstimatedCost
	if u.Model == "" {
		u.Model = other.Model
	}
}

// KeywordFrequency is one row of the keyword table.
type KeywordFrequency struct {
	Keyword   string `json:"keyword"   bson:"keyword"`
	Frequency int    `json:"frequency" bson:"frequency"`
}

// KeywordResult is the outcome of one sub-keyword of an OR query.
type KeywordResult struct {
	Keyword               string          `json:"keyword"                 bson:"keyword"`
	TotalArticles         int             `json:"totalArticles"           bson:"total_articles"`
	SentimentDistribution SentimentCounts `json:"sentimentDistribution"   bson:"sentiment_distribution"`
	Timing                Timing          `json:"timing"                  bson:"timing"`
	TokenUsage            TokenUsage      `json:"tokenUsage"              bson:"token_usage"`
	Error                 string          `json:"error,omitempty"         bson:"error,omitempty"`
}

// AnalysisResult is the single document a session returns. Either Error is
// set (error shape: Error, Keyword, Sources and optionally the source lists)
// or it is empty and the analysis fields are populated.
type AnalysisResult struct {
	SessionID             string             `json:"sessionId,omitempty"             bson:"session_id,omitempty"`
	Keyword               string             `json:"keyword"                         bson:"keyword"`
	SearchType            Operator           `json:"searchType,omitempty"            bson:"search_type,omitempty"`
	Sources               []string           `json:"sources"                         bson:"sources"`
	TotalArticles         int                `json:"totalArticles,omitempty"         bson:"total_articles,omitempty"`
	Articles              []*Article         `json:"articles,omitempty"              bson:"articles,omitempty"`
	SentimentDistribution *SentimentCounts   `json:"sentimentDistribution,omitempty" bson:"sentiment_distribution,omitempty"`
	Trend                 *TrendAnalysis     `json:"trend,omitempty"                 bson:"trend,omitempty"`
	Keywords              []KeywordFrequency `json:"keywords,omitempty"              bson:"keywords,omitempty"`
	OverallSummary        string             `json:"overallSummary,omitempty"        bson:"overall_summary,omitempty"`
	KeywordResults        []KeywordResult    `json:"keywordResults,omitempty"        bson:"keyword_results,omitempty"`
	Timing                *Timing            `json:"timing,omitempty"                bson:"timing,omitempty"`
	TokenUsage            *TokenUsage        `json:"tokenUsage,omitempty"            bson:"token_usage,omitempty"`
	AnalyzedAt            *time.Time         `json:"analyzedAt,omitempty"            bson:"analyzed_at,omitempty"`

	Error            string   `json:"error,omitempty"            bson:"error,omitempty"`
	RejectedSources  []string `json:"rejectedSources,omitempty"  bson:"rejected_sources,omitempty"`
	SupportedSources []string `json:"supportedSources,omitempty" bson:"supported_sources,omitempty"`
}

// IsError reports whether r is the error shape.
func (r *AnalysisResult) IsError() bool {
	return r.Error != ""
}

// ErrorResult builds the error shape.
func ErrorResult(message, keyword string, sources []string) *AnalysisResult {
	if sources == nil {
		sources = []string{}
	}
	return &AnalysisResult{
		Error:   message,
		Keyword: keyword,
		Sources: sources,
	}
}

// SourceLabels converts ids to their display labels.
func SourceLabels(ids []SourceID) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = id.Label()
	}
	return labels
}
