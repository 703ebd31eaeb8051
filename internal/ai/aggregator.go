package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

const trendSystemPrompt = "당신은 정확한 JSON 형식으로만 응답하는 여론 동향 분석 전문가입니다."

const trendPromptTemplate = `키워드 "%s"에 대한 댓글들을 분석하여 전체적인 여론 동향을 파악하세요.

댓글들:
%s

반드시 아래 JSON 형식으로만 응답하세요:
{
    "key_topics": ["주요", "이슈"],
    "summary": "동향 요약을 2-3문장으로 설명"
}`

// CommentSentiment pairs a comment text with its classification.
type CommentSentiment struct {
	Text      string
	Sentiment types.SentimentResult
}

type trendReply struct {
	KeyTopics []string `json:"key_topics"`
	Summary   string   `json:"summary"`
}

// Aggregator builds the keyword trend from classified comments.
type Aggregator struct {
	client       Client
	maxTokens    int
	temperature  float64
	commentLimit int
	topics       int
	logger       *slog.Logger
}

// NewAggregator creates an Aggregator. A nil client disables the narrative
// summary.
func NewAggregator(client Client, llm config.LLMConfig, analysis config.AnalysisConfig, logger *slog.Logger) *Aggregator {
	a := &Aggregator{
		client:       client,
		maxTokens:    llm.TrendTokens,
		temperature:  llm.Temperature,
		commentLimit: analysis.TrendCommentLimit,
		topics:       analysis.TopKeywords,
		logger:       logger.With("component", "trend_aggregator"),
	}
	if a.maxTokens <= 0 {
		a.maxTokens = 800
	}
	if a.commentLimit <= 0 {
		a.commentLimit = 20
	}
	if a.topics <= 0 {
		a.topics = 10
	}
	return a
}

// Aggregate tallies comment labels into a distribution that sums to 1,
// picks the dominant label, extracts frequency topics excluding keyword (each
// sub-keyword of an OR keyword) and
// asks the model for a short narrative. A failed narrative leaves Summary
// empty. Without comments the fixed empty trend is returned.
func (a *Aggregator) Aggregate(ctx context.Context, keyword string, comments []CommentSentiment) (types.TrendAnalysis, types.TokenUsage) {
	if len(comments) == 0 {
		return types.EmptyTrend(keyword), types.TokenUsage{}
	}

	var counts types.SentimentCounts
	texts := make([]string, 0, len(comments))
	for _, c := range comments {
		counts.Add(c.Sentiment.Label)
		texts = append(texts, c.Text)
	}
	dist := types.DistributionFromCounts(counts)

	trend := types.TrendAnalysis{
		Keyword:          keyword,
		OverallSentiment: dist.Dominant(),
		Distribution:     dist,
		Topics:           Topics(texts, types.ParseKeywordOperator(keyword).Keywords, a.topics),
		TotalComments:    len(comments),
	}

	var usage types.TokenUsage
	if a.client != nil {
		trend.Summary, usage = a.narrate(ctx, keyword, texts)
	}
	return trend, usage
}

func (a *Aggregator) narrate(ctx context.Context, keyword string, texts []string) (string, types.TokenUsage) {
	if len(texts) > a.commentLimit {
		texts = texts[:a.commentLimit]
	}
	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString("- ")
		sb.WriteString(strings.ReplaceAll(t, "\n", " "))
		sb.WriteString("\n")
	}

	resp, err := a.client.Chat(ctx, ChatRequest{
		Task:        TaskTrend,
		System:      trendSystemPrompt,
		User:        fmt.Sprintf(trendPromptTemplate, keyword, sb.String()),
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		a.logger.Warn("trend summary failed", "keyword", keyword, "error", err)
		return "", types.TokenUsage{}
	}

	reply, ok := ParseOrDefault(resp.Text, trendReply{})
	if !ok {
		a.logger.Debug("trend reply not parseable", "keyword", keyword)
		return "", resp.Usage
	}
	return strings.TrimSpace(reply.Summary), resp.Usage
}
