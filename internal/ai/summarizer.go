package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/parser"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

const summarySystemPrompt = "당신은 한국어 뉴스를 간결하게 요약하는 전문가입니다."

// Summarizer writes per-article and overall summaries. Every call is best
// effort: failures yield an empty summary.
type Summarizer struct {
	client      Client
	maxTokens   int
	temperature float64
	textLimit   int
	topK        int
	logger      *slog.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(client Client, llm config.LLMConfig, analysis config.AnalysisConfig, logger *slog.Logger) *Summarizer {
	s := &Summarizer{
		client:      client,
		maxTokens:   llm.SummaryTokens,
		temperature: llm.Temperature,
		textLimit:   1000,
		topK:        analysis.SummaryTopK,
		logger:      logger.With("component", "summarizer"),
	}
	if s.maxTokens <= 0 {
		s.maxTokens = 300
	}
	if s.topK <= 0 {
		s.topK = 10
	}
	return s
}

// SummarizeArticle summarizes one article in two or three sentences.
func (s *Summarizer) SummarizeArticle(ctx context.Context, a *types.Article) (string, types.TokenUsage) {
	if a == nil || strings.TrimSpace(a.Content) == "" {
		return "", types.TokenUsage{}
	}
	prompt := fmt.Sprintf("다음 뉴스 기사를 2-3문장으로 요약하세요.\n\n제목: %s\n\n본문: %s",
		a.Title, parser.TruncateRunes(a.Content, s.textLimit))
	return s.complete(ctx, prompt, "article", a.URL)
}

// SummarizeOverall summarizes the top articles of a keyword, each annotated
// with its sentiment label.
func (s *Summarizer) SummarizeOverall(ctx context.Context, keyword string, articles []*types.Article) (string, types.TokenUsage) {
	if len(articles) == 0 {
		return "", types.TokenUsage{}
	}
	if len(articles) > s.topK {
		articles = articles[:s.topK]
	}

	var sb strings.Builder
	for i, a := range articles {
		label := types.Neutral.Korean()
		if a.Sentiment != nil {
			label = a.Sentiment.Label.Korean()
		}
		body := a.Summary
		if body == "" {
			body = parser.TruncateRunes(a.Content, 200)
		}
		fmt.Fprintf(&sb, "%d. [%s] %s: %s\n", i+1, label, a.Title, body)
	}

	prompt := fmt.Sprintf("키워드 \"%s\"에 대한 다음 뉴스 기사들의 전체 동향을 3-4문장으로 요약하세요. "+
		"긍정과 부정 여론의 흐름을 함께 설명하세요.\n\n%s", keyword, sb.String())
	return s.complete(ctx, prompt, "overall", keyword)
}

func (s *Summarizer) complete(ctx context.Context, prompt, kind, subject string) (string, types.TokenUsage) {
	if s.client == nil {
		return "", types.TokenUsage{}
	}
	resp, err := s.client.Chat(ctx, ChatRequest{
		Task:        TaskSummary,
		System:      summarySystemPrompt,
		User:        prompt,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn("summary failed", "kind", kind, "subject", subject, "error", err)
		return "", types.TokenUsage{}
	}
	return strings.TrimSpace(stripFences(resp.Text)), resp.Usage
}
