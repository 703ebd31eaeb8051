package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

const sentimentSystemPrompt = "당신은 정확한 JSON 형식으로만 응답하는 감성 분석 전문가입니다."

const sentimentPromptTemplate = `다음 텍스트의 감성을 분석하고, 반드시 아래 JSON 형식으로만 응답하세요.

텍스트: "%s"

응답 형식:
{
    "sentiment": "긍정|부정|중립",
    "confidence": 0.0-1.0 사이의 숫자,
    "reason": "감성 판단 근거를 한국어로 간단히 설명",
    "keywords": ["핵심", "키워드"]
}

분석 기준:
- 긍정: 지지, 찬성, 호의적, 기대, 감사 등의 표현
- 부정: 반대, 비판, 우려, 실망, 분노 등의 표현
- 중립: 객관적 사실, 질문, 애매한 표현`

// sentimentReply is the JSON object the model is asked for.
type sentimentReply struct {
	Sentiment  string   `json:"sentiment"`
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
	Keywords   []string `json:"keywords"`
}

// Scorer classifies the sentiment of one text per call.
type Scorer struct {
	client      Client
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(client Client, cfg config.LLMConfig, logger *slog.Logger) *Scorer {
	maxTokens := cfg.SentimentTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Scorer{
		client:      client,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		logger:      logger.With("component", "sentiment_scorer"),
	}
}

// Score classifies text. It never fails: any client or parse error
// yields types.FallbackSentiment. The usage of the call is returned even
// when its reply was unusable.
func (s *Scorer) Score(ctx context.Context, text string) (types.SentimentResult, types.TokenUsage) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.FallbackSentiment(), types.TokenUsage{}
	}

	resp, err := s.client.Chat(ctx, ChatRequest{
		Task:        TaskSentiment,
		System:      sentimentSystemPrompt,
		User:        fmt.Sprintf(sentimentPromptTemplate, strings.ReplaceAll(text, `"`, `'`)),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		s.logger.Warn("sentiment call failed", "error", err)
		return types.FallbackSentiment(), types.TokenUsage{}
	}

	return ParseSentiment(resp.Text), resp.Usage
}

// ParseSentiment converts a model reply into a SentimentResult. Label and
// confidence are taken as given; only an out-of-range or missing
// confidence is replaced by 0.5. Replies without a recognizable label
// degrade to the fallback.
func ParseSentiment(reply string) types.SentimentResult {
	parsed, ok := ParseOrDefault(reply, sentimentReply{})
	if !ok {
		return types.FallbackSentiment()
	}

	raw := parsed.Sentiment
	if raw == "" {
		raw = parsed.Label
	}
	label, ok := types.ParseLabel(raw)
	if !ok {
		return types.FallbackSentiment()
	}

	confidence := 0.5
	if parsed.Confidence != nil {
		confidence = types.ClampConfidence(*parsed.Confidence)
	}
	keywords := parsed.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return types.SentimentResult{
		Label:      label,
		Confidence: confidence,
		Reason:     strings.TrimSpace(parsed.Reason),
		Keywords:   keywords,
	}
}
