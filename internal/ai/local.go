package ai

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/NewsPulse/internal/types"
)

var (
	positiveLexicon = []string{
		"좋", "훌륭", "최고", "감사", "기대", "성공", "상승", "호조", "개선", "회복",
		"증가", "흑자", "환영", "지지", "찬성", "응원", "축하", "혁신", "성장", "돌파",
	}
	negativeLexicon = []string{
		"나쁘", "최악", "실망", "우려", "반대", "비판", "하락", "부진", "악화", "감소",
		"적자", "논란", "분노", "위기", "사고", "피해", "실패", "폭락", "규탄", "걱정",
	}
)

// LexiconClient answers prompts offline from a small Korean sentiment
// lexicon. It never calls a network service and reports zero usage.
type LexiconClient struct{}

// NewLexiconClient creates a LexiconClient.
func NewLexiconClient() *LexiconClient { return &LexiconClient{} }

// Model implements Client.
func (c *LexiconClient) Model() string { return "local-lexicon" }

// Chat implements Client. Sentiment prompts get a JSON classification of the
// quoted text, trend and summary prompts a short extractive answer.
func (c *LexiconClient) Chat(ctx context.Context, req ChatRequest) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var text string
	switch req.Task {
	case TaskSentiment:
		text = c.classify(quoted(req.User))
	case TaskTrend:
		body, _ := json.Marshal(trendReply{KeyTopics: []string{}, Summary: firstLines(req.User, 2)})
		text = string(body)
	default:
		text = firstLines(req.User, 3)
	}
	return &Completion{Text: text, Usage: types.TokenUsage{Model: c.Model()}}, nil
}

// classify scores text by counting lexicon hits.
func (c *LexiconClient) classify(text string) string {
	pos, neg := 0, 0
	var hits []string
	for _, w := range positiveLexicon {
		if n := strings.Count(text, w); n > 0 {
			pos += n
			hits = append(hits, w)
		}
	}
	for _, w := range negativeLexicon {
		if n := strings.Count(text, w); n > 0 {
			neg += n
			hits = append(hits, w)
		}
	}

	label := types.Neutral
	switch {
	case pos > neg:
		label = types.Positive
	case neg > pos:
		label = types.Negative
	}

	confidence := 0.5
	if total := pos + neg; total > 0 {
		diff := pos - neg
		if diff < 0 {
			diff = -diff
		}
		confidence = 0.5 + 0.5*float64(diff)/float64(total)
	}
	if hits == nil {
		hits = []string{}
	}

	body, _ := json.Marshal(map[string]any{
		"sentiment":  label.Korean(),
		"confidence": confidence,
		"reason":     "사전 기반 분석",
		"keywords":   hits,
	})
	return string(body)
}

// quoted returns the first double-quoted span of prompt, or prompt itself.
func quoted(prompt string) string {
	start := strings.Index(prompt, `"`)
	if start < 0 {
		return prompt
	}
	end := strings.Index(prompt[start+1:], `"`)
	if end < 0 {
		return prompt[start+1:]
	}
	return prompt[start+1 : start+1+end]
}

// firstLines returns up to n non-empty content lines of prompt, skipping
// the instruction line.
func firstLines(prompt string, n int) string {
	lines := strings.Split(prompt, "\n")
	var out []string
	for i, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if i == 0 || line == "" || utf8.RuneCountInString(line) < 5 {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return strings.Join(out, " ")
}
