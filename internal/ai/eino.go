package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	goopenai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// EinoClient sends chat completions through an eino chat model, which
// speaks the OpenAI API and any compatible endpoint.
type EinoClient struct {
	chatModel model.BaseChatModel
	model     string
}

// NewEinoClient creates an EinoClient for an OpenAI compatible endpoint.
func NewEinoClient(ctx context.Context, cfg config.LLMConfig) (*EinoClient, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.Endpoint,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return NewEinoClientWithModel(cm, cfg.Model), nil
}

// NewEinoClientWithModel wraps an existing chat model.
func NewEinoClientWithModel(cm model.BaseChatModel, modelName string) *EinoClient {
	return &EinoClient{chatModel: cm, model: modelName}
}

// Model implements Client.
func (c *EinoClient) Model() string { return c.model }

// Chat implements Client.
func (c *EinoClient) Chat(ctx context.Context, req ChatRequest) (*Completion, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: req.System},
		{Role: schema.User, Content: req.User},
	}

	opts := []model.Option{model.WithTemperature(float32(req.Temperature))}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, &types.LLMError{Provider: "openai", StatusCode: statusFromError(err), Err: err}
	}

	out := &Completion{Text: resp.Content, Usage: types.TokenUsage{Model: c.model}}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		u := resp.ResponseMeta.Usage
		out.Usage.PromptTokens = u.PromptTokens
		out.Usage.CompletionTokens = u.CompletionTokens
		out.Usage.TotalTokens = u.TotalTokens
	}
	return out, nil
}

var statusInText = regexp.MustCompile(`(?i)status(?:\s+code)?[:=\s]+(\d{3})\b`)

// statusFromError returns the HTTP status behind a chat model error. The
// OpenAI client's typed errors carry it; other errors only have text.
func statusFromError(err error) int {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return apiErr.HTTPStatusCode
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return reqErr.HTTPStatusCode
	}

	// Fallback: only an explicit "status code: NNN" counts, never a bare number.
	msg := err.Error()
	if m := statusInText.FindStringSubmatch(msg); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code
		}
	}
	if strings.Contains(strings.ToLower(msg), "too many requests") {
		return 429
	}
	return 0
}
