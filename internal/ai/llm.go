// Package ai classifies sentiment, aggregates trends and writes summaries
// through a language model.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/IshaanNene/NewsPulse/internal/config"
	"github.com/IshaanNene/NewsPulse/internal/types"
)

// Task tells a client what kind of answer a prompt expects.
type Task string

const (
	TaskSentiment Task = "sentiment"
	TaskTrend     Task = "trend"
	TaskSummary   Task = "summary"
)

// ChatRequest is one system + user prompt exchange.
type ChatRequest struct {
	Task        Task
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is the model reply and what it cost.
type Completion struct {
	Text  string
	Usage types.TokenUsage
}

// Client is a chat-completion backend.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*Completion, error)
	Model() string
}

// NewClient creates the client for the configured provider, wrapped in the
// configured rate limit and retry policy.
func NewClient(cfg config.LLMConfig, logger *slog.Logger) (Client, error) {
	var inner Client
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err := NewEinoClient(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		inner = c
	case config.ProviderOllama, config.ProviderCustom:
		inner = NewHTTPClient(cfg, logger)
	case config.ProviderLocal:
		return NewLexiconClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	return NewLimitedClient(inner, cfg.RequestsPerSec, cfg.MaxRetries, logger), nil
}

// HTTPClient talks to Ollama or a custom JSON endpoint.
type HTTPClient struct {
	cfg    config.LLMConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(cfg config.LLMConfig, logger *slog.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "llm_client"),
	}
}

// Model implements Client.
func (c *HTTPClient) Model() string { return c.cfg.Model }

// Chat implements Client.
func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (*Completion, error) {
	switch c.cfg.Provider {
	case config.ProviderOllama:
		return c.chatOllama(ctx, req)
	case config.ProviderCustom:
		return c.chatCustom(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", c.cfg.Provider)
	}
}

func (c *HTTPClient) chatOllama(ctx context.Context, req ChatRequest) (*Completion, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}
	if req.Task == TaskSummary {
		delete(payload, "format")
	}

	endpoint := strings.TrimRight(c.cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		PromptEvalCount int `json:"prompt_eval_count"`
		EvalCount       int `json:"eval_count"`
	}
	if err := c.post(ctx, endpoint+"/api/chat", payload, func(body []byte) error {
		return json.Unmarshal(body, &result)
	}); err != nil {
		return nil, err
	}

	return &Completion{
		Text: result.Message.Content,
		Usage: types.TokenUsage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
			Model:            c.cfg.Model,
		},
	}, nil
}

// chatCustom posts the prompt to a plain endpoint. The reply is either a
// JSON envelope {"response": ..., "usage": {...}} or raw text.
func (c *HTTPClient) chatCustom(ctx context.Context, req ChatRequest) (*Completion, error) {
	payload := map[string]any{
		"model":       c.cfg.Model,
		"system":      req.System,
		"prompt":      req.User,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	var text string
	var usage types.TokenUsage
	if err := c.post(ctx, c.cfg.Endpoint, payload, func(body []byte) error {
		var envelope struct {
			Response *string `json:"response"`
			Usage    struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
			} `json:"usage"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Response != nil {
			text = *envelope.Response
			usage.PromptTokens = envelope.Usage.PromptTokens
			usage.CompletionTokens = envelope.Usage.CompletionTokens
			usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
			return nil
		}
		text = string(body)
		return nil
	}); err != nil {
		return nil, err
	}
	usage.Model = c.cfg.Model
	return &Completion{Text: text, Usage: usage}, nil
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, payload any, decode func([]byte) error) error {
	provider := string(c.cfg.Provider)
	body, err := json.Marshal(payload)
	if err != nil {
		return &types.LLMError{Provider: provider, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &types.LLMError{Provider: provider, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &types.LLMError{Provider: provider, Err: fmt.Errorf("%s request: %w", provider, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.LLMError{Provider: provider, Err: err}
	}
	c.logger.Debug("llm response", "provider", provider, "status", resp.StatusCode, "bytes", len(respBody))
	if resp.StatusCode >= 400 {
		return &types.LLMError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}
	if err := decode(respBody); err != nil {
		return &types.LLMError{Provider: provider, Err: fmt.Errorf("decode %s response: %w", provider, err)}
	}
	return nil
}

// LimitedClient throttles calls to its inner client and retries rate
// limited ones with exponential backoff.
type LimitedClient struct {
	inner      Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewLimitedClient wraps inner. rps <= 0 disables throttling.
func NewLimitedClient(inner Client, rps float64, maxRetries int, logger *slog.Logger) *LimitedClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &LimitedClient{
		inner:      inner,
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		logger:     logger.With("component", "llm_limiter"),
	}
}

// Model implements Client.
func (c *LimitedClient) Model() string { return c.inner.Model() }

// Chat implements Client.
func (c *LimitedClient) Chat(ctx context.Context, req ChatRequest) (*Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying rate limited call", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.inner.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRateLimited(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func isRateLimited(err error) bool {
	// Typed errors already carry the status; trust it over the message.
	var llmErr *types.LLMError
	if errors.As(err, &llmErr) {
		return llmErr.IsRateLimited()
	}
	return strings.Contains(strings.ToLower(err.Error()), "too many requests")
}
