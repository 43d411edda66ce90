package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"compliance-backend/internal/llm"
	"compliance-backend/internal/shared/telemetry"
)

// Client implements llm.Client using OpenAI Chat Completions in JSON
// mode.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewClient constructs an OpenAI-backed client.
func NewClient(apiKey, model string, temperature float32, maxTokens int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		api:         openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
	}, nil
}

// Analyze sends one prompt exchange and returns the raw JSON payload.
// Invalid JSON gets a single fix-up retry before failing.
func (c *Client) Analyze(ctx context.Context, input llm.AnalyzeInput) (json.RawMessage, error) {
	raw, err := c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: input.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: input.UserPrompt},
	})
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		return raw, nil
	}

	telemetry.Warn("llm.invalid_json_retry", zap.String("model", c.model))
	raw, err = c.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "You repair malformed JSON. Return only the corrected JSON object, nothing else."},
		{Role: openai.ChatMessageRoleUser, Content: string(raw)},
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON from model %s", c.model)
	}
	return raw, nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion from model %s", c.model)
	}

	telemetry.Debug("llm.completion",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return json.RawMessage(strings.TrimSpace(content)), nil
}

var _ llm.Client = (*Client)(nil)
