package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for document analysis.
type Client interface {
	Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput carries one analysis exchange. The caller owns prompt
// construction; the client owns transport, JSON-mode enforcement, and
// the single fix-JSON retry.
type AnalyzeInput struct {
	SystemPrompt string
	UserPrompt   string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderClient stands in when no provider is configured. Analyzer
// calls fail fast and the failure is isolated per framework.
type PlaceholderClient struct{}

// Analyze returns ErrNotConfigured.
func (PlaceholderClient) Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotConfigured
}
