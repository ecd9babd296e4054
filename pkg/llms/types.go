// Package llms provides the language-model gateway used by the answer
// pipeline, with OpenAI, Anthropic, and Ollama providers behind one
// interface.
package llms

import (
	"context"
	"time"
)

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage across calls.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// GenerateParams are per-call overrides. Zero values fall back to the
// provider's configured defaults.
type GenerateParams struct {
	// Temperature overrides the configured sampling temperature.
	Temperature *float64

	// MaxTokens bounds the reply length.
	MaxTokens int

	// Timeout bounds this one call. The pipeline sets it only for the
	// confidence-judge call site; elsewhere the caller's context governs.
	Timeout time.Duration
}

// Provider is the language-model gateway: one system prompt, one user
// prompt, a reply and its token usage.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, params GenerateParams) (string, Usage, error)

	ModelName() string

	Close() error
}
