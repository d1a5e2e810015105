// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm adapts hosted text-generation services to a single
// document-summarization call. The provider is chosen once, by New.
package llm

import (
	"context"
	"fmt"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// Default model identifiers per provider.
const (
	DefaultClaudeModel = "claude-opus-4-20250514"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Summarizer sends a remote document plus an instruction prompt to a
// text-generation service and returns the raw generated text. Failures
// are *types.RequestError.
type Summarizer interface {
	SummarizeDocument(ctx context.Context, documentURI, prompt string, maxOutputTokens int) (string, error)
}

// New returns the Summarizer for cfg.Provider. An empty provider selects
// Anthropic.
func New(ctx context.Context, cfg types.AIConfig) (Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", providerName(cfg.Provider))
	}
	switch cfg.Provider {
	case "", types.ProviderAnthropic:
		return NewClaudeClient(cfg), nil
	case types.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)",
			cfg.Provider, types.ProviderAnthropic, types.ProviderGemini)
	}
}

func providerName(p types.Provider) types.Provider {
	if p == "" {
		return types.ProviderAnthropic
	}
	return p
}
