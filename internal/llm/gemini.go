// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"google.golang.org/genai"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// geminiBaseURL overrides the Gemini endpoint when non-empty. Tests point
// it at an httptest server.
var geminiBaseURL = ""

// GeminiClient calls Gemini through the genai SDK, attaching the document
// as a file URI part.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, cfg types.AIConfig) (*GeminiClient, error) {
	model := cfg.Model
	if model == "" || model == DefaultClaudeModel {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if geminiBaseURL != "" {
		cc.HTTPOptions.BaseURL = geminiBaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// SummarizeDocument sends the PDF reference and the prompt as one user turn.
func (g *GeminiClient) SummarizeDocument(ctx context.Context, documentURI, prompt string, maxOutputTokens int) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(documentURI, "application/pdf"),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: clampInt32(maxOutputTokens),
	})
	if err != nil {
		return "", &types.RequestError{Op: "gemini generate", Err: err}
	}

	text := resp.Text()
	if text == "" {
		return "", &types.RequestError{Op: "gemini generate", Err: errors.New("no text content in Gemini response")}
	}
	return text, nil
}

// clampInt32 narrows n to the int32 range the Gemini API accepts.
func clampInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int32(n)
}
