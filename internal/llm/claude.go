// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// claudeAPIURL is the Claude Messages endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const (
	anthropicVersion = "2023-06-01"

	// Throttled responses are retried inside the transport before the
	// caller's own retry loop sees a failure.
	claudeThrottleRetries = 2

	// maxErrorBody bounds how much of a failed response is kept in the error.
	maxErrorBody = 2048
)

// ClaudeClient calls the Anthropic Messages API with the document passed
// by URL, so the service fetches the PDF itself.
type ClaudeClient struct {
	APIKey string
	Model  string
	Client *http.Client
}

// NewClaudeClient builds a client from cfg, defaulting the model and a
// five-minute request timeout.
func NewClaudeClient(cfg types.AIConfig) *ClaudeClient {
	model := cfg.Model
	if model == "" {
		model = DefaultClaudeModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ClaudeClient{
		APIKey: cfg.APIKey,
		Model:  model,
		Client: &http.Client{Timeout: timeout},
	}
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

// claudeBlock is one request content block: a document or a text prompt.
type claudeBlock struct {
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Source *claudeDocSpec `json:"source,omitempty"`
}

type claudeDocSpec struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SummarizeDocument sends the document block followed by the prompt and
// returns the first text block of the reply.
func (c *ClaudeClient) SummarizeDocument(ctx context.Context, documentURI, prompt string, maxOutputTokens int) (string, error) {
	fail := func(status int, err error) (string, error) {
		return "", &types.RequestError{Op: "claude messages", StatusCode: status, Err: err}
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: maxOutputTokens,
		Messages: []claudeMessage{{
			Role: "user",
			Content: []claudeBlock{
				{Type: "document", Source: &claudeDocSpec{Type: "url", URL: documentURI}},
				{Type: "text", Text: prompt},
			},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fail(0, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fail(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, claudeThrottleRetries)
	if err != nil {
		return fail(0, fmt.Errorf("calling Claude API: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(resp.StatusCode, fmt.Errorf("Claude API returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decoding Claude response: %w", err))
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return fail(resp.StatusCode, errors.New("no text content in Claude API response"))
}
