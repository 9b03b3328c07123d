// Package enrich condenses retrieved context into placeholder-sized text
// before it is injected into a document template.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used for condensation.
const DefaultModel = "gemini-2.5-flash-lite"

// MaxContextChars caps the retrieved context sent to the model.
const MaxContextChars = 8000

// Client condenses retrieved context for a given query. Implementations
// must be safe for concurrent use.
type Client interface {
	// Condense produces a short summary of context relevant to query.
	Condense(ctx context.Context, query, context_ string) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a condensation client. The model defaults to
// DefaultModel when empty.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Condense summarizes the retrieved context down to a few sentences focused
// on the query.
func (c *GeminiClient) Condense(ctx context.Context, query, retrieved string) (string, error) {
	retrieved = strings.TrimSpace(retrieved)
	if retrieved == "" {
		return "", nil
	}
	if len(retrieved) > MaxContextChars {
		retrieved = retrieved[:MaxContextChars]
	}

	prompt := fmt.Sprintf(`You are preparing content for a wind-farm prevention plan document.
Summarize the retrieved context below into at most 4 sentences of plain prose
answering the query. Keep concrete facts (names, dates, procedures, site rules)
and drop everything else. Do not use markdown.

Query: %s

Retrieved context:
%s`, query, retrieved)

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to condense context: %w", err)
	}
	return extractText(resp)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}

// Passthrough implements Client without a model: the retrieved context is
// returned unchanged. Used when no API key is configured.
type Passthrough struct{}

// Condense returns the retrieved context as-is.
func (Passthrough) Condense(_ context.Context, _ string, retrieved string) (string, error) {
	return strings.TrimSpace(retrieved), nil
}

// Close is a no-op.
func (Passthrough) Close() error { return nil }
