// Package rag talks to the external retrieval service used to enrich
// document data with plant-specific context.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultTopK is the number of results requested when the caller does not
// specify one.
const DefaultTopK = 5

// Error represents a failure talking to the retrieval service.
type Error struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rag error for %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("rag error for %s: %s", e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// SearchRequest is the payload for POST /api/rag/search.
type SearchRequest struct {
	Query       string `json:"query"`
	Collection  string `json:"collection,omitempty"`
	TopK        int    `json:"top_k,omitempty"`
	SplitPrompt bool   `json:"split_prompt,omitempty"`
	Rerank      bool   `json:"rerank,omitempty"`
	UseHyde     bool   `json:"use_hyde,omitempty"`
}

// SearchResult is one retrieved chunk.
type SearchResult struct {
	Content  string         `json:"content"`
	Score    float64        `json:"score,omitempty"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchResponse is the retrieval service's answer.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Answer  string         `json:"answer,omitempty"`
}

// Context flattens the response into a single text block suitable for
// template injection or LLM condensation.
func (r *SearchResponse) Context() string {
	if r == nil {
		return ""
	}
	if strings.TrimSpace(r.Answer) != "" {
		return strings.TrimSpace(r.Answer)
	}
	parts := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if s := strings.TrimSpace(res.Content); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Options configures the client.
type Options struct {
	Timeout time.Duration
	Headers map[string]string
}

// Client is an HTTP client for the retrieval service.
type Client struct {
	baseURL string
	http    *http.Client
	headers map[string]string
}

// NewClient creates a client for the retrieval service at baseURL.
func NewClient(baseURL string, opts *Options) *Client {
	timeout := DefaultTimeout
	var headers map[string]string
	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		headers = opts.Headers
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		headers: headers,
	}
}

// Search queries the retrieval service.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	endpoint := c.baseURL + "/api/rag/search"
	if strings.TrimSpace(req.Query) == "" {
		return nil, &Error{Endpoint: endpoint, Message: "query is required"}
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range c.headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	var out SearchResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return &out, nil
}

// Health checks GET /health on the retrieval service.
func (c *Client) Health(ctx context.Context) error {
	endpoint := c.baseURL + "/health"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &Error{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &Error{Endpoint: endpoint, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
