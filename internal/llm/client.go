package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cmendes/jobhunter/internal/httpx"
)

// chainClient is the Model Client: an ordered fallback chain of Providers,
// each reached as a plain OpenAI-compatible chat-completions endpoint.
type chainClient struct {
	providers     []Provider
	httpClient    *http.Client
	maxJSONRetry  int
	logger        *slog.Logger

	mu          sync.Mutex
	lastUsed    string
}

// NewClient builds a Model Client over the given provider chain, tried in
// order on every call. timeout bounds each individual HTTP call;
// maxJSONRetry bounds the same-provider retry on invalid JSON-mode output.
func NewClient(providers []Provider, timeout time.Duration, maxJSONRetry int, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if maxJSONRetry <= 0 {
		maxJSONRetry = 1
	}
	return &chainClient{
		providers:    providers,
		httpClient:   &http.Client{Timeout: timeout},
		maxJSONRetry: maxJSONRetry,
		logger:       logger,
	}
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete walks the provider chain in order; within a provider, retry once
// on invalid JSON-mode output before falling through.
func (c *chainClient) Complete(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	for _, p := range c.providers {
		content, err := c.tryProvider(ctx, p, req)
		if err != nil {
			c.logger.Warn("llm.provider_failed", "provider", p.Name, "error", err)
			lastErr = err
			continue
		}
		c.mu.Lock()
		c.lastUsed = p.Name
		c.mu.Unlock()
		return Response{Content: content, Provider: p.Name}, nil
	}
	if lastErr != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
	}
	return Response{}, ErrAllProvidersFailed
}

func (c *chainClient) tryProvider(ctx context.Context, p Provider, req Request) (string, error) {
	content, err := c.callOnce(ctx, p, req)
	if err != nil {
		return "", err
	}
	if !req.JSONMode || json.Valid([]byte(content)) {
		return content, nil
	}

	// Soft error: one same-provider retry with a stricter follow-up.
	for attempt := 1; attempt <= c.maxJSONRetry; attempt++ {
		c.logger.Warn("llm.json_retry", "provider", p.Name, "attempt", attempt)
		retryReq := req
		retryReq.UserPrompt = req.UserPrompt + "\n\nYour previous reply was not valid JSON. Reply with ONLY valid JSON, no prose, no code fences."
		content, err = c.callOnce(ctx, p, retryReq)
		if err != nil {
			return "", err
		}
		if json.Valid([]byte(content)) {
			return content, nil
		}
	}
	return "", fmt.Errorf("provider %s: response not valid JSON after %d retries", p.Name, c.maxJSONRetry)
}

func (c *chainClient) callOnce(ctx context.Context, p Provider, req Request) (string, error) {
	messages := []map[string]any{
		{"role": "system", "content": req.SystemPrompt},
		{"role": "user", "content": req.UserPrompt},
	}
	body := map[string]any{
		"model":    p.Model,
		"messages": messages,
	}
	if req.JSONMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	headers := map[string]string{}
	if p.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.APIKey
	}

	endpoint := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	raw, _, err := httpx.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("provider %s: %w", p.Name, err)
	}

	var cc chatCompletionResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("provider %s: decode response: %w", p.Name, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("provider %s: no choices in response", p.Name)
	}
	return strings.TrimSpace(stripCodeFences(cc.Choices[0].Message.Content)), nil
}

// LastProviderUsed exposes the provider that last returned a successful
// response, for run-level metrics (PipelineRun.llm_providers_used).
func (c *chainClient) LastProviderUsed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// stripCodeFences removes a leading/trailing ``` or ```json fence, which
// some providers wrap structured output in despite JSON-mode instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
