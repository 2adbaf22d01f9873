// Package llm implements the Model Client: an ordered fallback chain of
// OpenAI-compatible chat-completions providers with JSON-mode retry.
package llm

import (
	"context"
	"errors"
)

// ErrAllProvidersFailed is the distinguished error raised when every provider
// in the chain has been exhausted.
var ErrAllProvidersFailed = errors.New("all model providers failed")

// Provider is one entry in the fallback chain.
type Provider struct {
	Name    string // origin tag stamped onto ScoredJob.provider on success
	BaseURL string
	Model   string
	APIKey  string // optional; omitted from the Authorization header if empty
}

// Request is a single chat-completion call: a system/user message pair plus
// an optional JSON-mode flag. It has no notion of receipts, résumés, or any
// other specific caller — those build Request values and parse the Content
// returned in Response.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	JSONMode     bool
}

// Response is what callers get back from a successful Complete call.
type Response struct {
	Content  string // raw assistant message content
	Provider string // Provider.Name that produced this response
}

// Client is the interface the rest of the pipeline depends on. Scorer and
// ResumeTailor both call Complete; they never see providers or retries.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	LastProviderUsed() string
}
