// Package llm abstracts text-completion backends behind a uniform client
// interface, with a retrying gateway, structured error classification, and
// a deterministic offline mock used when no credential is configured.
package llm

import "context"

// Message is a single chat turn sent to the completion backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Model        string
	MaxTokens    int
	Temperature  float32
}

// Response is the outcome of one completion call.
type Response struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
	Mock       bool   `json:"mock"`
}

// Client is implemented by completion backends (live or mock).
type Client interface {
	// Complete performs one completion call. Implementations classify
	// failures into *Error so the retry policy can tell transient from
	// terminal conditions.
	Complete(ctx context.Context, req Request) (*Response, error)
}
