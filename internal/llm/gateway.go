package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Gateway wraps a Client with a per-attempt timeout, a bounded retry
// policy, and model routing: a fast model for chat turns and a
// higher-quality one for artifact generation.
type Gateway struct {
	client          Client
	policy          Policy
	timeout         time.Duration
	chatModel       string
	generationModel string
	maxTokens       int
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	Policy          Policy
	Timeout         time.Duration
	ChatModel       string
	GenerationModel string
	MaxTokens       int
}

// NewGateway constructs a Gateway around a live or mock client.
func NewGateway(client Client, opts GatewayOptions) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.ChatModel == "" {
		opts.ChatModel = "gpt-4o-mini"
	}
	if opts.GenerationModel == "" {
		opts.GenerationModel = "gpt-4o"
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultPolicy()
	}
	return &Gateway{
		client:          client,
		policy:          opts.Policy,
		timeout:         opts.Timeout,
		chatModel:       opts.ChatModel,
		generationModel: opts.GenerationModel,
		maxTokens:       opts.MaxTokens,
	}
}

// Chat completes a conversational turn against the chat model.
func (g *Gateway) Chat(ctx context.Context, systemPrompt string, messages []Message) (*Response, error) {
	return g.complete(ctx, Request{
		SystemPrompt: systemPrompt,
		Messages:     messages,
		Model:        g.chatModel,
		MaxTokens:    g.maxTokens,
		Temperature:  0.7,
	})
}

// Generate runs an artifact-generation prompt against the generation
// model.
func (g *Gateway) Generate(ctx context.Context, prompt string) (*Response, error) {
	return g.complete(ctx, Request{
		SystemPrompt: prompt,
		Messages:     []Message{{Role: "user", Content: "Produce the document now."}},
		Model:        g.generationModel,
		MaxTokens:    g.maxTokens,
		Temperature:  0.3,
	})
}

// complete executes the call under the retry policy. Each attempt carries
// its own timeout. Auth failures short-circuit (the policy stops on
// non-retryable errors); anything else that exhausts the schedule surfaces
// as ErrUnavailable.
func (g *Gateway) complete(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := g.policy.Do(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		r, err := g.client.Complete(attemptCtx, req)
		if err != nil {
			return Classify(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		if IsAuthError(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Str("model", req.Model).Err(err).Msg("completion retries exhausted")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}
