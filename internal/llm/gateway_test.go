package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedClient fails a fixed number of times before succeeding, recording
// every request it saw.
type scriptedClient struct {
	failures int
	err      error

	calls    int
	requests []Request
}

func (s *scriptedClient) Complete(_ context.Context, req Request) (*Response, error) {
	s.calls++
	s.requests = append(s.requests, req)
	if s.calls <= s.failures {
		return nil, s.err
	}
	return &Response{Content: "ok", Model: req.Model}, nil
}

func testGatewayOpts(attempts int) GatewayOptions {
	return GatewayOptions{
		Policy: Policy{MaxAttempts: attempts, InitialDelay: time.Millisecond},
	}
}

func TestGateway_ModelRouting(t *testing.T) {
	c := &scriptedClient{}
	g := NewGateway(c, GatewayOptions{
		ChatModel:       "fast-model",
		GenerationModel: "quality-model",
		Policy:          Policy{MaxAttempts: 1},
	})
	ctx := context.Background()

	if _, err := g.Chat(ctx, "sys", []Message{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if _, err := g.Generate(ctx, "make a doc"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(c.requests) != 2 {
		t.Fatalf("requests=%d", len(c.requests))
	}
	chat, gen := c.requests[0], c.requests[1]
	if chat.Model != "fast-model" || gen.Model != "quality-model" {
		t.Fatalf("model routing wrong: %q / %q", chat.Model, gen.Model)
	}
	if chat.Temperature <= gen.Temperature {
		t.Fatalf("chat temp %v must exceed generation temp %v", chat.Temperature, gen.Temperature)
	}
	if gen.SystemPrompt != "make a doc" || len(gen.Messages) != 1 {
		t.Fatalf("generation request malformed: %+v", gen)
	}
}

func TestGateway_RetriesTransientFailures(t *testing.T) {
	c := &scriptedClient{failures: 2, err: errors.New("503 Service Unavailable")}
	g := NewGateway(c, testGatewayOpts(3))

	resp, err := g.Chat(context.Background(), "sys", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "ok" || c.calls != 3 {
		t.Fatalf("calls=%d resp=%+v", c.calls, resp)
	}
}

func TestGateway_ExhaustionSurfacesErrUnavailable(t *testing.T) {
	c := &scriptedClient{failures: 10, err: errors.New("connection refused")}
	g := NewGateway(c, testGatewayOpts(3))

	_, err := g.Chat(context.Background(), "sys", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if c.calls != 3 {
		t.Fatalf("calls=%d want 3", c.calls)
	}
}

func TestGateway_AuthFailureShortCircuits(t *testing.T) {
	c := &scriptedClient{failures: 10, err: errors.New("401 Unauthorized")}
	g := NewGateway(c, testGatewayOpts(5))

	_, err := g.Chat(context.Background(), "sys", nil)
	if !IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("auth failure wrapped as unavailable")
	}
	if c.calls != 1 {
		t.Fatalf("auth failure retried: calls=%d", c.calls)
	}
}

func TestGateway_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &scriptedClient{failures: 10, err: errors.New("timeout")}
	g := NewGateway(c, GatewayOptions{Policy: Policy{MaxAttempts: 3, InitialDelay: time.Hour}})

	_, err := g.Chat(ctx, "sys", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewGateway_Defaults(t *testing.T) {
	g := NewGateway(NewMockClient(), GatewayOptions{})
	if g.chatModel == "" || g.generationModel == "" || g.maxTokens <= 0 || g.timeout <= 0 {
		t.Fatalf("defaults not applied: %+v", g)
	}
	if g.policy.MaxAttempts != DefaultPolicy().MaxAttempts {
		t.Fatalf("default policy not applied")
	}
}
