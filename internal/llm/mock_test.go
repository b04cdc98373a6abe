package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestMockComplete_Deterministic(t *testing.T) {
	c := NewMockClient()
	req := Request{
		SystemPrompt: "You are a copilot.",
		Messages:     []Message{{Role: "user", Content: "how do I price my offer?"}},
		Model:        "gpt-4o-mini",
	}

	a, err := c.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	b, err := c.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if a.Content != b.Content {
		t.Fatalf("identical requests diverged:\n%s\n%s", a.Content, b.Content)
	}
	if !a.Mock {
		t.Fatalf("mock flag not set")
	}
	if !strings.Contains(a.Content, "how do I price my offer?") {
		t.Fatalf("reply does not echo the question: %s", a.Content)
	}

	// a different prompt yields a different reply
	req.Messages[0].Content = "something else"
	d, _ := c.Complete(context.Background(), req)
	if d.Content == a.Content {
		t.Fatalf("distinct requests collided")
	}
}

func TestMockComplete_JSONModeForGenerationPrompts(t *testing.T) {
	c := NewMockClient()
	resp, err := c.Complete(context.Background(), Request{
		SystemPrompt: "Draft the document. Respond with a single JSON object exactly matching the schema.",
		Messages:     []Message{{Role: "user", Content: "Produce the document now."}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &doc); err != nil {
		t.Fatalf("generation response not valid JSON: %v\n%s", err, resp.Content)
	}
	if doc["mock"] != true {
		t.Fatalf("mock marker missing from document: %v", doc)
	}
}

func TestLastUserContent(t *testing.T) {
	req := Request{Messages: []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}}
	if got := lastUserContent(req); got != "second" {
		t.Fatalf("lastUserContent=%q", got)
	}
	if got := lastUserContent(Request{}); got != "" {
		t.Fatalf("empty request: %q", got)
	}
}
