// Command demo drives one full orchestrate.Driver.Serve loop end-to-end
// against an in-process mock model and a democlient-backed tool, playing
// the role spec.md assigns to "the mock client/agent used for demos".
//
// This mirrors examples/basic/main.go's role in the teacher: a minimal,
// runnable illustration of the real wiring, not a component under test.
//
// Run with: go run ./cmd/demo
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonwraymond/codeloop/history"
	"github.com/jonwraymond/codeloop/internal/democlient"
	"github.com/jonwraymond/codeloop/orchestrate"
	"github.com/jonwraymond/codeloop/sandbox"
	"github.com/jonwraymond/codeloop/tool"
)

// scriptedCompleter is a Completer that emits one fixed code block on its
// first call and a plain "done" reply on every later call, standing in for spec §4.D's LLM collaborator in a demo with no network
// access. A real deployment wires orchestrate.AnthropicCompleter instead.
type scriptedCompleter struct {
	code string
	sent bool
}

func (c *scriptedCompleter) Complete(ctx context.Context, systemPrompt string, messages []history.Message) (history.Message, error) {
	if c.sent {
		return history.Message{Role: history.RoleAssistant, Content: "done"}, nil
	}
	c.sent = true
	return history.Message{
		Role: history.RoleAssistant,
		ToolCalls: []history.ToolCall{
			{ID: "call_1", Name: history.RunTypescriptTool, Arguments: map[string]any{"code": c.code}},
		},
	}, nil
}

func main() {
	ctx := context.Background()

	webSearch := tool.New("webSearch", "search the web", map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []any{"query"},
	}, nil)

	tools, err := tool.NewSet(webSearch)
	if err != nil {
		log.Fatalf("building tool set: %v", err)
	}

	sb, err := sandbox.New(sandbox.Config{})
	if err != nil {
		log.Fatalf("building sandbox: %v", err)
	}

	code := `async function main() {
  const r = await webSearch({query: "news today"});
  return r.filter(x => x.title.includes("news"));
}`

	driver, err := orchestrate.New(orchestrate.Config{
		Tools:     tools,
		Sandbox:   sb,
		Completer: &scriptedCompleter{code: code},
	})
	if err != nil {
		log.Fatalf("building driver: %v", err)
	}

	client := democlient.New(map[string]democlient.Handler{
		"webSearch": func(ctx context.Context, args map[string]any) (any, error) {
			return []map[string]any{
				{"title": "news today", "url": "u1"},
				{"title": "news this week", "url": "u2"},
				{"title": "not relevant", "url": "u3"},
			}, nil
		},
	})

	h := []history.Message{{Role: history.RoleUser, Content: "what's in the news today?"}}

	for {
		h, err = driver.Serve(ctx, h)
		if err != nil {
			log.Fatalf("serve: %v", err)
		}

		last := h[len(h)-1]
		if last.Role == history.RoleAssistant && !last.HasToolCalls() {
			fmt.Printf("final reply: %s\n", last.Content)
			return
		}

		h, err = client.ResolvePending(ctx, h)
		if err != nil {
			log.Fatalf("resolving pending tool calls: %v", err)
		}
	}
}
