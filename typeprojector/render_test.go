package typeprojector

import (
	"strings"
	"testing"

	"github.com/jonwraymond/codeloop/tool"
)

func TestProject_RendersFunctionAndInterface(t *testing.T) {
	ts, err := tool.NewSet(tool.New(
		"webSearch",
		"Search the web for recent pages.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []any{"query"},
		},
		nil,
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := Project(ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"interface WebSearchInput {",
		"query: string;",
		"/** Search the web for recent pages. */",
		"declare function webSearch(args: WebSearchInput): Promise<unknown>;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestProject_NilSetReturnsEmpty(t *testing.T) {
	out, err := Project(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
