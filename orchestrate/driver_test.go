package orchestrate

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/codeloop/history"
	"github.com/jonwraymond/codeloop/sandbox"
	"github.com/jonwraymond/codeloop/tool"
)

// fakeSandbox replays a canned sequence of outcomes, one per Evaluate call,
// so driver tests don't need a real goja runtime.
type fakeSandbox struct {
	outcomes []sandbox.Outcome
	calls    int
}

func (f *fakeSandbox) Evaluate(ctx context.Context, code string, state sandbox.ToolState, tools *tool.Set) (sandbox.Outcome, error) {
	if f.calls >= len(f.outcomes) {
		return sandbox.Outcome{}, errors.New("fakeSandbox: no more canned outcomes")
	}
	o := f.outcomes[f.calls]
	f.calls++
	return o, nil
}

// fakeCompleter replays a canned sequence of replies, one per Complete call.
type fakeCompleter struct {
	replies []history.Message
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt string, messages []history.Message) (history.Message, error) {
	if f.calls >= len(f.replies) {
		return history.Message{}, errors.New("fakeCompleter: no more canned replies")
	}
	m := f.replies[f.calls]
	f.calls++
	return m, nil
}

func newTestDriver(t *testing.T, sb *fakeSandbox, cp *fakeCompleter) *Driver {
	t.Helper()
	tools, err := tool.NewSet(tool.New("webSearch", "search the web", map[string]any{"type": "object"}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := New(Config{Tools: tools, Sandbox: sb, Completer: cp})
	if err != nil {
		t.Fatalf("unexpected error building driver: %v", err)
	}
	return d
}

func TestServe_ModelRepliesWithPlainText(t *testing.T) {
	sb := &fakeSandbox{}
	cp := &fakeCompleter{replies: []history.Message{
		{Role: history.RoleAssistant, Content: "hello there"},
	}}
	d := newTestDriver(t, sb, cp)

	h := []history.Message{{Role: history.RoleUser, Content: "hi"}}
	out, err := d.Serve(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[1].Content != "hello there" {
		t.Fatalf("unexpected history: %+v", out)
	}
}

func TestServe_CodeBlockResolvesToSuccess(t *testing.T) {
	sb := &fakeSandbox{outcomes: []sandbox.Outcome{
		{Kind: sandbox.OutcomeSuccess, Value: []any{"r1"}},
	}}
	cp := &fakeCompleter{replies: []history.Message{
		{Role: history.RoleAssistant, Content: "the results are r1"},
	}}
	d := newTestDriver(t, sb, cp)

	h := []history.Message{
		{Role: history.RoleUser, Content: "find sport news"},
		{Role: history.RoleCode, CodeID: "c1", Code: "async function main(){ return ['r1']; }"},
	}
	out, err := d.Serve(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawCodeResult, sawFinal bool
	for _, m := range out {
		if m.Role == history.RoleCodeResult && m.CodeID == "c1" {
			sawCodeResult = true
			if m.Result.Status != history.CodeResultSuccess {
				t.Errorf("expected success payload, got %+v", m.Result)
			}
		}
		if m.Role == history.RoleAssistant && m.Content == "the results are r1" {
			sawFinal = true
		}
	}
	if !sawCodeResult {
		t.Error("expected a code-result message in the output history")
	}
	if !sawFinal {
		t.Error("expected the model's final reply in the output history")
	}
}

func TestServe_PartialOutcomeReturnsToClientForResolution(t *testing.T) {
	sb := &fakeSandbox{outcomes: []sandbox.Outcome{
		{Kind: sandbox.OutcomePartial, ToolState: sandbox.ToolState{Entries: []sandbox.Entry{
			{ID: "t1", Name: "webSearch", Arguments: map[string]any{"query": "x"}, Status: sandbox.Pending},
		}}},
	}}
	cp := &fakeCompleter{}
	d := newTestDriver(t, sb, cp)

	h := []history.Message{
		{Role: history.RoleUser, Content: "find sport news"},
		{Role: history.RoleCode, CodeID: "c1", Code: "async function main(){ return await webSearch({query:'x'}); }"},
	}
	out, err := d.Serve(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.calls != 0 {
		t.Fatalf("expected the completer not to be consulted, got %d calls", cp.calls)
	}
	last := out[len(out)-1]
	if last.Role != history.RoleAssistant || !last.HasToolCalls() {
		t.Fatalf("expected a trailing assistant tool-call message, got %+v", last)
	}
	if last.ToolCalls[0].ID != "t1" || last.ToolCalls[0].Name != "webSearch" {
		t.Errorf("unexpected tool call: %+v", last.ToolCalls[0])
	}
}

func TestServe_ModelCallRunTypescriptThenResolvesImmediately(t *testing.T) {
	sb := &fakeSandbox{outcomes: []sandbox.Outcome{
		{Kind: sandbox.OutcomeSuccess, Value: 42},
	}}
	cp := &fakeCompleter{replies: []history.Message{
		{Role: history.RoleAssistant, ToolCalls: []history.ToolCall{{
			ID: "c1", Name: history.RunTypescriptTool,
			Arguments: map[string]any{"code": "async function main(){ return 42; }"},
		}}},
		{Role: history.RoleAssistant, Content: "the answer is 42"},
	}}
	d := newTestDriver(t, sb, cp)

	h := []history.Message{{Role: history.RoleUser, Content: "compute the answer"}}
	out, err := d.Serve(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final := out[len(out)-1]
	if final.Content != "the answer is 42" {
		t.Fatalf("expected final model reply, got %+v", final)
	}
}

func TestServe_EngineErrorIsRaisedNotProjected(t *testing.T) {
	sb := &fakeSandbox{outcomes: []sandbox.Outcome{
		{Kind: sandbox.OutcomeEngineError, Err: sandbox.ErrEngineFailure},
	}}
	cp := &fakeCompleter{}
	d := newTestDriver(t, sb, cp)

	h := []history.Message{
		{Role: history.RoleUser, Content: "find sport news"},
		{Role: history.RoleCode, CodeID: "c1", Code: "async function main(){ return 1; }"},
	}
	_, err := d.Serve(context.Background(), h)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrEngineFailure) {
		t.Fatalf("expected ErrEngineFailure, got %v", err)
	}
	if cp.calls != 0 {
		t.Fatalf("expected the completer not to be consulted on an engine failure, got %d calls", cp.calls)
	}
}

// TestServe_FullRoundTripThroughPartialClientResolutionAndReaskModel drives
// the exact path spec §8's round-trip law exercises: a code block mints a
// pending tool call (OutcomePartial), the remote client resolves it and
// resubmits, the block closes (OutcomeSuccess), and the driver loops back
// to ask the model for its next reply. The history handed to the model on
// that final turn must have absorbed the intermediate tool-call dialogue
// (spec §4.B) rather than choking on it.
func TestServe_FullRoundTripThroughPartialClientResolutionAndReaskModel(t *testing.T) {
	sb := &fakeSandbox{outcomes: []sandbox.Outcome{
		{Kind: sandbox.OutcomePartial, ToolState: sandbox.ToolState{Entries: []sandbox.Entry{
			{ID: "t1", Name: "webSearch", Arguments: map[string]any{"query": "news"}, Status: sandbox.Pending},
		}}},
		{Kind: sandbox.OutcomeSuccess, Value: []any{"news today"}, ToolState: sandbox.ToolState{Entries: []sandbox.Entry{
			{ID: "t1", Name: "webSearch", Arguments: map[string]any{"query": "news"}, Status: sandbox.Resolved, Result: []any{"news today"}},
		}}},
	}}
	cp := &fakeCompleter{replies: []history.Message{
		{Role: history.RoleAssistant, Content: "the news today is: news today"},
	}}
	d := newTestDriver(t, sb, cp)

	h := []history.Message{
		{Role: history.RoleUser, Content: "what's in the news today?"},
		{Role: history.RoleCode, CodeID: "c1", Code: "async function main(){ return await webSearch({query:'news'}); }"},
	}

	// First pass: the sandbox mints a pending tool call and Serve returns
	// control to the client without consulting the model.
	out, err := d.Serve(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error on first pass: %v", err)
	}
	if cp.calls != 0 {
		t.Fatalf("expected the completer not to be consulted yet, got %d calls", cp.calls)
	}
	last := out[len(out)-1]
	if last.Role != history.RoleAssistant || !last.HasToolCalls() || last.ToolCalls[0].ID != "t1" {
		t.Fatalf("expected a trailing pending tool call t1, got %+v", last)
	}

	// The remote client resolves t1 and resubmits the whole history with
	// the code block still open.
	h = append(out, history.Message{Role: history.RoleTool, ToolCallID: "t1", Content: `["news today"]`})

	out, err = d.Serve(context.Background(), h)
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}

	var sawCodeResult, sawFinal bool
	for _, m := range out {
		if m.Role == history.RoleCodeResult && m.CodeID == "c1" {
			sawCodeResult = true
		}
		if m.Role == history.RoleAssistant && m.Content == "the news today is: news today" {
			sawFinal = true
		}
	}
	if !sawCodeResult {
		t.Fatalf("expected the block to close with a code-result, got %+v", out)
	}
	if !sawFinal {
		t.Fatalf("expected the driver to re-ask the model and reach its final reply, got %+v", out)
	}
	if cp.calls != 1 {
		t.Fatalf("expected exactly one completion call, got %d", cp.calls)
	}
}

func TestServe_MaxPassesExceeded(t *testing.T) {
	sb := &fakeSandbox{}
	cp := &fakeCompleter{replies: []history.Message{
		{Role: history.RoleAssistant, ToolCalls: []history.ToolCall{{
			ID: "c1", Name: history.RunTypescriptTool,
			Arguments: map[string]any{"code": "async function main(){ return 1; }"},
		}}},
	}}
	tools, err := tool.NewSet()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := New(Config{Tools: tools, Sandbox: sb, Completer: cp, MaxPasses: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = d.Serve(context.Background(), []history.Message{{Role: history.RoleUser, Content: "go"}})
	if !errors.Is(err, ErrMaxPassesExceeded) {
		t.Fatalf("expected ErrMaxPassesExceeded, got %v", err)
	}
}
