package sandbox

import "testing"

func TestReplayCursor_EmptyInputMintsPending(t *testing.T) {
	c := newReplayCursor(ToolState{})

	instr := c.next("webSearch", map[string]any{"query": "news today"})
	if instr.kind != instrNewToolCall {
		t.Fatalf("expected instrNewToolCall, got %v", instr.kind)
	}
	if instr.id == "" {
		t.Fatal("expected a minted id")
	}

	state := c.state()
	if len(state.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(state.Entries))
	}
	entry := state.Entries[0]
	if entry.Status != Pending || entry.Name != "webSearch" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if !c.newEntries() {
		t.Error("expected newEntries() to report true")
	}
}

func TestReplayCursor_ConsumesResolvedInOrder(t *testing.T) {
	input := ToolState{Entries: []Entry{
		{ID: "1", Name: "webSearch", Status: Resolved, Result: "first"},
		{ID: "2", Name: "webSearch", Status: Resolved, Result: "second"},
	}}
	c := newReplayCursor(input)

	first := c.next("webSearch", nil)
	if first.kind != instrResolve || first.value != "first" {
		t.Fatalf("expected first resolved value, got %+v", first)
	}
	second := c.next("webSearch", nil)
	if second.kind != instrResolve || second.value != "second" {
		t.Fatalf("expected second resolved value, got %+v", second)
	}

	// A third call past the end of input mints a new pending entry.
	third := c.next("webSearch", map[string]any{"q": "more"})
	if third.kind != instrNewToolCall {
		t.Fatalf("expected instrNewToolCall past end of input, got %v", third.kind)
	}
	if c.newEntries() == false {
		t.Error("expected newEntries() true once a pending entry is appended")
	}

	state := c.state()
	if len(state.Entries) != 3 {
		t.Fatalf("expected 3 output entries, got %d", len(state.Entries))
	}
}

func TestReplayCursor_RejectedPropagatesClientError(t *testing.T) {
	input := ToolState{Entries: []Entry{
		{ID: "1", Name: "getWeather", Status: Rejected, Error: "rate limited"},
	}}
	c := newReplayCursor(input)

	instr := c.next("getWeather", nil)
	if instr.kind != instrReject {
		t.Fatalf("expected instrReject, got %v", instr.kind)
	}
	if instr.value != "rate limited" {
		t.Errorf("expected propagated error value, got %v", instr.value)
	}
}

func TestReplayCursor_PendingInputIsInvariantViolation(t *testing.T) {
	input := ToolState{Entries: []Entry{
		{ID: "1", Name: "getWeather", Status: Pending},
	}}
	c := newReplayCursor(input)

	instr := c.next("getWeather", nil)
	if instr.kind != instrInvariantViolation {
		t.Fatalf("expected instrInvariantViolation, got %v", instr.kind)
	}
}

func TestReplayCursor_MintedIDsAreUnique(t *testing.T) {
	c := newReplayCursor(ToolState{})
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		instr := c.next("tool", nil)
		if seen[instr.id] {
			t.Fatalf("duplicate id minted: %s", instr.id)
		}
		seen[instr.id] = true
	}
}
