package sandbox

import "github.com/google/uuid"

// instructionKind tells the shim what to do with the promise it returned
// from an intercepted call.
type instructionKind int

const (
	// instrResolve settles the promise with a value already known from the
	// input tool-state.
	instrResolve instructionKind = iota
	// instrReject settles the promise with a client-reported error value
	// already known from the input tool-state. The user program may catch
	// this like any other rejection.
	instrReject
	// instrNewToolCall settles the promise with the new-tool-call sentinel:
	// the program cannot distinguish it from instrReject except by the
	// shape of the rejection value, per spec §9.
	instrNewToolCall
	// instrInvariantViolation settles the promise with the engine-internal
	// sentinel for an ill-formed input (a Pending entry appeared where only
	// Resolved/Rejected entries are valid). Spec §7 reclassifies this as a
	// runtime error, never as a fatal engine failure.
	instrInvariantViolation
)

// instruction is what replayCursor.next returns to the interceptor shim.
type instruction struct {
	kind  instructionKind
	value any    // the resolve value, the client error value, or nil
	id    string // the id to report for instrNewToolCall
}

// newID mints an opaque, unique tool-call identifier. Tests must assert
// only on uniqueness, never on content (spec §9 "Identifier minting").
var newID = func() string { return uuid.NewString() }

// replayCursor walks a fixed input ToolState while recording an output
// ToolState, exactly as spec §4.A's "Replay cursor" table describes: a
// single monotonic position serves as the counter `i`.
type replayCursor struct {
	input  []Entry
	pos    int
	output []Entry
}

func newReplayCursor(state ToolState) *replayCursor {
	return &replayCursor{input: state.Entries}
}

// next consults input[pos] for the call currently being intercepted and
// returns the instruction the shim should act on. It is not safe for
// concurrent use by multiple goroutines, but the sandbox's JS VM is
// single-threaded so calls arrive serialized with respect to each other.
func (c *replayCursor) next(name string, args map[string]any) instruction {
	if c.pos < len(c.input) {
		entry := c.input[c.pos]
		c.pos++

		switch entry.Status {
		case Resolved:
			c.output = append(c.output, entry)
			return instruction{kind: instrResolve, value: entry.Result}
		case Rejected:
			c.output = append(c.output, entry)
			return instruction{kind: instrReject, value: entry.Error}
		default: // Pending: invariant violation, input must be fully settled.
			return instruction{kind: instrInvariantViolation, value: "input tool-state contains an unresolved pending entry"}
		}
	}

	id := newID()
	c.output = append(c.output, Entry{ID: id, Name: name, Arguments: args, Status: Pending})
	return instruction{kind: instrNewToolCall, id: id}
}

// state returns the accumulated output ToolState.
func (c *replayCursor) state() ToolState {
	return ToolState{Entries: c.output}
}

// newEntries reports whether at least one new pending entry was appended
// this pass, the condition spec §4.A requires before classifying a
// new-tool-call rejection as OutcomePartial rather than OutcomeError.
func (c *replayCursor) newEntries() bool {
	return len(c.output) > len(c.input)
}
