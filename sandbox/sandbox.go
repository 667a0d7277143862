package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/jonwraymond/codeloop/tool"
)

// Tag keys used on the JS-side sentinel objects the replay cursor rejects
// with. They are never visible to the model's program except as the shape
// of a caught rejection value — spec §9 "Async-reject as interception".
const (
	sentinelKey       = "__codeloopSentinel"
	sentinelNewCall   = "newToolCall"
	sentinelInvariant = "invariantViolation"
)

// Sandbox is the public operation of spec §4.A.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; each call
//   gets its own execution context.
// - Isolation: no network, filesystem, timers, or mutable host references
//   are reachable from the executed program.
// - Determinism: identical (code, toolState, tools) inputs produce
//   identical Outcomes modulo the ids minted for new pending entries.
type Sandbox interface {
	Evaluate(ctx context.Context, code string, state ToolState, tools *tool.Set) (Outcome, error)
}

// DefaultSandbox is the goja-backed implementation of Sandbox.
type DefaultSandbox struct {
	cfg Config
}

// New creates a DefaultSandbox. Returns ErrConfiguration if cfg is invalid.
func New(cfg Config) (*DefaultSandbox, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &DefaultSandbox{cfg: cfg}, nil
}

// collector captures main()'s settlement, routed in from JS by the
// trailer's .then callbacks.
type collector struct {
	settled bool
	isError bool
	value   any
}

// Evaluate boots a fresh context, installs one interceptor per tool as a Go
// binding (the tool shims), compiles (ii) the program verbatim and (iii) a
// trailer that calls main() and reports its settlement, then runs it to
// completion and classifies the result per spec §4.A.
func (s *DefaultSandbox) Evaluate(ctx context.Context, code string, state ToolState, tools *tool.Set) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	rt := goja.New()
	rt.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if err := rt.SetMemoryLimit(s.cfg.MemoryLimitBytes); err != nil {
		return engineErrorOutcome(fmt.Errorf("%w: %v", ErrEngineFailure, err)), nil
	}

	cursor := newReplayCursor(state)
	c := &collector{}

	if tools != nil {
		for _, t := range tools.List() {
			name := t.Name
			if err := rt.Set(name, toolShim(rt, cursor, name)); err != nil {
				return engineErrorOutcome(fmt.Errorf("%w: installing interceptor %q: %v", ErrEngineFailure, name, err)), nil
			}
		}
	}

	if err := rt.Set("__collectSuccess", func(v any) { c.settled = true; c.value = v }); err != nil {
		return engineErrorOutcome(fmt.Errorf("%w: %v", ErrEngineFailure, err)), nil
	}
	if err := rt.Set("__collectError", func(v any) { c.settled = true; c.isError = true; c.value = v }); err != nil {
		return engineErrorOutcome(fmt.Errorf("%w: %v", ErrEngineFailure, err)), nil
	}

	prog, err := goja.Compile("main.js", buildScript(code), true)
	if err != nil {
		return engineErrorOutcome(fmt.Errorf("%w: compile: %v", ErrEngineFailure, err)), nil
	}

	stop := s.armTimeout(ctx, rt)
	defer stop()

	_, runErr := rt.RunProgram(prog)

	if runErr != nil && !c.settled {
		// Rule 3: synchronous throw before the trailer could install a
		// settlement handler.
		return errorOutcome(classifyThrow(runErr), cursor.state()), nil
	}

	if !c.settled {
		// The script neither settled nor errored: main() never returned a
		// promise that resolved/rejected within this pass. Treat as an
		// engine failure; a well-formed program always settles because
		// every await either resolves/rejects immediately or hits the
		// interception sentinel.
		return engineErrorOutcome(fmt.Errorf("%w: main() did not settle", ErrEngineFailure)), nil
	}

	if !c.isError {
		return successOutcome(c.value, cursor.state()), nil
	}

	return classifyRejection(c.value, cursor), nil
}

// classifyThrow maps a synchronous RunProgram error (rule 3) into a
// RuntimeError, unwrapping goja's own error types when possible.
func classifyThrow(err error) error {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return &RuntimeError{Message: exc.Error(), Value: exc.Value().Export(), Err: ErrRuntime}
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w: %v", ErrLimitExceeded, interrupted)
	}
	return &RuntimeError{Message: err.Error(), Err: ErrRuntime}
}

// classifyRejection implements spec §4.A's Outcome classification rule 2:
// distinguish the new-tool-call sentinel (→ partial, provided at least one
// new pending entry exists) from every other rejection (→ code_result
// error, including the engine-internal invariant-violation sentinel).
func classifyRejection(value any, cursor *replayCursor) Outcome {
	if sentinel, ok := asSentinel(value); ok {
		switch sentinel["kind"] {
		case sentinelNewCall:
			if cursor.newEntries() {
				return partialOutcome(cursor.state())
			}
			// No new pending entry was recorded: the sentinel is bogus
			// (e.g. forged by user code). Treat as an ordinary runtime error.
			return errorOutcome(&RuntimeError{
				Message: "received new-tool-call sentinel with no new pending entry",
				Err:     ErrRuntime,
			}, cursor.state())
		case sentinelInvariant:
			return errorOutcome(&RuntimeError{
				Message: fmt.Sprintf("%v", sentinel["message"]),
				Err:     ErrInvalidToolState,
			}, cursor.state())
		}
	}

	return errorOutcome(&RuntimeError{
		Message: fmt.Sprintf("%v", value),
		Value:   value,
		Err:     ErrRuntime,
	}, cursor.state())
}

// asSentinel reports whether value looks like one of our tagged sentinel
// objects and, if so, normalizes its kind tag and payload into a plain map.
func asSentinel(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	tag, ok := m[sentinelKey]
	if !ok {
		return nil, false
	}
	kind, _ := tag.(string)
	out := map[string]any{"kind": kind}
	for k, v := range m {
		if k != sentinelKey {
			out[k] = v
		}
	}
	return out, true
}

// buildScript composes the three parts spec §4.A's "Entry point" describes:
// tool shims are installed via Go bindings before this script runs, so only
// (ii) the program and (iii) the trailer need to be textual.
func buildScript(code string) string {
	return code + "\n" + `
(function() {
  try {
    var __result = main();
    if (!__result || typeof __result.then !== "function") {
      throw new TypeError("main() must return a Promise (declare it as an async function)");
    }
    __result.then(
      function(v) { __collectSuccess(v); },
      function(e) { __collectError(e); }
    );
  } catch (e) {
    __collectError(e);
  }
})();
`
}

// toolShim returns the Go function installed under a tool's name in the
// sandbox's global scope. It forwards the call to the replay cursor and
// settles a freshly created Promise based on the cursor's instruction —
// the host-embedded equivalent of spec §4.A's "tagged record lifted by a
// tiny in-sandbox shim".
func toolShim(rt *goja.Runtime, cursor *replayCursor, name string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var args map[string]any
		if len(call.Arguments) > 0 {
			if m, ok := call.Argument(0).Export().(map[string]any); ok {
				args = m
			}
		}

		instr := cursor.next(name, args)
		promise, resolve, reject := rt.NewPromise()

		switch instr.kind {
		case instrResolve:
			resolve(instr.value)
		case instrReject:
			reject(instr.value)
		case instrNewToolCall:
			reject(map[string]any{
				sentinelKey: sentinelNewCall,
				"id":        instr.id,
				"name":      name,
				"arguments": args,
			})
		case instrInvariantViolation:
			reject(map[string]any{
				sentinelKey: sentinelInvariant,
				"message":   instr.value,
			})
		}

		return rt.ToValue(promise)
	}
}

// armTimeout starts a goroutine that interrupts rt when ctx is done or the
// configured Timeout elapses, whichever comes first. The returned func must
// be called to release the goroutine once Evaluate is done with rt.
func (s *DefaultSandbox) armTimeout(ctx context.Context, rt *goja.Runtime) func() {
	if s.cfg.Timeout <= 0 && ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if s.cfg.Timeout > 0 {
		timer = time.NewTimer(s.cfg.Timeout)
		timeoutCh = timer.C
	}

	go func() {
		select {
		case <-timeoutCh:
			rt.Interrupt(fmt.Errorf("%w: execution timeout", ErrLimitExceeded))
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	return func() {
		close(done)
		if timer != nil {
			timer.Stop()
		}
	}
}
