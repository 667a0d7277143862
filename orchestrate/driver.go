package orchestrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/codeloop/history"
	"github.com/jonwraymond/codeloop/sandbox"
	"github.com/jonwraymond/codeloop/typeprojector"
)

// ErrMaxPassesExceeded indicates Serve took more sandbox/model round-trips
// than Config.MaxPasses allows without returning control to the client.
var ErrMaxPassesExceeded = errors.New("orchestrate: max passes exceeded")

// Driver implements the conversation loop of spec §4.C on top of history,
// sandbox, and a Completer.
type Driver struct {
	cfg          Config
	systemPrompt string
}

// New builds a Driver. The tool declarations are rendered once, at
// construction time, since Config.Tools does not change over a Driver's
// lifetime.
func New(cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	decls, err := typeprojector.Project(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: projecting tool declarations: %w", err)
	}

	prompt := cfg.SystemPreamble + "\n\n" + decls
	return &Driver{cfg: cfg, systemPrompt: prompt}, nil
}

// Serve advances a client-visible history as far as it can go without
// external input: it classifies the tail, and either drives the sandbox
// through a resolved replay pass (recursing immediately if the pass
// completed) or asks the model for its next move, appending the
// model-visible reply back to the client view.
//
// Serve returns when either:
//   - a sandbox pass comes back OutcomePartial, meaning new tool calls were
//     minted that only the remote client can resolve, or
//   - the model replies without any tool call, ending the turn.
//
// A reply whose tool calls are not run_typescript calls is appended as is
// and then rejected by the next Classify as a protocol violation.
func (d *Driver) Serve(ctx context.Context, h []history.Message) ([]history.Message, error) {
	passes := 0
	for {
		if d.cfg.MaxPasses > 0 && passes >= d.cfg.MaxPasses {
			return nil, ErrMaxPassesExceeded
		}
		passes++

		classification, err := history.Classify(h)
		if err != nil {
			return nil, err
		}

		switch classification.Kind {
		case history.ClassifyCode:
			next, done, err := d.advanceSandbox(ctx, h, classification)
			if err != nil {
				return nil, err
			}
			h = next
			if !done {
				return h, nil
			}
			// The code block closed; loop back around to classify again,
			// which will now see a closed block and ask the model.
		case history.ClassifyLlm:
			reply, err := d.cfg.Completer.Complete(ctx, d.systemPrompt, classification.ServerHistory)
			if err != nil {
				return nil, err
			}
			h = append(h, history.ProjectAssistant(reply)...)
			if !reply.HasToolCalls() {
				return h, nil
			}
			// A run_typescript call opened a new code block; loop back
			// around to drive it.
		default:
			return nil, fmt.Errorf("orchestrate: unknown classification kind %v", classification.Kind)
		}
	}
}

// advanceSandbox runs one sandbox.Evaluate pass for the currently open code
// block and appends the resulting client-visible messages. done reports
// whether the block closed (success or error) so Serve should keep
// looping, as opposed to a partial outcome that must return to the client.
func (d *Driver) advanceSandbox(ctx context.Context, h []history.Message, c history.Classification) ([]history.Message, bool, error) {
	outcome, err := d.cfg.Sandbox.Evaluate(ctx, c.Code, c.ToolState, d.cfg.Tools)
	if err != nil {
		return nil, false, fmt.Errorf("orchestrate: evaluating code block %s: %w", c.CodeID, err)
	}

	if d.cfg.Logger != nil {
		d.cfg.Logger.Logf("orchestrate: code block %s evaluated to %v", c.CodeID, outcome.Kind)
	}

	switch outcome.Kind {
	case sandbox.OutcomePartial:
		h = append(h, pendingToolCallMessages(outcome.ToolState)...)
		return h, false, nil
	case sandbox.OutcomeSuccess, sandbox.OutcomeError:
		h = append(h, ProjectCodeResult(c.CodeID, outcome))
		return h, true, nil
	case sandbox.OutcomeEngineError:
		// Spec §4.C: "engine_error: raise" — fatal, surfaced as a system
		// error rather than a client-visible code-result the model could
		// be shown and asked to react to (§7 taxonomy item 4).
		return nil, false, fmt.Errorf("%w: code block %s: %w", ErrEngineFailure, c.CodeID, outcome.Err)
	default:
		return nil, false, fmt.Errorf("orchestrate: unknown outcome kind %v", outcome.Kind)
	}
}

// pendingToolCallMessages appends a single client-visible assistant message
// carrying every newly minted pending entry, in minted order (spec §8
// scenario S2's parallel fan-out produces one assistant turn with several
// tool calls, not several turns). The remote client is expected to resolve
// each with a tool message and resubmit the history.
func pendingToolCallMessages(state sandbox.ToolState) []history.Message {
	pending := state.Pending()
	if len(pending) == 0 {
		return nil
	}
	calls := make([]history.ToolCall, 0, len(pending))
	for _, e := range pending {
		calls = append(calls, history.ToolCall{ID: e.ID, Name: e.Name, Arguments: e.Arguments})
	}
	return []history.Message{{Role: history.RoleAssistant, ToolCalls: calls}}
}

// ProjectCodeResult converts a closed sandbox.Outcome (OutcomeSuccess or
// OutcomeError — advanceSandbox raises OutcomeEngineError instead of
// closing the block with it) into the client-visible code-result message
// that closes the code block opened under codeID (spec §6).
func ProjectCodeResult(codeID string, outcome sandbox.Outcome) history.Message {
	payload := &history.CodeResultPayload{}
	switch outcome.Kind {
	case sandbox.OutcomeSuccess:
		payload.Status = history.CodeResultSuccess
		payload.Data = outcome.Value
	default:
		payload.Status = history.CodeResultError
		msg := ""
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		payload.Error = map[string]any{"message": msg}
	}
	return history.Message{Role: history.RoleCodeResult, CodeID: codeID, Result: payload}
}
