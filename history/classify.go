package history

import (
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/codeloop/sandbox"
)

// ClassificationKind distinguishes the two non-error outcomes of Classify.
type ClassificationKind int

const (
	// ClassifyCode means the history ends with an open code block: the
	// orchestrator should advance the sandbox.
	ClassifyCode ClassificationKind = iota
	// ClassifyLlm means every code block is closed: the orchestrator should
	// ask the model for its next reply.
	ClassifyLlm
)

// Classification is the result of Classify. A non-nil error from Classify
// corresponds to spec §4.B's Error{kind} outcome; Classification is only
// meaningful when that error is nil.
type Classification struct {
	Kind ClassificationKind

	// Code, CodeID, and ToolState are set when Kind == ClassifyCode.
	Code      string
	CodeID    string
	ToolState sandbox.ToolState

	// ServerHistory is set when Kind == ClassifyLlm: the model-visible
	// projection of the full client history.
	ServerHistory []Message
}

// Classify scans a client-visible history and classifies it per spec
// §4.B. It returns a protocol-violation error (wrapping ErrProtocolViolation
// or ErrIllFormedToolContent) for any ill-formed input.
func Classify(h []Message) (Classification, error) {
	open := false
	openIdx := -1
	openID := ""

	for i, m := range h {
		switch m.Role {
		case RoleCode:
			if open {
				return Classification{}, fmt.Errorf("%w: a second code block opened before %q closed", ErrProtocolViolation, openID)
			}
			open, openIdx, openID = true, i, m.CodeID
		case RoleCodeResult:
			if !open {
				return Classification{}, fmt.Errorf("%w: code-result with no preceding code", ErrProtocolViolation)
			}
			if m.CodeID != openID {
				return Classification{}, fmt.Errorf("%w: code-result id %q does not match open code id %q", ErrProtocolViolation, m.CodeID, openID)
			}
			open, openIdx, openID = false, -1, ""
		case RoleTool:
			if !open {
				return Classification{}, fmt.Errorf("%w: tool message outside a code block", ErrProtocolViolation)
			}
		case RoleSystem, RoleUser:
			if open {
				return Classification{}, fmt.Errorf("%w: %s message inside an open code block", ErrProtocolViolation, m.Role)
			}
		case RoleAssistant:
			// Assistant messages are valid both inside and outside an open
			// block; outside one, ClientToServerMessages rejects tool calls
			// to anything but run_typescript.
		default:
			return Classification{}, fmt.Errorf("%w: unknown role %q", ErrProtocolViolation, m.Role)
		}
	}

	if open {
		state, err := buildToolState(h[openIdx+1:])
		if err != nil {
			return Classification{}, err
		}
		return Classification{
			Kind:      ClassifyCode,
			Code:      h[openIdx].Code,
			CodeID:    h[openIdx].CodeID,
			ToolState: state,
		}, nil
	}

	server, err := ClientToServerMessages(h)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Kind: ClassifyLlm, ServerHistory: server}, nil
}

// buildToolState implements spec §4.B "Building tool-state from a slice":
// take the messages strictly after an open code marker, find the latest
// assistant message with no tool calls (the boundary of the most recent
// replay pass), and turn every assistant tool call after that point into a
// resolved or pending sandbox.Entry.
func buildToolState(slice []Message) (sandbox.ToolState, error) {
	start := 0
	for i := len(slice) - 1; i >= 0; i-- {
		if slice[i].Role == RoleAssistant && !slice[i].HasToolCalls() {
			start = i + 1
			break
		}
	}

	var entries []sandbox.Entry
	for i := start; i < len(slice); i++ {
		m := slice[i]
		if m.Role != RoleAssistant {
			continue
		}
		for _, tc := range m.ToolCalls {
			toolMsg, found := findToolMessage(slice, tc.ID)
			if !found {
				entries = append(entries, sandbox.Entry{
					ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments,
					Status: sandbox.Pending,
				})
				continue
			}

			var parsed any
			if err := json.Unmarshal([]byte(toolMsg.Content), &parsed); err != nil {
				return sandbox.ToolState{}, fmt.Errorf("%w: tool message for call %q: %v", ErrIllFormedToolContent, tc.ID, err)
			}
			entries = append(entries, sandbox.Entry{
				ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments,
				Status: sandbox.Resolved, Result: parsed,
			})
		}
	}

	return sandbox.ToolState{Entries: entries}, nil
}

func findToolMessage(slice []Message, toolCallID string) (Message, bool) {
	for _, m := range slice {
		if m.Role == RoleTool && m.ToolCallID == toolCallID {
			return m, true
		}
	}
	return Message{}, false
}
