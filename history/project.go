package history

import (
	"encoding/json"
	"fmt"
)

// ClientToServerMessages implements spec §4.B's client→model projection: it
// walks the client-visible history left to right through a two-state
// machine (normal, in-code{id}) and emits the model-visible equivalent.
// Everything between an open code marker and its matching code-result —
// the intermediate standard tool-call dialogue — is absorbed rather than
// forwarded; the model only ever sees the code block as a single
// run_typescript call and its eventual result.
//
// The function is pure: called twice on the same closed-block history it
// returns equal output, since it has no hidden state beyond the argument.
func ClientToServerMessages(h []Message) ([]Message, error) {
	var out []Message

	const (
		stateNormal = iota
		stateInCode
	)
	state := stateNormal
	codeID := ""

	for _, m := range h {
		switch state {
		case stateNormal:
			switch m.Role {
			case RoleCode:
				out = append(out, Message{
					Role: RoleAssistant,
					ToolCalls: []ToolCall{{
						ID:   m.CodeID,
						Name: RunTypescriptTool,
						Arguments: map[string]any{
							"code": m.Code,
						},
					}},
				})
				state, codeID = stateInCode, m.CodeID
			case RoleCodeResult, RoleTool:
				return nil, fmt.Errorf("%w: %s message outside a code block", ErrProtocolViolation, m.Role)
			case RoleAssistant:
				for _, tc := range m.ToolCalls {
					if tc.Name != RunTypescriptTool {
						return nil, fmt.Errorf("%w: assistant tool call %q outside a code block", ErrProtocolViolation, tc.Name)
					}
				}
				out = append(out, m)
				if tc, ok := m.IsRunTypescriptCall(); ok {
					state, codeID = stateInCode, tc.ID
				}
			default:
				out = append(out, m)
			}
		case stateInCode:
			switch m.Role {
			case RoleCodeResult:
				if m.CodeID != codeID {
					return nil, fmt.Errorf("%w: code-result id %q does not match open code id %q", ErrProtocolViolation, m.CodeID, codeID)
				}
				content, err := marshalCodeResult(m.Result)
				if err != nil {
					return nil, err
				}
				out = append(out, Message{Role: RoleTool, ToolCallID: codeID, Content: content})
				state, codeID = stateNormal, ""
			case RoleAssistant, RoleTool:
				// The intermediate tool-call dialogue between the open code
				// marker and its code-result: invisible to the model (spec
				// §4.B "In in-code{id} on assistant/tool messages: absorb").
			case RoleCode:
				return nil, fmt.Errorf("%w: a second code block opened before %q closed", ErrProtocolViolation, codeID)
			default:
				return nil, fmt.Errorf("%w: %s message inside an open code block", ErrProtocolViolation, m.Role)
			}
		}
	}

	if state == stateInCode {
		return nil, fmt.Errorf("%w: history ends with an unclosed code block %q", ErrProtocolViolation, codeID)
	}

	return out, nil
}

func marshalCodeResult(p *CodeResultPayload) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: code-result message missing its payload", ErrProtocolViolation)
	}
	var body any
	switch p.Status {
	case CodeResultSuccess:
		body = p.Data
	case CodeResultError:
		body = map[string]any{"error": p.Error}
	default:
		return "", fmt.Errorf("%w: unknown code-result status %q", ErrProtocolViolation, p.Status)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("history: marshaling code-result payload: %w", err)
	}
	return string(b), nil
}

// ProjectAssistant converts a model-visible assistant reply that calls
// run_typescript into the client-visible code message that opens a new
// block. A reply that doesn't call run_typescript is passed through
// unchanged (spec §4.C: the model may also reply with plain content, which
// ends the turn without entering the sandbox).
func ProjectAssistant(m Message) []Message {
	tc, ok := m.IsRunTypescriptCall()
	if !ok {
		return []Message{m}
	}
	code, _ := tc.Arguments["code"].(string)
	return []Message{{Role: RoleCode, CodeID: tc.ID, Code: code}}
}
