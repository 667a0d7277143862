package democlient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/codeloop/history"
)

// Handler executes one tool call and returns its JSON-serializable result.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Client resolves the pending tool calls a Driver leaves at the tail of a
// client-visible history, the way a real remote client would after running
// them locally.
type Client struct {
	handlers map[string]Handler
}

// New builds a Client from a name-to-handler map.
func New(handlers map[string]Handler) *Client {
	return &Client{handlers: handlers}
}

// ResolvePending finds the trailing assistant tool-call message (if any)
// and appends one tool message per call, executing each against the
// registered handler. It returns the history unchanged if the tail isn't a
// tool-call message.
func (c *Client) ResolvePending(ctx context.Context, h []history.Message) ([]history.Message, error) {
	if len(h) == 0 {
		return h, nil
	}
	last := h[len(h)-1]
	if last.Role != history.RoleAssistant || !last.HasToolCalls() {
		return h, nil
	}

	out := append([]history.Message(nil), h...)
	for _, call := range last.ToolCalls {
		handler, ok := c.handlers[call.Name]
		if !ok {
			return nil, fmt.Errorf("democlient: no handler registered for tool %q", call.Name)
		}
		result, err := handler(ctx, call.Arguments)
		if err != nil {
			return nil, fmt.Errorf("democlient: tool %q failed: %w", call.Name, err)
		}
		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("democlient: marshaling result of %q: %w", call.Name, err)
		}
		out = append(out, history.Message{Role: history.RoleTool, ToolCallID: call.ID, Content: string(body)})
	}
	return out, nil
}
