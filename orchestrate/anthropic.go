package orchestrate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/jonwraymond/codeloop/history"
)

// DefaultModel is the model an AnthropicCompleter uses when Model is unset.
const DefaultModel = anthropic.ModelClaude3_7SonnetLatest

// runTypescriptSchema is the fixed input schema of the single virtual tool
// the model is ever offered (spec §4.D): one string argument holding the
// TypeScript source of a code block.
var runTypescriptSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"code": map[string]any{
			"type":        "string",
			"description": "TypeScript source defining an async function main().",
		},
	},
	"required": []any{"code"},
}

// AnthropicCompleter is a Completer backed by the Anthropic Messages API.
// It is the thin concrete collaborator Serve drives; all of the replay and
// classification logic lives outside it.
type AnthropicCompleter struct {
	Client    *anthropic.Client
	Model     anthropic.Model
	MaxTokens int64
}

// NewAnthropicCompleter builds a completer using an API key sourced from the
// environment by anthropic.NewClient.
func NewAnthropicCompleter() *AnthropicCompleter {
	c := anthropic.NewClient()
	return &AnthropicCompleter{Client: &c, Model: DefaultModel, MaxTokens: 4096}
}

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, systemPrompt string, messages []history.Message) (history.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model(),
		MaxTokens: a.maxTokens(),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Tools: []anthropic.ToolUnionParam{{OfTool: &anthropic.ToolParam{
			Name:        history.RunTypescriptTool,
			Description: anthropic.String("Run a TypeScript async function main() with access to the available tools."),
			InputSchema: runTypescriptSchema,
		}}},
	}

	conv, err := toAnthropicMessages(messages)
	if err != nil {
		return history.Message{}, err
	}
	params.Messages = conv

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return history.Message{}, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	return fromAnthropicMessage(msg)
}

func (a *AnthropicCompleter) model() anthropic.Model {
	if a.Model == "" {
		return DefaultModel
	}
	return a.Model
}

func (a *AnthropicCompleter) maxTokens() int64 {
	if a.MaxTokens == 0 {
		return 4096
	}
	return a.MaxTokens
}

// toAnthropicMessages drops the leading system message (carried separately
// via params.System) and maps the remaining user/assistant/tool messages
// onto the SDK's content-block shapes.
func toAnthropicMessages(messages []history.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case history.RoleSystem:
			continue
		case history.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case history.RoleAssistant:
			blocks, err := assistantBlocks(m)
			if err != nil {
				return nil, err
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case history.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		default:
			return nil, fmt.Errorf("orchestrate: unexpected model-visible role %q", m.Role)
		}
	}
	return out, nil
}

func assistantBlocks(m history.Message) ([]anthropic.ContentBlockParamUnion, error) {
	if !m.HasToolCalls() {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)}, nil
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		input, err := json.Marshal(tc.Arguments)
		if err != nil {
			return nil, fmt.Errorf("orchestrate: marshaling tool call arguments: %w", err)
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, json.RawMessage(input), tc.Name))
	}
	return blocks, nil
}

// fromAnthropicMessage converts the model's reply into the single
// model-visible assistant message orchestrate works with: either plain
// text, or exactly one run_typescript tool call (spec §4.D; the virtual
// tool is offered alone, so a well-behaved model never emits more than
// one call per turn).
func fromAnthropicMessage(msg *anthropic.Message) (history.Message, error) {
	var text string
	var calls []history.ToolCall

	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += v.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal([]byte(v.JSON.Input.Raw()), &args); err != nil {
				return history.Message{}, fmt.Errorf("%w: decoding tool call arguments: %v", ErrCompletion, err)
			}
			id := v.ID
			if id == "" {
				id = uuid.NewString()
			}
			calls = append(calls, history.ToolCall{ID: id, Name: v.Name, Arguments: args})
		}
	}

	return history.Message{Role: history.RoleAssistant, Content: text, ToolCalls: calls}, nil
}
