package tool

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrDuplicateTool indicates a Set already contains a tool with the given name.
var ErrDuplicateTool = errors.New("tool: duplicate name")

// ErrUnknownTool indicates a Set has no tool with the given name.
var ErrUnknownTool = errors.New("tool: unknown name")

// Tool is a named function with a structured input schema and an optional
// structured output schema, as described in spec §3. It embeds the
// foundation's wire-format type so a Tool can be marshalled directly into
// an MCP-style tool descriptor wherever one is needed.
type Tool struct {
	model.Tool
}

// New builds a Tool from a name, description, and raw JSON-Schema-like
// input schema. OutputSchema may be nil.
func New(name, description string, inputSchema, outputSchema map[string]any) Tool {
	return Tool{
		Tool: model.Tool{
			Tool: mcp.Tool{
				Name:         name,
				Description:  description,
				InputSchema:  inputSchema,
				OutputSchema: outputSchema,
			},
		},
	}
}

// Set is an ordered, name-addressable collection of Tools. It is the unit
// the orchestrator and type projector consume; unlike the teacher's
// tooldiscovery index, a Set supports no runtime search because every tool
// in it is rendered into the system prompt up front (§4.D).
type Set struct {
	order []string
	byName map[string]Tool
}

// NewSet builds a Set from zero or more tools. Returns ErrDuplicateTool if
// two tools share a name.
func NewSet(tools ...Tool) (*Set, error) {
	s := &Set{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := s.Add(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a tool to the set. Returns ErrDuplicateTool if the name is
// already present.
func (s *Set) Add(t Tool) error {
	if s.byName == nil {
		s.byName = make(map[string]Tool)
	}
	if _, exists := s.byName[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}
	s.byName[t.Name] = t
	s.order = append(s.order, t.Name)
	return nil
}

// Get looks up a tool by name.
func (s *Set) Get(name string) (Tool, error) {
	t, ok := s.byName[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// List returns the tools in insertion order. The returned slice is a copy;
// callers may not mutate the Set through it.
func (s *Set) List() []Tool {
	out := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of tools in the set.
func (s *Set) Len() int {
	return len(s.order)
}
