package typeprojector

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/codeloop/tool"
)

// Project renders the full TypeScript declaration block for a tool set: the
// named interfaces for every tool's input and (if present) output schema,
// followed by one async function declaration per tool. The result is meant
// to be embedded verbatim in the model-facing system prompt.
func Project(tools *tool.Set) (string, error) {
	if tools == nil {
		return "", nil
	}

	c := newDeclCollector()
	var functions strings.Builder

	for _, t := range tools.List() {
		inputName := pascalCase(t.Name) + "Input"
		paramType := typeExpr(t.InputSchema.(map[string]any), inputName, c)

		returnType := "unknown"
		if t.OutputSchema != nil {
			returnType = typeExpr(t.OutputSchema.(map[string]any), pascalCase(t.Name)+"Output", c)
		}

		if t.Description != "" {
			fmt.Fprintf(&functions, "/** %s */\n", t.Description)
		}
		fmt.Fprintf(&functions, "declare function %s(args: %s): Promise<%s>;\n\n", t.Name, paramType, returnType)
	}

	var out strings.Builder
	out.WriteString(c.render())
	out.WriteString(functions.String())
	return out.String(), nil
}
