package typeprojector

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCaser drives PascalCase identifier generation from arbitrary tool and
// property names (snake_case, kebab-case, camelCase, or free text). NoLower
// keeps the existing humps of a camelCase word ("webSearch" -> "WebSearch").
var titleCaser = cases.Title(language.AmericanEnglish, cases.NoLower)

// pascalCase turns a tool or property name into a TypeScript-friendly
// PascalCase identifier, e.g. "web_search" -> "WebSearch".
func pascalCase(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = titleCaser.String(f)
	}
	out := strings.Join(fields, "")
	if out == "" {
		return "Anonymous"
	}
	return out
}

// decl is a named interface declaration discovered while walking a schema.
type decl struct {
	name string
	body string
}

// declCollector accumulates named interface declarations in first-seen
// order, de-duplicating by name (spec §4.D's tool namespace guarantees
// per-tool schema names are already unique, so collisions here only arise
// from shared nested object shapes, which is harmless to print once).
type declCollector struct {
	order []string
	seen  map[string]decl
}

func newDeclCollector() *declCollector {
	return &declCollector{seen: make(map[string]decl)}
}

func (c *declCollector) add(name, body string) {
	if _, ok := c.seen[name]; ok {
		return
	}
	c.seen[name] = decl{name: name, body: body}
	c.order = append(c.order, name)
}

func (c *declCollector) render() string {
	var b strings.Builder
	for _, name := range c.order {
		b.WriteString(c.seen[name].body)
		b.WriteString("\n")
	}
	return b.String()
}

// typeExpr renders a JSON-Schema-like node as a TypeScript type expression.
// Object schemas with a preferredName are hoisted into the collector as a
// named interface and referenced by name; every other shape is rendered
// inline. This mirrors how the teacher's executor normalizes arbitrary
// JSON-ish values (code/tools.go's deepCopyValue) by switching on the
// concrete shape rather than assuming a fixed schema dialect.
func typeExpr(schema map[string]any, preferredName string, c *declCollector) string {
	if schema == nil {
		return "unknown"
	}

	if enum, ok := schema["enum"].([]any); ok && len(enum) > 0 {
		return renderEnum(enum)
	}

	switch t, _ := schema["type"].(string); t {
	case "object":
		return objectTypeExpr(schema, preferredName, c)
	case "array":
		items, _ := schema["items"].(map[string]any)
		return typeExpr(items, preferredName+"Item", c) + "[]"
	case "string":
		return "string"
	case "number", "integer":
		return "number"
	case "boolean":
		return "boolean"
	case "null":
		return "null"
	default:
		if _, ok := schema["properties"]; ok {
			return objectTypeExpr(schema, preferredName, c)
		}
		return "unknown"
	}
}

func renderEnum(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch s := v.(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%q", s))
		default:
			parts = append(parts, fmt.Sprintf("%v", s))
		}
	}
	return strings.Join(parts, " | ")
}

func objectTypeExpr(schema map[string]any, preferredName string, c *declCollector) string {
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		name := pascalCase(preferredName)
		c.add(name, fmt.Sprintf("interface %s {}", name))
		return name
	}

	required := map[string]bool{}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	name := pascalCase(preferredName)
	fmt.Fprintf(&b, "interface %s {\n", name)
	for _, propName := range names {
		propSchema, _ := props[propName].(map[string]any)
		optional := ""
		if !required[propName] {
			optional = "?"
		}
		propType := typeExpr(propSchema, preferredName+"_"+propName, c)
		fmt.Fprintf(&b, "  %s%s: %s;\n", propName, optional, propType)
	}
	b.WriteString("}")

	c.add(name, b.String())
	return name
}
