// Package typeprojector renders a tool.Set into a block of TypeScript
// declarations: one async function signature per tool, plus the named
// interfaces its input and output schemas describe.
//
// The rendered block is what the orchestrator embeds in the system prompt
// (spec §4.D) so the model can write idiomatic, type-checked-by-convention
// TypeScript against the tool surface instead of hand-assembling JSON
// arguments. typeprojector only prints declarations; it never validates a
// call against them; that responsibility belongs to the remote client and,
// for wire-level payload shape, to the foundation's schema validator.
package typeprojector
