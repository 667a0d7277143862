// Package tool defines the tool data model shared by the sandbox,
// history transcoder, orchestrator, and type projector.
//
// A Tool is opaque to everything except the type projector: the name and
// description are copied verbatim into the model's system prompt, and the
// input/output schemas are walked to produce source-level type
// declarations. Nothing in this module executes a tool; execution is
// always the remote client's responsibility (see package sandbox).
package tool
