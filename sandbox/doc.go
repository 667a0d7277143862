// Package sandbox implements the deterministic replay sandbox described in
// spec §4.A: a stateless, per-call execution of a model-emitted program
// against a fixed tool-state snapshot.
//
// Each call to Evaluate boots a fresh, isolated JavaScript context (no host
// I/O, no timers beyond the language's own, no shared mutable state), installs
// one interceptor function per declared tool, and runs the program's async
// main() to completion. Every tool call the program makes is resolved
// against a replay cursor walking the input tool-state: calls already
// present in the input settle immediately with their recorded result or
// error; a call past the end of the input mints a new pending entry and
// aborts the pass by rejecting with an interception sentinel the program
// cannot distinguish from any other rejection except by catching it.
//
// The same (code, toolState, tools) pair must always classify to the same
// terminal Outcome, modulo the freshly minted ids of any new pending
// entries — see Outcome and the package-level determinism contract in
// spec §4.A "Determinism contract".
package sandbox
