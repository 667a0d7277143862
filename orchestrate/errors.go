package orchestrate

import "errors"

// ErrConfiguration indicates a Config is missing a required field.
var ErrConfiguration = errors.New("orchestrate: invalid configuration")

// ErrCompletion indicates the Completer failed to produce a reply.
var ErrCompletion = errors.New("orchestrate: completion failed")

// ErrEngineFailure indicates the sandbox itself malfunctioned while
// evaluating a code block (context bootstrap, compilation, binding
// installation). Spec §4.C's algorithm raises this rather than folding it
// into a client-visible code-result: "engine_error: raise" (§7 taxonomy
// item 4 — fatal, no client retry logic).
var ErrEngineFailure = errors.New("orchestrate: sandbox engine failure")
