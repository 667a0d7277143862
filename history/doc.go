// Package history implements the bidirectional mapping between a
// client-visible conversation (spec §3: messages of roles system, user,
// assistant, tool, code, code-result) and a model-visible conversation
// (system, user, assistant, tool, where the only tool the model ever sees
// is the single virtual run_typescript tool).
//
// Classify is the entry point: it decides whether the tail of a
// client-visible history is an open code block awaiting another sandbox
// pass, or a closed conversation ready to be projected to the model.
package history
