// Package orchestrate drives the conversation loop described in spec §4.C:
// classify the client-visible history, and either advance the sandbox one
// replay pass or ask the model for its next move.
//
// The package depends on history and sandbox for the mechanics and on
// typeprojector to build the tool surface embedded in the system prompt. It
// never talks to a model provider directly; that is the Completer
// interface's job, so the driver can be tested against a fake completer
// without a network call.
package orchestrate
