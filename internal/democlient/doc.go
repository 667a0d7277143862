// Package democlient is a toy stand-in for the remote client codeloopd
// expects: something that executes tool calls on its own side and resolves
// them back into the conversation. It exists only for cmd/demo; a real
// deployment's client lives outside this module entirely (spec §1 scope
// note: the sandbox's remote client is a collaborator, not part of the
// core).
package democlient
