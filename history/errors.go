package history

import "errors"

// ErrProtocolViolation indicates the client-visible history is not
// well-formed per spec §3's invariant: fatal, no retry (spec §7 taxonomy
// item 1).
var ErrProtocolViolation = errors.New("history: protocol violation")

// ErrIllFormedToolContent indicates a tool message's content is not a JSON
// string, which spec §4.B calls a fatal classification error (spec §7
// taxonomy item 5).
var ErrIllFormedToolContent = errors.New("history: ill-formed tool message content")
