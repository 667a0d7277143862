package orchestrate

import (
	"context"

	"github.com/jonwraymond/codeloop/history"
)

// Completer is the model-collaborator contract (spec §4.C, §4.D): given a
// system prompt and the model-visible history, produce the model's next
// assistant message. Implementations decide how to map history.Message
// onto their provider's wire format; codeloop only ever speaks to the
// model through this seam.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, messages []history.Message) (history.Message, error)
}
