package orchestrate

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/codeloop/sandbox"
	"github.com/jonwraymond/codeloop/tool"
)

// Config holds the configuration for a Driver.
type Config struct {
	// Tools is the set of tools offered to the sandbox and rendered into
	// the system prompt. Required.
	Tools *tool.Set

	// Sandbox executes code blocks. Required.
	Sandbox sandbox.Sandbox

	// Completer collaborates with the model. Required.
	Completer Completer

	// SystemPreamble is prepended to the rendered tool declarations to form
	// the full system prompt (spec §4.D). If empty, a default preamble is
	// used.
	SystemPreamble string

	// Logger is an optional logger for observability.
	Logger Logger

	// MaxPasses bounds how many sandbox/model round-trips a single Serve
	// call may take before giving up (spec §7: guards against a
	// misbehaving model looping forever without ever yielding control back
	// to the client). Zero means unlimited.
	MaxPasses int
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var missing []string
	if c.Tools == nil {
		missing = append(missing, "Tools")
	}
	if c.Sandbox == nil {
		missing = append(missing, "Sandbox")
	}
	if c.Completer == nil {
		missing = append(missing, "Completer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SystemPreamble == "" {
		c.SystemPreamble = defaultSystemPreamble
	}
}

const defaultSystemPreamble = `You can answer directly, or call run_typescript with a single TypeScript
async function main() that calls the declared tool functions below and
returns a JSON-serializable value. Each run_typescript call is replayed
from the start every time new tool results arrive, so main() must be a
pure function of its tool call results: do not rely on side effects
persisting between replays.`
