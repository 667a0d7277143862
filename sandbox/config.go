package sandbox

import (
	"fmt"
	"time"
)

// DefaultMemoryLimitBytes is the default heap cap applied to every fresh
// execution context, per spec §4.A ("A memory cap (e.g. 8 MiB) bounds
// worst-case heap use").
const DefaultMemoryLimitBytes = 8 * 1024 * 1024

// Config controls resource limits and observability for a Sandbox.
type Config struct {
	// MemoryLimitBytes caps the heap of each fresh execution context.
	// Zero means DefaultMemoryLimitBytes.
	MemoryLimitBytes int64

	// Timeout bounds a single Evaluate call's wall-clock time. Zero means
	// no cap beyond the caller's context. Spec §5 treats this as an
	// optional implementation choice, not a requirement.
	Timeout time.Duration

	// Logger is an optional observability sink.
	Logger Logger
}

// Validate reports whether the configuration is well-formed.
func (c *Config) Validate() error {
	if c.MemoryLimitBytes < 0 {
		return fmt.Errorf("%w: MemoryLimitBytes must not be negative", ErrConfiguration)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: Timeout must not be negative", ErrConfiguration)
	}
	return nil
}

// applyDefaults fills in zero-valued optional fields.
func (c *Config) applyDefaults() {
	if c.MemoryLimitBytes == 0 {
		c.MemoryLimitBytes = DefaultMemoryLimitBytes
	}
}
