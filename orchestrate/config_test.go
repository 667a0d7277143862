package orchestrate

import (
	"errors"
	"testing"

	"github.com/jonwraymond/codeloop/tool"
)

func TestConfig_ValidateMissingFields(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestConfig_ValidateComplete(t *testing.T) {
	tools, err := tool.NewSet()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := &Config{Tools: tools, Sandbox: &fakeSandbox{}, Completer: &fakeCompleter{}}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	c := &Config{}
	c.applyDefaults()
	if c.SystemPreamble == "" {
		t.Error("expected a default system preamble")
	}
}
