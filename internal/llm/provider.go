// Package llm is the language-model boundary used by report synthesis.
package llm

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned by NewProvider when a hosted provider has no
// credentials configured.
var ErrNoAPIKey = errors.New("no API key configured")

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
