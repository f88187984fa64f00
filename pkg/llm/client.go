// Package llm provides interfaces and implementations for LLM completion clients
package llm

import "context"

// Client defines the interface for interacting with large language models
type Client interface {
	// Complete sends a system instruction and a user prompt to the LLM and
	// returns the raw completion text
	Complete(ctx context.Context, system, prompt string) (string, error)
}
