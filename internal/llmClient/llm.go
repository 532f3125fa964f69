package llmclient

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrEmptyResponse is returned when the provider answered without any text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrMissingAPIKey is returned by factories that need a credential and got none.
	ErrMissingAPIKey = errors.New("llm: api key is required")
)

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Name() string
	Close() error
	// GenerateJSON sends a single prompt and asks the provider to answer with
	// JSON matching schema. A nil schema only requests application/json.
	GenerateJSON(ctx context.Context, prompt string, schema *Schema) (json.RawMessage, error)
}

// Factory builds a client for the given credential.
type Factory func(ctx context.Context, apiKey string) (LLMClient, error)
