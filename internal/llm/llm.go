package llm

import (
	"context"
	"errors"
)

// Client abstracts text-generation providers. Complete returns the raw model
// output; callers own parsing and validation.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is one chat exchange: a system instruction and a user message.
type Prompt struct {
	// Name labels the prompt in logs and metrics, e.g. "capacity".
	Name   string
	System string
	User   string
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f ClientFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}
