package embedding

import (
	"context"
	"errors"
)

// Embedder turns texts into vectors. On success the result has one vector per
// input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrUnavailable wraps failures of the embedding backend.
var ErrUnavailable = errors.New("embedding backend unavailable")
