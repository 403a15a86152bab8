package index

import "context"

// Index stores documents and answers hybrid similarity queries.
type Index interface {
	// Upsert writes documents keyed by id, overwriting existing entries.
	// Malformed documents are skipped; the count of written documents is
	// returned. An error means the backend itself failed.
	Upsert(ctx context.Context, docs []Document) (int, error)
	// Query returns up to k documents passing filter, most similar first.
	// An empty result is not an error.
	Query(ctx context.Context, embedding []float32, filter Filter, k int) ([]Hit, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
