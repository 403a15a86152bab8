package index

import "errors"

var (
	// ErrUnavailable means the index backend could not be reached.
	ErrUnavailable = errors.New("document index unavailable")
	// ErrCollectionNotFound means the collection was never built. It is distinct
	// from a query that matched nothing.
	ErrCollectionNotFound = errors.New("index collection not found")
	ErrMalformedDocument  = errors.New("malformed document")
)
