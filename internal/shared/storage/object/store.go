package object

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotConfigured is returned when a key addresses a backend that is not set up.
var ErrNotConfigured = errors.New("object store not configured")

// ObjectStore opens stored datasets for reading.
type ObjectStore interface {
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

// Mux routes s3:// keys to S3 and everything else to Local.
type Mux struct {
	Local ObjectStore
	S3    ObjectStore
}

// Open implements ObjectStore.
func (m Mux) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if strings.HasPrefix(storageKey, "s3://") {
		if m.S3 == nil {
			return nil, ErrNotConfigured
		}
		return m.S3.Open(ctx, storageKey)
	}
	if m.Local == nil {
		return nil, ErrNotConfigured
	}
	return m.Local.Open(ctx, storageKey)
}
