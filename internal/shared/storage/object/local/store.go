package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"venue-recommender/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a local object store rooted at baseDir. With an empty baseDir
// keys are plain paths and absolute paths are allowed.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(storageKey)
	if clean == "." || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("invalid storage key %q", storageKey)
	}
	if filepath.IsAbs(clean) {
		if s.baseDir != "" {
			return nil, fmt.Errorf("invalid storage key %q", storageKey)
		}
		return os.Open(clean)
	}

	return os.Open(filepath.Join(s.baseDir, clean))
}
