package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenWithinBaseDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "events.json"), []byte("[]"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := New(dir)

	rc, err := store.Open(context.Background(), "events.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "[]" {
		t.Fatalf("unexpected body %q", body)
	}

	for _, key := range []string{"../etc/passwd", "/etc/passwd", ""} {
		if _, err := store.Open(context.Background(), key); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
	if _, err := store.Open(context.Background(), "missing.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOpenUnrootedAllowsAbsolutePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "venues.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rc, err := New("").Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = rc.Close()
}
