package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type mapOpener map[string]string

func (m mapOpener) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := m[key]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestSeedLoadsAvailableSources(t *testing.T) {
	opener := mapOpener{
		"venues.json":   `[{"venue_id":"VEN-1","name":"Lakeside","city":"Chicago","max_capacity":300},{"name":"no id"}]`,
		"requests.json": `[{"event_id":"EVT-1","attendee_count":280}]`,
	}
	repo := NewMemoryRepo()

	res, err := Seed(context.Background(), opener, repo, Sources{
		Clients:  "clients.json",
		Venues:   "venues.json",
		Requests: "requests.json",
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if res.Venues != 1 || res.Requests != 1 || res.Clients != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Malformed != 1 {
		t.Fatalf("expected 1 malformed venue, got %d", res.Malformed)
	}
	if _, err := repo.GetVenue(context.Background(), "VEN-1"); err != nil {
		t.Fatalf("GetVenue: %v", err)
	}
}
