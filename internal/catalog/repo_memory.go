package catalog

import (
	"context"
	"sync"
)

// MemoryRepo keeps reference data in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	requests map[string]EventRequest
	clients  map[string]ClientProfile
	venues   map[string]VenueProfile
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		requests: make(map[string]EventRequest),
		clients:  make(map[string]ClientProfile),
		venues:   make(map[string]VenueProfile),
	}
}

func (r *MemoryRepo) GetRequest(ctx context.Context, eventID string) (EventRequest, error) {
	if err := ctx.Err(); err != nil {
		return EventRequest{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[eventID]
	if !ok {
		return EventRequest{}, ErrNotFound
	}
	return req, nil
}

func (r *MemoryRepo) GetClient(ctx context.Context, clientID string) (ClientProfile, error) {
	if err := ctx.Err(); err != nil {
		return ClientProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return ClientProfile{}, ErrNotFound
	}
	return client, nil
}

func (r *MemoryRepo) GetVenue(ctx context.Context, venueID string) (VenueProfile, error) {
	if err := ctx.Err(); err != nil {
		return VenueProfile{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	venue, ok := r.venues[venueID]
	if !ok {
		return VenueProfile{}, ErrNotFound
	}
	return venue, nil
}

func (r *MemoryRepo) UpsertRequest(ctx context.Context, req EventRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.EventID] = req
	return nil
}

func (r *MemoryRepo) UpsertClient(ctx context.Context, client ClientProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ClientID] = client
	return nil
}

func (r *MemoryRepo) UpsertVenue(ctx context.Context, venue VenueProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[venue.VenueID] = venue
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
