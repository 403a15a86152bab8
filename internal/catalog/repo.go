package catalog

import "context"

// Repo resolves reference entities by id. Lookups of unknown ids return ErrNotFound.
type Repo interface {
	GetRequest(ctx context.Context, eventID string) (EventRequest, error)
	GetClient(ctx context.Context, clientID string) (ClientProfile, error)
	GetVenue(ctx context.Context, venueID string) (VenueProfile, error)
	UpsertRequest(ctx context.Context, req EventRequest) error
	UpsertClient(ctx context.Context, client ClientProfile) error
	UpsertVenue(ctx context.Context, venue VenueProfile) error
}
