package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// PGRepo implements Repo using Postgres. Each entity is stored as a JSONB
// document next to the columns operators query on.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) GetRequest(ctx context.Context, eventID string) (EventRequest, error) {
	var req EventRequest
	err := r.getDocument(ctx, `SELECT data FROM event_requests WHERE event_id = $1 LIMIT 1`, eventID, &req)
	return req, err
}

func (r *PGRepo) GetClient(ctx context.Context, clientID string) (ClientProfile, error) {
	var client ClientProfile
	err := r.getDocument(ctx, `SELECT data FROM clients WHERE client_id = $1 LIMIT 1`, clientID, &client)
	return client, err
}

func (r *PGRepo) GetVenue(ctx context.Context, venueID string) (VenueProfile, error) {
	var venue VenueProfile
	err := r.getDocument(ctx, `SELECT data FROM venues WHERE venue_id = $1 LIMIT 1`, venueID, &venue)
	return venue, err
}

func (r *PGRepo) UpsertRequest(ctx context.Context, req EventRequest) error {
	const query = `
INSERT INTO event_requests (event_id, client_id, attendee_count, data, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id) DO UPDATE
SET client_id = EXCLUDED.client_id,
    attendee_count = EXCLUDED.attendee_count,
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at`
	payload, err := marshalJSONB(req)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, req.EventID, nullString(req.ClientID), req.AttendeeCount, payload, time.Now().UTC())
	return err
}

func (r *PGRepo) UpsertClient(ctx context.Context, client ClientProfile) error {
	const query = `
INSERT INTO clients (client_id, name, data, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (client_id) DO UPDATE
SET name = EXCLUDED.name,
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at`
	payload, err := marshalJSONB(client)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, client.ClientID, client.Name, payload, time.Now().UTC())
	return err
}

func (r *PGRepo) UpsertVenue(ctx context.Context, venue VenueProfile) error {
	const query = `
INSERT INTO venues (venue_id, name, city, max_capacity, data, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (venue_id) DO UPDATE
SET name = EXCLUDED.name,
    city = EXCLUDED.city,
    max_capacity = EXCLUDED.max_capacity,
    data = EXCLUDED.data,
    updated_at = EXCLUDED.updated_at`
	payload, err := marshalJSONB(venue)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, venue.VenueID, venue.Name, venue.City, venue.MaxCapacity, payload, time.Now().UTC())
	return err
}

func (r *PGRepo) getDocument(ctx context.Context, query, id string, dest any) error {
	var raw []byte
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}
	return nil
}

func marshalJSONB(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return payload, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
