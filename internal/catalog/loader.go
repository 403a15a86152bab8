package catalog

import (
	"context"
	"fmt"
	"io"

	"venue-recommender/internal/shared/telemetry"
)

// Opener opens a dataset by path or storage key.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Sources names the reference files to seed. Empty paths are skipped.
type Sources struct {
	Clients  string
	Venues   string
	Requests string
}

// SeedResult counts the reference entities written by Seed.
type SeedResult struct {
	Clients   int
	Venues    int
	Requests  int
	Malformed int
}

// Seed loads reference data into repo. A missing optional file is logged and
// skipped so the service can still start with partial reference data.
func Seed(ctx context.Context, opener Opener, repo Repo, src Sources) (SeedResult, error) {
	var res SeedResult

	clients, report, err := openAndDecode(ctx, opener, src.Clients, DecodeClients)
	if err != nil {
		return res, err
	}
	res.Malformed += report.Malformed
	for _, c := range clients {
		if err := repo.UpsertClient(ctx, c); err != nil {
			return res, fmt.Errorf("upsert client %s: %w", c.ClientID, err)
		}
		res.Clients++
	}

	venues, report, err := openAndDecode(ctx, opener, src.Venues, DecodeVenues)
	if err != nil {
		return res, err
	}
	res.Malformed += report.Malformed
	for _, v := range venues {
		if err := repo.UpsertVenue(ctx, v); err != nil {
			return res, fmt.Errorf("upsert venue %s: %w", v.VenueID, err)
		}
		res.Venues++
	}

	requests, report, err := openAndDecode(ctx, opener, src.Requests, DecodeRequests)
	if err != nil {
		return res, err
	}
	res.Malformed += report.Malformed
	for _, r := range requests {
		if err := repo.UpsertRequest(ctx, r); err != nil {
			return res, fmt.Errorf("upsert request %s: %w", r.EventID, err)
		}
		res.Requests++
	}

	telemetry.Info("catalog.seeded", map[string]any{
		"clients":   res.Clients,
		"venues":    res.Venues,
		"requests":  res.Requests,
		"malformed": res.Malformed,
	})
	return res, nil
}

func openAndDecode[T any](ctx context.Context, opener Opener, path string, decode func(io.Reader) ([]T, DecodeReport, error)) ([]T, DecodeReport, error) {
	if path == "" {
		return nil, DecodeReport{}, nil
	}
	rc, err := opener.Open(ctx, path)
	if err != nil {
		telemetry.Warn("catalog.source_unavailable", map[string]any{"path": path, "error": err})
		return nil, DecodeReport{}, nil
	}
	defer rc.Close()
	out, report, err := decode(rc)
	if err != nil {
		return nil, report, fmt.Errorf("decode %s: %w", path, err)
	}
	if report.Malformed > 0 {
		telemetry.Warn("catalog.malformed_records", map[string]any{"path": path, "malformed": report.Malformed, "total": report.Total})
	}
	return out, report, nil
}
