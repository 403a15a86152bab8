package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venue-recommender/internal/catalog"
	"venue-recommender/internal/embedding"
	"venue-recommender/internal/shared/metrics"
	"venue-recommender/internal/shared/telemetry"
)

// Result reports the outcome of indexing one dataset.
type Result struct {
	Success        bool `json:"success"`
	TotalDocuments int  `json:"total_documents"`
	Skipped        int  `json:"skipped"`
}

// Indexer turns an event history dataset into indexed documents.
type Indexer struct {
	Index     Index
	Embedder  embedding.Embedder
	Catalog   catalog.Repo
	Opener    catalog.Opener
	BatchSize int
	Now       func() time.Time
}

// IndexDataset reads the dataset at path, joins each record with its client
// and venue, embeds it and writes it. Malformed records are skipped and
// counted; backend failures abort the run.
func (ix *Indexer) IndexDataset(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	rc, err := ix.Opener.Open(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer rc.Close()

	records, report, err := catalog.DecodeEvents(rc)
	if err != nil {
		return Result{}, err
	}
	for _, e := range report.Errors {
		telemetry.Warn("index.record_malformed", map[string]any{"path": path, "error": e})
	}

	res, err := ix.IndexRecords(ctx, records)
	res.Skipped += report.Malformed
	metrics.AddDocuments("skipped", report.Malformed)
	metrics.ObserveStage("index", time.Since(start))
	if err != nil {
		return res, err
	}
	telemetry.Info("index.write", map[string]any{
		"path":            path,
		"total_documents": res.TotalDocuments,
		"skipped":         res.Skipped,
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	return res, nil
}

// IndexRecords embeds and writes already decoded records in batches.
func (ix *Indexer) IndexRecords(ctx context.Context, records []catalog.EventRecord) (Result, error) {
	batch := ix.BatchSize
	if batch <= 0 {
		batch = 64
	}
	now := time.Now
	if ix.Now != nil {
		now = ix.Now
	}

	var res Result
	for start := 0; start < len(records); start += batch {
		end := min(start+batch, len(records))
		chunk := records[start:end]

		texts := make([]string, len(chunk))
		for i, rec := range chunk {
			texts[i] = EmbeddingText(rec)
		}
		vecs, err := ix.Embedder.Embed(ctx, texts)
		if err != nil {
			return res, fmt.Errorf("%w: embed batch at %d: %v", ErrUnavailable, start, err)
		}
		if len(vecs) != len(chunk) {
			return res, fmt.Errorf("%w: embedder returned %d vectors for %d records", ErrUnavailable, len(vecs), len(chunk))
		}

		docs := make([]Document, len(chunk))
		for i, rec := range chunk {
			docs[i] = BuildDocument(rec, ix.client(ctx, rec.ClientID), ix.venue(ctx, rec.VenueID), vecs[i], now())
		}
		written, err := ix.Index.Upsert(ctx, docs)
		if err != nil {
			return res, err
		}
		res.TotalDocuments += written
		res.Skipped += len(docs) - written
		metrics.AddDocuments("written", written)
		metrics.AddDocuments("skipped", len(docs)-written)
	}
	res.Success = true
	return res, nil
}

func (ix *Indexer) client(ctx context.Context, id string) *catalog.ClientProfile {
	if id == "" || ix.Catalog == nil {
		return nil
	}
	c, err := ix.Catalog.GetClient(ctx, id)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			telemetry.Warn("index.client_lookup_failed", map[string]any{"client_id": id, "error": err})
		}
		return nil
	}
	return &c
}

func (ix *Indexer) venue(ctx context.Context, id string) *catalog.VenueProfile {
	if id == "" || ix.Catalog == nil {
		return nil
	}
	v, err := ix.Catalog.GetVenue(ctx, id)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			telemetry.Warn("index.venue_lookup_failed", map[string]any{"venue_id": id, "error": err})
		}
		return nil
	}
	return &v
}
