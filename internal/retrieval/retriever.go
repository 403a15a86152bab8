package retrieval

import (
	"context"
	"fmt"
	"time"

	"venue-recommender/internal/embedding"
	"venue-recommender/internal/index"
	"venue-recommender/internal/shared/metrics"
)

// DefaultK is the number of documents requested from the index.
const DefaultK = 10

// Candidate is a document surfaced by retrieval, one per venue.
type Candidate struct {
	Document index.Document
	Score    float32
	// Rank is the 1-based position after deduplication.
	Rank int
}

// VenueID returns the candidate's venue id.
func (c Candidate) VenueID() string { return c.Document.VenueID() }

// Retriever runs hybrid queries against the document index.
type Retriever struct {
	Embedder embedding.Embedder
	Index    index.Index
	K        int
}

// Retrieve embeds queryText, queries the index under filter and deduplicates
// by venue. An empty result is valid. Index errors are returned unchanged so
// callers can tell ErrUnavailable from ErrCollectionNotFound.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, filter index.Filter, k int) ([]Candidate, error) {
	if k <= 0 {
		k = r.K
	}
	if k <= 0 {
		k = DefaultK
	}

	start := time.Now()
	vecs, err := r.Embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", index.ErrUnavailable, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors", index.ErrUnavailable, len(vecs))
	}
	hits, err := r.Index.Query(ctx, vecs[0], filter, k)
	if err != nil {
		return nil, err
	}
	out := Dedupe(hits)
	metrics.ObserveStage("retrieval", time.Since(start))
	metrics.ObserveCandidates(len(out))
	return out, nil
}

// Dedupe keeps the first hit per venue id, preserving rank order. Hits
// without a venue id are dropped.
func Dedupe(hits []index.Hit) []Candidate {
	seen := make(map[string]struct{}, len(hits))
	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		id := h.Document.VenueID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Candidate{Document: h.Document, Score: h.Score, Rank: len(out) + 1})
	}
	return out
}

// CloneCandidates returns a copy of cs that shares no slices with it.
func CloneCandidates(cs []Candidate) []Candidate {
	out := make([]Candidate, len(cs))
	for i, c := range cs {
		c.Document.Embedding = append([]float32(nil), c.Document.Embedding...)
		if v := c.Document.Metadata.Venue; v != nil {
			venue := *v
			c.Document.Metadata.Venue = &venue
		}
		if cl := c.Document.Metadata.Client; cl != nil {
			client := *cl
			c.Document.Metadata.Client = &client
		}
		out[i] = c
	}
	return out
}
