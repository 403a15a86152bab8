package index

import (
	"context"
	"math"
	"sort"
	"sync"

	"venue-recommender/internal/shared/telemetry"
)

// Memory is an exact, in-process index. The collection comes into existence
// on the first Upsert; querying before that returns ErrCollectionNotFound.
type Memory struct {
	mu      sync.RWMutex
	dim     int
	created bool
	docs    map[string]Document
}

// NewMemory constructs an empty in-memory index expecting dim-sized vectors.
// A dim of 0 accepts any non-empty vector.
func NewMemory(dim int) *Memory {
	return &Memory{dim: dim, docs: make(map[string]Document)}
}

func (m *Memory) Upsert(ctx context.Context, docs []Document) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = true

	written := 0
	for _, d := range docs {
		if err := d.Validate(m.dim); err != nil {
			telemetry.Warn("index.document_skipped", map[string]any{"backend": "memory", "error": err})
			continue
		}
		d.Embedding = append([]float32(nil), d.Embedding...)
		m.docs[d.ID] = d
		written++
	}
	return written, nil
}

func (m *Memory) Query(ctx context.Context, embedding []float32, filter Filter, k int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return nil, ErrCollectionNotFound
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(m.docs))
	for _, d := range m.docs {
		if !filter.Match(d) {
			continue
		}
		hits = append(hits, Hit{Document: d, Score: cosine(embedding, d.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.created {
		return 0, ErrCollectionNotFound
	}
	return len(m.docs), nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ Index = (*Memory)(nil)
