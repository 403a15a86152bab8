package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"venue-recommender/internal/shared/telemetry"
	"venue-recommender/internal/shared/util"
)

// Cache memoizes vectors per (model, text) in badger. Misses are forwarded to
// the wrapped embedder in one batch.
type Cache struct {
	db    *badger.DB
	next  Embedder
	model string
	ttl   time.Duration
}

// OpenCache opens a badger cache under dir, or an in-memory cache when dir is empty.
func OpenCache(dir, model string, ttl time.Duration, next Embedder) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return &Cache{db: db, next: next, model: model, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	err := c.db.View(func(txn *badger.Txn) error {
		for i, text := range texts {
			item, err := txn.Get(c.key(text))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missIdx = append(missIdx, i)
				missTexts = append(missTexts, text)
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				out[i] = decodeVector(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.Warn("embedding.cache_read_failed", map[string]any{"error": err})
		return c.next.Embed(ctx, texts)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(vecs), len(missTexts))
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		for j, vec := range vecs {
			e := badger.NewEntry(c.key(missTexts[j]), encodeVector(vec))
			if c.ttl > 0 {
				e = e.WithTTL(c.ttl)
			}
			if err := txn.SetEntry(e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.Warn("embedding.cache_write_failed", map[string]any{"error": err})
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
	}
	return out, nil
}

func (c *Cache) key(text string) []byte {
	return []byte("emb:" + util.HashKey(c.model, text))
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
