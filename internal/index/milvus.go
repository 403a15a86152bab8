package index

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"venue-recommender/internal/shared/telemetry"
)

const (
	fieldID          = "id"
	fieldVenueID     = "venue_id"
	fieldVenueCity   = "venue_city"
	fieldMaxCapacity = "venue_max_capacity"
	fieldText        = "text"
	fieldMetadata    = "metadata"
	fieldEmbedding   = "embedding"

	milvusShards = int32(1)
)

// MilvusConfig holds connection and HNSW build parameters.
type MilvusConfig struct {
	Address        string
	Username       string
	Password       string
	Collection     string
	Dimension      int
	M              int
	EfConstruction int
	EfSearch       int
}

type milvusAPI interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Flush(ctx context.Context, collName string, async bool, opts ...client.FlushOption) error
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	GetCollectionStatistics(ctx context.Context, collName string) (map[string]string, error)
	Close() error
}

// Milvus is an HNSW-backed index. Filters are pushed down as a boolean
// expression over scalar fields so they constrain the candidate set before
// similarity ranking.
type Milvus struct {
	api milvusAPI
	cfg MilvusConfig

	mu     sync.Mutex
	loaded bool
}

// NewMilvus connects to a Milvus server.
func NewMilvus(ctx context.Context, cfg MilvusConfig) (*Milvus, error) {
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("milvus collection is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("milvus dimension must be positive")
	}
	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect milvus %s: %v", ErrUnavailable, cfg.Address, err)
	}
	return &Milvus{api: c, cfg: cfg}, nil
}

// Close releases the client connection.
func (m *Milvus) Close() error {
	return m.api.Close()
}

func (m *Milvus) Upsert(ctx context.Context, docs []Document) (int, error) {
	valid := make([]Document, 0, len(docs))
	pos := make(map[string]int, len(docs))
	for _, d := range docs {
		if err := d.Validate(m.cfg.Dimension); err != nil {
			telemetry.Warn("index.document_skipped", map[string]any{"backend": "milvus", "error": err})
			continue
		}
		if i, ok := pos[d.ID]; ok {
			valid[i] = d
			continue
		}
		pos[d.ID] = len(valid)
		valid = append(valid, d)
	}

	if err := m.ensureCollection(ctx); err != nil {
		return 0, err
	}
	if len(valid) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(valid))
	venueIDs := make([]string, 0, len(valid))
	cities := make([]string, 0, len(valid))
	capacities := make([]int64, 0, len(valid))
	texts := make([]string, 0, len(valid))
	metas := make([][]byte, 0, len(valid))
	vectors := make([][]float32, 0, len(valid))
	for _, d := range valid {
		meta, err := json.Marshal(d.Metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal metadata %s: %w", d.ID, err)
		}
		ids = append(ids, d.ID)
		venueIDs = append(venueIDs, d.VenueID())
		cities = append(cities, d.VenueCity())
		capacities = append(capacities, int64(d.VenueMaxCapacity()))
		texts = append(texts, d.Text)
		metas = append(metas, meta)
		vectors = append(vectors, d.Embedding)
	}

	_, err := m.api.Upsert(ctx, m.cfg.Collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldVenueID, venueIDs),
		entity.NewColumnVarChar(fieldVenueCity, cities),
		entity.NewColumnInt64(fieldMaxCapacity, capacities),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnJSONBytes(fieldMetadata, metas),
		entity.NewColumnFloatVector(fieldEmbedding, m.cfg.Dimension, vectors),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: upsert: %v", ErrUnavailable, err)
	}
	if err := m.api.Flush(ctx, m.cfg.Collection, false); err != nil {
		return 0, fmt.Errorf("%w: flush: %v", ErrUnavailable, err)
	}
	return len(valid), nil
}

func (m *Milvus) Query(ctx context.Context, embedding []float32, filter Filter, k int) ([]Hit, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	sp, err := entity.NewIndexHNSWSearchParam(m.cfg.EfSearch)
	if err != nil {
		return nil, fmt.Errorf("search params: %w", err)
	}
	results, err := m.api.Search(ctx, m.cfg.Collection, nil, FilterExpr(filter),
		[]string{fieldID, fieldText, fieldMetadata},
		[]entity.Vector{entity.FloatVector(embedding)},
		fieldEmbedding, entity.COSINE, k, sp)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return []Hit{}, nil
	}
	return decodeHits(results[0])
}

func (m *Milvus) Count(ctx context.Context) (int, error) {
	ok, err := m.api.HasCollection(ctx, m.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("%w: has collection: %v", ErrUnavailable, err)
	}
	if !ok {
		return 0, ErrCollectionNotFound
	}
	stats, err := m.api.GetCollectionStatistics(ctx, m.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("%w: statistics: %v", ErrUnavailable, err)
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("parse row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

func (m *Milvus) ensureCollection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return nil
	}
	ok, err := m.api.HasCollection(ctx, m.cfg.Collection)
	if err != nil {
		return fmt.Errorf("%w: has collection: %v", ErrUnavailable, err)
	}
	if !ok {
		if err := m.api.CreateCollection(ctx, m.schema(), milvusShards); err != nil {
			return fmt.Errorf("%w: create collection: %v", ErrUnavailable, err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, m.cfg.M, m.cfg.EfConstruction)
		if err != nil {
			return fmt.Errorf("hnsw params: %w", err)
		}
		if err := m.api.CreateIndex(ctx, m.cfg.Collection, fieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("%w: create index: %v", ErrUnavailable, err)
		}
		telemetry.Info("index.collection_created", map[string]any{
			"collection":      m.cfg.Collection,
			"dimension":       m.cfg.Dimension,
			"m":               m.cfg.M,
			"ef_construction": m.cfg.EfConstruction,
		})
	}
	if err := m.api.LoadCollection(ctx, m.cfg.Collection, false); err != nil {
		return fmt.Errorf("%w: load collection: %v", ErrUnavailable, err)
	}
	m.loaded = true
	return nil
}

func (m *Milvus) ensureLoaded(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return nil
	}
	ok, err := m.api.HasCollection(ctx, m.cfg.Collection)
	if err != nil {
		return fmt.Errorf("%w: has collection: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrCollectionNotFound
	}
	if err := m.api.LoadCollection(ctx, m.cfg.Collection, false); err != nil {
		return fmt.Errorf("%w: load collection: %v", ErrUnavailable, err)
	}
	m.loaded = true
	return nil
}

func (m *Milvus) schema() *entity.Schema {
	return entity.NewSchema().
		WithName(m.cfg.Collection).
		WithDescription("historical events with venue and client metadata").
		WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithIsPrimaryKey(true).WithMaxLength(128)).
		WithField(entity.NewField().WithName(fieldVenueID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(128)).
		WithField(entity.NewField().WithName(fieldVenueCity).WithDataType(entity.FieldTypeVarChar).WithMaxLength(256)).
		WithField(entity.NewField().WithName(fieldMaxCapacity).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(fieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(fieldMetadata).WithDataType(entity.FieldTypeJSON)).
		WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.cfg.Dimension)))
}

func decodeHits(res client.SearchResult) ([]Hit, error) {
	if res.Err != nil {
		return nil, fmt.Errorf("%w: search result: %v", ErrUnavailable, res.Err)
	}
	idCol, ok := res.Fields.GetColumn(fieldID).(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("search result missing %s column", fieldID)
	}
	textCol, _ := res.Fields.GetColumn(fieldText).(*entity.ColumnVarChar)
	metaCol, ok := res.Fields.GetColumn(fieldMetadata).(*entity.ColumnJSONBytes)
	if !ok {
		return nil, fmt.Errorf("search result missing %s column", fieldMetadata)
	}

	hits := make([]Hit, 0, res.ResultCount)
	for i := 0; i < res.ResultCount; i++ {
		id, err := idCol.ValueByIdx(i)
		if err != nil {
			return nil, fmt.Errorf("read id %d: %w", i, err)
		}
		raw, err := metaCol.ValueByIdx(i)
		if err != nil {
			return nil, fmt.Errorf("read metadata %d: %w", i, err)
		}
		var meta Metadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata %s: %w", id, err)
		}
		doc := Document{ID: id, Metadata: meta}
		if textCol != nil {
			doc.Text, _ = textCol.ValueByIdx(i)
		}
		var score float32
		if i < len(res.Scores) {
			score = res.Scores[i]
		}
		hits = append(hits, Hit{Document: doc, Score: score})
	}
	return hits, nil
}

// FilterExpr renders f as a Milvus boolean expression. An empty filter renders "".
// Capacity and city predicates are alternatives, mirroring Filter.Match.
func FilterExpr(f Filter) string {
	var parts []string
	if f.Capacity != nil {
		parts = append(parts, fmt.Sprintf("(%s >= %d && %s <= %d)", fieldMaxCapacity, f.Capacity.Min, fieldMaxCapacity, f.Capacity.Max))
	}
	for _, c := range f.cityPrefixes() {
		parts = append(parts, fmt.Sprintf(`%s like "%s%%"`, fieldVenueCity, escapeLiteral(c)))
	}
	return strings.Join(parts, " || ")
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `%`, `\%`, `_`, `\_`)

// escapeLiteral quotes s for a like pattern so it matches itself literally.
func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

var _ Index = (*Milvus)(nil)
