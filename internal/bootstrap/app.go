package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/catalog"
	"venue-recommender/internal/embedding"
	"venue-recommender/internal/index"
	"venue-recommender/internal/jobs"
	"venue-recommender/internal/llm"
	openai "venue-recommender/internal/llm/openai"
	"venue-recommender/internal/orchestrator"
	"venue-recommender/internal/recommend"
	"venue-recommender/internal/retrieval"
	"venue-recommender/internal/services/health"
	"venue-recommender/internal/shared/config"
	"venue-recommender/internal/shared/server"
	"venue-recommender/internal/shared/storage/db"
	"venue-recommender/internal/shared/storage/object"
	localstore "venue-recommender/internal/shared/storage/object/local"
	s3store "venue-recommender/internal/shared/storage/object/s3"
	"venue-recommender/internal/shared/telemetry"
	"venue-recommender/internal/synthesis"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Catalog          catalog.Repo
	Index            index.Index
	Embedder         embedding.Embedder
	LLM              llm.Client
	Jobs             jobs.Client
	Indexer          *index.Indexer
	RecommendService *recommend.Service
	RecommendHandler *recommend.Handler
	Health           *health.Service

	closers []func() error
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if err := app.buildCatalog(ctx); err != nil {
		return nil, err
	}
	if err := app.buildEmbedder(); err != nil {
		return nil, err
	}
	if err := app.buildIndex(ctx); err != nil {
		return nil, err
	}
	if err := app.buildLLM(ctx); err != nil {
		return nil, err
	}
	if err := app.buildJobs(ctx); err != nil {
		return nil, err
	}
	app.buildServices()

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		RecommendHandler: app.RecommendHandler,
		Health:           app.Health,
	})
	return app, nil
}

// Close releases the index connection, the embedding cache and the database.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.Database.URL) == "" {
		if cfg.IsDevLike() {
			telemetry.Info("bootstrap.database", map[string]any{"mode": "memory", "reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.Database.URL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database", map[string]any{"mode": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	mux := object.Mux{Local: localstore.New("")}
	if cfg.Storage.Type == "s3" {
		s3, err := s3store.New(ctx, cfg.Storage.AWSRegion, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
		if err != nil {
			return nil, err
		}
		mux.S3 = s3
	}
	return mux, nil
}

// Without a database, reference data is seeded from the configured files.
func (a *App) buildCatalog(ctx context.Context) error {
	if a.DB != nil {
		a.Catalog = &catalog.PGRepo{DB: a.DB}
		a.closers = append(a.closers, a.DB.Close)
		return nil
	}
	repo := catalog.NewMemoryRepo()
	if _, err := catalog.Seed(ctx, a.Store, repo, referenceSources(a.Config)); err != nil {
		return fmt.Errorf("seed reference data: %w", err)
	}
	a.Catalog = repo
	return nil
}

func (a *App) buildEmbedder() error {
	cfg := a.Config.Embedding
	dim := a.Config.Index.Dimension

	var base embedding.Embedder
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" && a.Config.IsDevLike() {
			telemetry.Warn("bootstrap.embedding", map[string]any{"provider": "hashing", "reason": "no api key"})
			base = embedding.Hashing{Dim: dim}
			break
		}
		e, err := embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: dim,
			BatchSize: cfg.BatchSize,
		})
		if err != nil {
			return err
		}
		base = e
	case "hashing":
		base = embedding.Hashing{Dim: dim}
	default:
		return fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if _, hashing := base.(embedding.Hashing); hashing {
		a.Embedder = base
		return nil
	}
	cache, err := embedding.OpenCache(cfg.CacheDir, cfg.Model, cfg.CacheTTL, base)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, cache.Close)
	a.Embedder = cache
	return nil
}

func (a *App) buildIndex(ctx context.Context) error {
	cfg := a.Config.Index
	switch cfg.Backend {
	case "", "memory":
		a.Index = index.NewMemory(cfg.Dimension)
	case "milvus":
		connectCtx := ctx
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			connectCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		m, err := index.NewMilvus(connectCtx, index.MilvusConfig{
			Address:        cfg.Address,
			Username:       cfg.Username,
			Password:       cfg.Password,
			Collection:     cfg.Collection,
			Dimension:      cfg.Dimension,
			M:              cfg.M,
			EfConstruction: cfg.EfConstruction,
			EfSearch:       cfg.EfSearch,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, m.Close)
		a.Index = m
	default:
		return fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
	return nil
}

func (a *App) buildLLM(ctx context.Context) error {
	cfg := a.Config.LLM
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		oauth := openai.OAuthConfig{
			TokenURL:     cfg.OAuth.TokenURL,
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Scopes:       cfg.OAuth.Scopes,
		}
		if strings.TrimSpace(cfg.APIKey) == "" && !oauth.Enabled() && a.Config.IsDevLike() {
			telemetry.Warn("bootstrap.llm", map[string]any{"provider": "placeholder", "reason": "no api key"})
			a.LLM = llm.PlaceholderClient{}
			return nil
		}
		client, err := openai.NewClient(openai.Config{
			APIKey:              cfg.APIKey,
			BaseURL:             cfg.BaseURL,
			Model:               cfg.Model,
			Timeout:             cfg.Timeout,
			RequestsPerSec:      cfg.RequestsPerSec,
			Burst:               cfg.Burst,
			NoTemperatureModels: cfg.NoTemperatureModels,
			HTTPClient:          openai.NewHTTPClient(ctx, cfg.Timeout, oauth),
		})
		if err != nil {
			return err
		}
		a.LLM = llm.NewBreakerClient(client, "llm."+cfg.Model, cfg.BreakerFailures, cfg.BreakerCooldown)
	case "", "none", "placeholder":
		a.LLM = llm.PlaceholderClient{}
	default:
		return fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return nil
}

func (a *App) buildJobs(ctx context.Context) error {
	q := a.Config.Queue
	if strings.TrimSpace(q.SQSQueueURL) == "" {
		return nil
	}
	client, err := jobs.NewSQSClient(ctx, q.AWSRegion, q.SQSQueueURL)
	if err != nil {
		return err
	}
	a.Jobs = client
	return nil
}

func (a *App) buildServices() {
	cfg := a.Config

	a.Indexer = &index.Indexer{
		Index:     a.Index,
		Embedder:  a.Embedder,
		Catalog:   a.Catalog,
		Opener:    a.Store,
		BatchSize: cfg.Data.IndexBatchSize,
	}

	budget := llm.NewTokenBudget(cfg.LLM.Model, cfg.LLM.MaxContextTokens)
	orch := orchestrator.New(analysis.DefaultTasks(a.LLM, budget), orchestrator.Config{
		MaxAttempts:  cfg.Orchestrator.MaxAttempts,
		InitialDelay: cfg.Orchestrator.InitialDelay,
		MaxDelay:     cfg.Orchestrator.MaxDelay,
		Timeout:      cfg.Orchestrator.Timeout,
	})

	var runs recommend.RunRepo = recommend.NewMemoryRunRepo()
	if a.DB != nil {
		runs = &recommend.PGRunRepo{DB: a.DB}
	}

	a.RecommendService = &recommend.Service{
		Catalog:     a.Catalog,
		Retriever:   &retrieval.Retriever{Embedder: a.Embedder, Index: a.Index, K: cfg.Index.TopK},
		Analyzer:    orch,
		Synthesizer: synthesis.New(synthesisWeights(cfg.Synthesis)),
		Runs:        runs,
		K:           cfg.Index.TopK,
	}

	h := recommend.NewHandler(a.RecommendService, a.Indexer, a.Jobs)
	h.DefaultDataset = cfg.Data.EventsFile
	h.ResolvePath = cfg.DataPath
	a.RecommendHandler = h
	a.Health = health.NewService(a.DB, a.Index)
	if b, ok := a.LLM.(*llm.BreakerClient); ok {
		a.Health.Breaker = b
	}
}

func synthesisWeights(c config.SynthesisConfig) synthesis.Weights {
	return synthesis.Weights{
		analysis.KindCapacity: c.CapacityWeight,
		analysis.KindLocation: c.LocationWeight,
		analysis.KindCost:     c.CostWeight,
		analysis.KindAmenity:  c.AmenityWeight,
	}
}

func referenceSources(cfg config.Config) catalog.Sources {
	return catalog.Sources{
		Clients:  cfg.DataPath(cfg.Data.ClientsFile),
		Venues:   cfg.DataPath(cfg.Data.VenuesFile),
		Requests: cfg.DataPath(cfg.Data.RequestsFile),
	}
}
