package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venue-recommender/internal/bootstrap"
	"venue-recommender/internal/shared/config"
	"venue-recommender/internal/shared/server"
	"venue-recommender/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("api.config_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer app.Close()

	if cfg.Data.IndexOnStartup {
		path := cfg.DataPath(cfg.Data.EventsFile)
		if _, err := app.Indexer.IndexDataset(ctx, path); err != nil {
			telemetry.Error("api.index_on_startup_failed", map[string]any{"path": path, "error": err})
		}
	}

	addr := server.Addr(cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	telemetry.Info("api.started", map[string]any{"addr": addr, "env": cfg.Env, "index_backend": cfg.Index.Backend})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		telemetry.Error("api.server_failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
