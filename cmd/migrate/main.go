package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"venue-recommender/internal/shared/config"
	"venue-recommender/internal/shared/storage/db"
	"venue-recommender/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.Error("migrate.config_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Init(cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.Database.URL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.complete", nil)
}
