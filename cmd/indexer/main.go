package main

// Build the document index from an event history dataset:
//   go run ./cmd/indexer -path events_history.json
//   go run ./cmd/indexer -seed   # also load reference data into the catalog

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"venue-recommender/internal/bootstrap"
	"venue-recommender/internal/catalog"
	"venue-recommender/internal/shared/config"
	"venue-recommender/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		exitErr(fmt.Sprintf("load config: %v", err))
	}
	telemetry.Init(cfg.Log.Level, cfg.Log.Format)

	path := flag.String("path", cfg.Data.EventsFile, "Event history dataset: a name under the data dir or an s3:// url")
	seed := flag.Bool("seed", false, "Load client, venue and request reference data into the catalog first")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		exitErr(fmt.Sprintf("bootstrap build: %v", err))
	}
	defer app.Close()

	// The in-memory catalog is seeded by bootstrap already.
	if *seed && app.DB != nil {
		res, err := catalog.Seed(ctx, app.Store, app.Catalog, catalog.Sources{
			Clients:  cfg.DataPath(cfg.Data.ClientsFile),
			Venues:   cfg.DataPath(cfg.Data.VenuesFile),
			Requests: cfg.DataPath(cfg.Data.RequestsFile),
		})
		if err != nil {
			exitErr(fmt.Sprintf("seed catalog: %v", err))
		}
		fmt.Printf("seeded clients=%d venues=%d requests=%d malformed=%d\n", res.Clients, res.Venues, res.Requests, res.Malformed)
	}

	res, err := app.Indexer.IndexDataset(ctx, cfg.DataPath(*path))
	if err != nil {
		exitErr(fmt.Sprintf("index dataset: %v", err))
	}
	fmt.Printf("indexed total_documents=%d skipped=%d\n", res.TotalDocuments, res.Skipped)
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
