package main

// Run one analysis task against the configured model and print its payload:
//   go run ./cmd/prompttest -event EVT-2026-028 -kind capacity
//   go run ./cmd/prompttest -event EVT-2026-028 -kind cost -dry-run

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/bootstrap"
	"venue-recommender/internal/llm"
	"venue-recommender/internal/retrieval"
	"venue-recommender/internal/shared/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		exitErr(fmt.Sprintf("load config: %v", err))
	}

	eventID := flag.String("event", "", "Event request id to analyze")
	kindName := flag.String("kind", string(analysis.KindCapacity), "Analysis kind: capacity, amenity, location or cost")
	k := flag.Int("k", cfg.Index.TopK, "Documents to retrieve before deduplication")
	dryRun := flag.Bool("dry-run", false, "Print the rendered prompt without calling the model")
	index := flag.Bool("index", false, "Index the configured events dataset first (in-memory index)")
	outPath := flag.String("out", "", "Path to write the JSON payload (optional)")
	flag.Parse()

	if strings.TrimSpace(*eventID) == "" {
		exitErr("event id is required")
	}
	kind, err := analysis.ParseKind(*kindName)
	if err != nil {
		exitErr(err.Error())
	}

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		exitErr(fmt.Sprintf("bootstrap build: %v", err))
	}
	defer app.Close()

	if *index {
		if _, err := app.Indexer.IndexDataset(ctx, cfg.DataPath(cfg.Data.EventsFile)); err != nil {
			exitErr(fmt.Sprintf("index dataset: %v", err))
		}
	}

	req, err := app.Catalog.GetRequest(ctx, *eventID)
	if err != nil {
		exitErr(fmt.Sprintf("load event request: %v", err))
	}
	queryText, filter := retrieval.BuildQuery(req)
	candidates, err := app.RecommendService.Retriever.Retrieve(ctx, queryText, filter, *k)
	if err != nil {
		exitErr(fmt.Sprintf("retrieve: %v", err))
	}
	if len(candidates) == 0 {
		exitErr("no candidate venues match the request filters")
	}

	task, err := analysis.NewTask(kind, app.LLM, llm.NewTokenBudget(cfg.LLM.Model, cfg.LLM.MaxContextTokens))
	if err != nil {
		exitErr(err.Error())
	}
	in := analysis.Input{Request: req, Candidates: candidates}

	if *dryRun {
		p := task.Prompt(in)
		fmt.Printf("--- system ---\n%s\n--- user ---\n%s\n", p.System, p.User)
		return
	}

	outcome := task.Run(ctx, in)
	if !outcome.OK() {
		exitErr(fmt.Sprintf("%s analysis failed: %v", kind, outcome.Err))
	}

	raw, err := json.Marshal(outcome.Payload)
	if err != nil {
		exitErr(fmt.Sprintf("encode payload: %v", err))
	}
	pretty, err := prettyJSON(raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
