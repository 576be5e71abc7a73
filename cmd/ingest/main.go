// Command ingest loads a dataset once and prints its data-quality report
// as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/dvloznov/finance-metrics/internal/config"
	infraBQ "github.com/dvloznov/finance-metrics/internal/infra/bigquery"
	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/pipeline"
	"github.com/dvloznov/finance-metrics/internal/source"
	"github.com/dvloznov/finance-metrics/internal/store"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	uri := flag.String("source", cfg.DataSource, "Dataset URI (path, file://, http(s)://, gs://, bq://)")
	strict := flag.Bool("strict", false, "Exit non-zero when rows are short, have extra fields or lack a date")
	flag.Parse()

	if *uri == "" {
		log.Fatal().Msg("Error: -source is required (or set DATA_SOURCE)")
	}

	// Create context with timeout so the command doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	router := source.NewRouter(source.Options{HTTPTimeout: cfg.HTTPTimeout, GCSAnonymous: cfg.GCSAnonymous})
	defer router.Close()
	tables := infraBQ.NewTransactionSource(cfg.BigQueryProject)
	defer tables.Close()

	res, err := pipeline.LoadDataset(ctx, *uri, pipeline.Deps{
		Source:    router,
		Table:     tables,
		Publisher: store.New(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	report := struct {
		Dataset  store.Info          `json:"dataset"`
		Parse    pipeline.ParseStats `json:"parse"`
		Duration string              `json:"duration"`
	}{
		Dataset:  res.Snapshot.Info(),
		Parse:    res.Stats,
		Duration: res.Duration.String(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}

	if *strict && (res.Stats.ShortRows > 0 || res.Stats.ExtraFieldRows > 0 || res.Snapshot.Undated() > 0) {
		os.Exit(2)
	}
}
