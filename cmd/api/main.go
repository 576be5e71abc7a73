package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-metrics/internal/api"
	"github.com/dvloznov/finance-metrics/internal/api/handlers"
	"github.com/dvloznov/finance-metrics/internal/config"
	infraBQ "github.com/dvloznov/finance-metrics/internal/infra/bigquery"
	"github.com/dvloznov/finance-metrics/internal/jobs"
	"github.com/dvloznov/finance-metrics/internal/jobs/inmemory"
	"github.com/dvloznov/finance-metrics/internal/logger"
	"github.com/dvloznov/finance-metrics/internal/pipeline"
	"github.com/dvloznov/finance-metrics/internal/report"
	"github.com/dvloznov/finance-metrics/internal/source"
	"github.com/dvloznov/finance-metrics/internal/store"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file with configuration")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log, err := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to create logger")
	}

	window, err := cfg.ReportWindow()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid reporting window")
	}
	names, err := cfg.CountryNames()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load country names")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Dataset sources
	router := source.NewRouter(source.Options{
		HTTPTimeout:  cfg.HTTPTimeout,
		GCSAnonymous: cfg.GCSAnonymous,
	})
	defer router.Close()

	tables := infraBQ.NewTransactionSource(cfg.BigQueryProject)
	defer tables.Close()

	dataset := store.New()
	deps := pipeline.Deps{
		Source:    router,
		Table:     tables,
		Publisher: dataset,
	}

	svc := report.NewService(dataset, report.Options{
		Window:       window,
		CountryNames: names,
		CacheTTL:     cfg.ReportCacheTTL,
		Parallelism:  cfg.ReportParallelism,
	})

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.QueueOptions{
		BufferSize: cfg.ReloadQueueSize,
		MaxRetries: cfg.ReloadMaxRetries,
	}, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	reloadHandler := func(ctx context.Context, job *jobs.ReloadDatasetJob) error {
		res, err := pipeline.LoadDataset(ctx, job.Source, deps)
		if err != nil {
			return err
		}
		job.SnapshotVersion = res.Snapshot.Version()
		job.Rows = res.Snapshot.Len()
		return nil
	}

	log.Info().Msg("Starting reload worker")
	if err := jobQueue.Start(workerCtx, reloadHandler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start reload worker")
	}

	if cfg.DataSource != "" {
		if err := jobQueue.PublishReload(ctx, &jobs.ReloadDatasetJob{Source: cfg.DataSource}); err != nil {
			log.Error().Err(err).Str("source", cfg.DataSource).Msg("Failed to enqueue initial load")
		}
	} else {
		log.Warn().Msg("No DATA_SOURCE configured - reports are unavailable until a reload is requested")
	}

	handler := api.NewRouter(api.RouterConfig{
		Log:            log,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, api.Handlers{
		Reports: handlers.NewReportsHandler(svc, log),
		Dataset: handlers.NewDatasetHandler(svc, jobQueue, jobStore, cfg.DataSource, log),
		Jobs:    handlers.NewJobsHandler(jobStore, log),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight reloads
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
