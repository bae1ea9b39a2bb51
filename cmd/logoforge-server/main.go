// Package main provides the HTTP server for logoforge.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/raphaelgruber/logoforge/internal/config"
	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/db/memory"
	"github.com/raphaelgruber/logoforge/internal/imagegen"
	"github.com/raphaelgruber/logoforge/internal/llm"
	"github.com/raphaelgruber/logoforge/internal/metrics"
	"github.com/raphaelgruber/logoforge/internal/server"
	"github.com/raphaelgruber/logoforge/internal/service"
	"github.com/raphaelgruber/logoforge/internal/storage"
)

// recordStore is what both record backends provide.
type recordStore interface {
	service.ProjectStore
	service.LogoStore
	service.JobStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	WipeData(ctx context.Context) error
}

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	if err := run(*wipeDB || os.Getenv("LOGOFORGE_WIPE_DB") == "true"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wipe bool) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting logoforge-server",
		"port", cfg.ServerPort,
		"database", cfg.Database,
		"storage", cfg.Storage,
		"llm", cfg.LLMProvider,
		"images", cfg.ImageProvider,
	)

	collector := metrics.NewCollector()

	store, err := openStore(ctx, cfg, collector, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	if wipe {
		wipeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := store.WipeData(wipeCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("wipe database: %w", err)
		}
		logger.Warn("database wiped")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	batchMetrics := metrics.NewBatchMetrics(reg)

	textModel, err := llm.New(ctx, cfg, collector)
	if err != nil {
		return fmt.Errorf("init llm: %w", err)
	}
	prompter := llm.NewPrompter(textModel)

	images, err := imagegen.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init image generator: %w", err)
	}

	files, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if closer, ok := files.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	logos := service.NewLogoService(store, images, files, cfg.ImageAspect, collector, batchMetrics)
	jobs := service.NewJobManager(cfg.BatchWorkers, store, metrics.Multi(collector, batchMetrics))

	if n, err := jobs.FailIncompleteJobs(ctx); err != nil {
		logger.Warn("failed to mark interrupted jobs", "error", err)
	} else if n > 0 {
		logger.Info("marked interrupted jobs as failed", "count", n)
	}

	deps := server.Deps{
		Projects:   service.NewProjectService(store, store, prompter),
		Generation: service.NewGenerationService(store, logos, prompter, jobs),
		Refinement: service.NewRefinementService(store, store, logos, prompter, jobs),
		Grading:    service.NewGradingService(store, store, logos, prompter, jobs),
		Lineage:    service.NewLineageService(store),
		Jobs:       jobs,
		Collector:  collector,
		Gatherer:   reg,
		Ping:       store.Ping,
	}
	if cfg.Storage == config.StorageLocal {
		deps.FilesDir = cfg.LocalDir
	}

	return server.New(deps, logger).Run(ctx, ":"+cfg.ServerPort)
}

func openStore(ctx context.Context, cfg config.Config, recorder db.QueryRecorder, logger *slog.Logger) (recordStore, error) {
	if cfg.Database == config.DatabaseMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := db.NewClient(connectCtx, db.ConfigFrom(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb: %w", err)
	}
	client.SetRecorder(recorder)
	if err := client.InitSchema(connectCtx); err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return client, nil
}
