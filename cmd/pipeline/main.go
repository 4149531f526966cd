// Package main provides the feature pipeline entry point.
// Executes: normalization → transforms → cleaning → scaling → split
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"crypto-feature-lab/internal/config"
	"crypto-feature-lab/internal/features"
	"crypto-feature-lab/internal/ingestion"
	"crypto-feature-lab/internal/logging"
	"crypto-feature-lab/internal/observability"
	"crypto-feature-lab/internal/pipeline"
	"crypto-feature-lab/internal/storage"
	"crypto-feature-lab/internal/storage/migrations"
	"crypto-feature-lab/internal/storage/postgres"

	chstore "crypto-feature-lab/internal/storage/clickhouse"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	inputPath := flag.String("input", "", "Path to raw panel CSV (overrides config)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides config)")
	workers := flag.Int("workers", 0, "Transform worker count (overrides config)")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *workers > 0 {
		cfg.Features.Workers = *workers
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if cfg.Input.Path == "" {
		fmt.Fprintln(os.Stderr, "No input: set -input or input.path in config")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("cancelling pipeline")
		cancel()
	}()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("storage setup failed")
		os.Exit(1)
	}
	defer cleanup()

	raw, err := ingestion.LoadPanelCSV(cfg.Input.Path)
	if err != nil {
		logger.Error().Err(err).Msg("load input failed")
		os.Exit(1)
	}

	momentum := features.MomentumDiff
	if cfg.Features.Momentum == "smoothed" {
		momentum = features.MomentumSmoothed
	}

	runner := pipeline.NewRunner(pipeline.Options{
		FeatureValueStore:  stores.featureValues,
		ScalerStateStore:   stores.scalerStates,
		SplitMetadataStore: stores.splitMetadata,
		Extended:           cfg.Input.Extended,
		Momentum:           momentum,
		Workers:            cfg.Features.Workers,
		Target:             cfg.Input.Target,
		TestSize:           cfg.Split.TestSize,
		OutputDir:          cfg.Output.Dir,
		Logger:             logger,
		Metrics:            metrics,
	})

	result, err := runner.Run(ctx, raw)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline failed")
		os.Exit(1)
	}

	fmt.Printf("Pipeline completed:\n")
	fmt.Printf("  Rows:     %d (from %d raw)\n", result.Rows, result.RowsIn)
	fmt.Printf("  Entities: %d\n", result.Entities)
	fmt.Printf("  Features: %d\n", result.FeatureColumns)
	fmt.Printf("  Imputed:  %d\n", result.ValuesImputed)
	fmt.Printf("  Split:    %d train / %d test (%s)\n", result.TrainRows, result.TestRows, result.SplitID)
	for _, col := range result.DroppedColumns {
		fmt.Printf("  Dropped:  %s (fully undefined)\n", col)
	}
	fmt.Printf("  Output:   %s\n", cfg.Output.Dir)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Default()
}

// pipelineStores holds the optional persistence backends.
type pipelineStores struct {
	featureValues storage.FeatureValueStore
	scalerStates  storage.ScalerStateStore
	splitMetadata storage.SplitMetadataStore
}

// buildStores connects enabled backends and runs their migrations.
// Disabled backends leave the corresponding store nil.
func buildStores(ctx context.Context, cfg *config.Config) (*pipelineStores, func(), error) {
	stores := &pipelineStores{}
	var closers []func()
	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if cfg.Storage.Clickhouse.Enabled {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.Clickhouse.DSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		closers = append(closers, func() { _ = conn.Close() })
		stores.featureValues = chstore.NewFeatureValueStore(conn)
	}

	if cfg.Storage.Postgres.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.scalerStates = postgres.NewScalerStateStore(pool)
		stores.splitMetadata = postgres.NewSplitMetadataStore(pool)
	}

	return stores, cleanup, nil
}
