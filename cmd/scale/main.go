// Package main applies a previously fitted scaler to a new raw panel.
// The input goes through the same normalization and transform phases,
// then is standardized with the stored parameters instead of refitting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/features"
	"crypto-feature-lab/internal/ingestion"
	"crypto-feature-lab/internal/preprocess"
	"crypto-feature-lab/internal/reporting"
	"crypto-feature-lab/internal/schema"
	"crypto-feature-lab/internal/storage/postgres"
)

func main() {
	inputPath := flag.String("input", "", "Path to raw panel CSV")
	statePath := flag.String("state", "", "Path to scaler_state.json")
	postgresDSN := flag.String("postgres-dsn", "", "Load the latest scaler state from Postgres instead of a file")
	outputPath := flag.String("output", "scaled.csv", "Output CSV path")
	target := flag.String("target", domain.ColClose, "Target column, kept unscaled")
	extended := flag.Bool("extended", false, "Expect the extended input schema")
	momentum := flag.String("momentum", "diff", "Momentum variant: diff or smoothed")
	workers := flag.Int("workers", 1, "Transform worker count")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Missing -input")
		os.Exit(1)
	}
	if *statePath == "" && *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "Need -state or -postgres-dsn")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	state, err := loadState(ctx, *statePath, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load scaler state: %v\n", err)
		os.Exit(1)
	}

	raw, err := ingestion.LoadPanelCSV(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load input: %v\n", err)
		os.Exit(1)
	}

	mode := schema.ModeMinimal
	if *extended {
		mode = schema.ModeExtended
	}
	panel, err := schema.Normalize(raw, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Normalize: %v\n", err)
		os.Exit(1)
	}

	variant := features.MomentumDiff
	if *momentum == "smoothed" {
		variant = features.MomentumSmoothed
	}
	engine := features.NewEngine(
		features.Catalog(features.CatalogOptions{Momentum: variant, Extended: *extended}),
		features.WithWorkers(*workers),
	)
	if err := engine.Apply(ctx, panel); err != nil {
		fmt.Fprintf(os.Stderr, "Transform: %v\n", err)
		os.Exit(1)
	}

	// Select exactly the columns the scaler was fitted on, in order.
	block := domain.NewMatrix(state.Columns, panel.Len())
	for j, col := range state.Columns {
		src, ok := panel.Column(col)
		if !ok {
			fmt.Fprintf(os.Stderr, "Input missing fitted column %q\n", col)
			os.Exit(1)
		}
		copy(block.Data[j], src)
	}

	if _, err := preprocess.Impute(block, panel.Names); err != nil {
		fmt.Fprintf(os.Stderr, "Impute: %v\n", err)
		os.Exit(1)
	}

	scaled, err := preprocess.Transform(block, state)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scale: %v\n", err)
		os.Exit(1)
	}

	out, err := domain.NewPanel(panel.Names, panel.Dates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assemble: %v\n", err)
		os.Exit(1)
	}
	for j, col := range scaled.Columns {
		vals := make([]float64, len(scaled.Data[j]))
		copy(vals, scaled.Data[j])
		if err := out.AddColumn(col, vals); err != nil {
			fmt.Fprintf(os.Stderr, "Assemble: %v\n", err)
			os.Exit(1)
		}
	}
	if src, ok := panel.Column(*target); ok {
		vals := make([]float64, len(src))
		copy(vals, src)
		if err := out.AddColumn(*target, vals); err != nil {
			fmt.Fprintf(os.Stderr, "Assemble: %v\n", err)
			os.Exit(1)
		}
	}

	if err := os.WriteFile(*outputPath, []byte(reporting.RenderPanelCSV(out)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scaled %d rows x %d features -> %s\n", out.Len(), len(scaled.Columns), *outputPath)
}

// loadState reads the fitted parameters from a JSON file or, if a DSN is
// given, the most recent snapshot in Postgres.
func loadState(ctx context.Context, statePath, dsn string) (*domain.ScalerState, error) {
	if dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		snap, err := postgres.NewScalerStateStore(pool).GetLatest(ctx)
		if err != nil {
			return nil, err
		}
		return snap.State, nil
	}
	return reporting.ReadScalerState(statePath)
}
