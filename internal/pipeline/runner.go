// Package pipeline provides end-to-end orchestration of the feature
// engineering flow: normalization → transforms → cleaning → scaling → split.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/features"
	"crypto-feature-lab/internal/observability"
	"crypto-feature-lab/internal/preprocess"
	"crypto-feature-lab/internal/reporting"
	"crypto-feature-lab/internal/schema"
	"crypto-feature-lab/internal/split"
	"crypto-feature-lab/internal/storage"
)

// Runner coordinates the pipeline phases over a raw panel.
type Runner struct {
	// Optional stores
	featureValueStore  storage.FeatureValueStore
	scalerStateStore   storage.ScalerStateStore
	splitMetadataStore storage.SplitMetadataStore

	// Transform configuration
	mode     schema.Mode
	momentum features.MomentumVariant
	workers  int

	// Cleaning and split configuration
	target   string
	testSize float64

	outputDir string

	logger  zerolog.Logger
	metrics *observability.Metrics
	clock   func() time.Time
}

// Options for creating a Runner.
type Options struct {
	// Optional stores; nil disables persistence for that artifact.
	FeatureValueStore  storage.FeatureValueStore
	ScalerStateStore   storage.ScalerStateStore
	SplitMetadataStore storage.SplitMetadataStore

	// Extended enables the candle-shape feature set and requires the
	// extended input schema.
	Extended bool
	Momentum features.MomentumVariant
	Workers  int

	// Target is the prediction column, kept unscaled. Defaults to Close.
	Target   string
	TestSize float64

	// OutputDir receives processed.csv, train.csv, test.csv,
	// scaler_state.json and split_metadata.json. Empty disables
	// file artifacts.
	OutputDir string

	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	mode := schema.ModeMinimal
	if opts.Extended {
		mode = schema.ModeExtended
	}
	target := opts.Target
	if target == "" {
		target = domain.ColClose
	}
	testSize := opts.TestSize
	if testSize <= 0 || testSize >= 1 {
		testSize = 0.2
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Runner{
		featureValueStore:  opts.FeatureValueStore,
		scalerStateStore:   opts.ScalerStateStore,
		splitMetadataStore: opts.SplitMetadataStore,
		mode:               mode,
		momentum:           opts.Momentum,
		workers:            workers,
		target:             target,
		testSize:           testSize,
		outputDir:          opts.OutputDir,
		logger:             opts.Logger,
		metrics:            opts.Metrics,
		clock:              clock,
	}
}

// RunResult contains results from a pipeline execution.
type RunResult struct {
	RowsIn             int
	Rows               int
	Entities           int
	FeatureColumns     int
	DroppedColumns     []string
	ValuesImputed      int
	UndefinedRemaining int
	TrainRows          int
	TestRows           int
	SplitID            string
	StateID            string
}

// Run executes the full pipeline over a raw table.
// Phases:
//  1. Schema normalization and sort by (name, date)
//  2. Per-entity causal feature transforms
//  3. Drop fully-undefined columns, impute the rest
//  4. Fit and apply the standard scaler (target excluded)
//  5. Time-ordered train/test split
//  6. Write artifacts and persist to stores
func (r *Runner) Run(ctx context.Context, raw *domain.RawTable) (*RunResult, error) {
	result := &RunResult{RowsIn: len(raw.Records)}
	if r.metrics != nil {
		r.metrics.RowsIngested.Add(float64(len(raw.Records)))
	}

	// Phase 1: Normalization
	panel, err := r.timed("normalize", func() (*domain.Panel, error) {
		return schema.Normalize(raw, r.mode)
	})
	if err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 1 (normalize) failed: %w", err)
	}
	groups := panel.Groups()
	result.Rows = panel.Len()
	result.Entities = len(groups)
	r.logger.Info().
		Int("rows", panel.Len()).
		Int("entities", len(groups)).
		Msg("panel normalized")
	if r.metrics != nil {
		r.metrics.RowsNormalized.Add(float64(panel.Len()))
	}

	// Phase 2: Feature transforms
	defs := features.Catalog(features.CatalogOptions{
		Momentum: r.momentum,
		Extended: r.mode == schema.ModeExtended,
	})
	engine := features.NewEngine(defs,
		features.WithWorkers(r.workers),
		features.WithProgress(func(entity string, rows int) {
			if r.metrics != nil {
				r.metrics.GroupsProcessed.Inc()
			}
			r.logger.Debug().Str("entity", entity).Int("rows", rows).Msg("group transformed")
		}),
	)
	if _, err := r.timed("transform", func() (*domain.Panel, error) {
		return panel, engine.Apply(ctx, panel)
	}); err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 2 (transform) failed: %w", err)
	}
	r.logger.Info().Int("features", len(defs)).Msg("transforms applied")

	// Phase 3: Cleaning
	result.DroppedColumns = dropAllUndefined(panel)
	for _, col := range result.DroppedColumns {
		r.logger.Warn().Str("column", col).Msg("dropped fully undefined column")
	}

	block, featureCols := featureBlock(panel, r.target)
	result.FeatureColumns = len(featureCols)
	if r.metrics != nil {
		r.metrics.FeatureColumnsComputed.Set(float64(len(featureCols)))
	}

	before := block.UndefinedCount()
	remaining, err := preprocess.Impute(block, panel.Names)
	if err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 3 (impute) failed: %w", err)
	}
	result.ValuesImputed = before - remaining
	result.UndefinedRemaining = remaining
	r.logger.Info().
		Int("imputed", result.ValuesImputed).
		Int("remaining", remaining).
		Msg("undefined values imputed")
	if r.metrics != nil {
		r.metrics.ValuesImputed.Add(float64(result.ValuesImputed))
		r.metrics.UndefinedRemaining.Set(float64(remaining))
	}

	// Phase 4: Scaling
	scaled, state, err := preprocess.FitTransform(block)
	if err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 4 (scale) failed: %w", err)
	}

	processed, err := assemble(panel, scaled, r.target)
	if err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 4 (assemble) failed: %w", err)
	}

	// Phase 5: Split
	train, test, meta, err := split.TimeOrdered(processed, r.testSize, r.clock)
	if err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 5 (split) failed: %w", err)
	}
	result.TrainRows = meta.TrainSize
	result.TestRows = meta.TestSize
	result.SplitID = meta.SplitID
	r.logger.Info().
		Int("train", meta.TrainSize).
		Int("test", meta.TestSize).
		Str("split_id", meta.SplitID).
		Msg("panel split")

	// Phase 6: Artifacts and persistence
	snapshot := &domain.ScalerSnapshot{
		StateID:   fmt.Sprintf("scaler-%d", r.clock().UnixMilli()),
		CreatedAt: r.clock().UTC(),
		State:     state,
	}
	result.StateID = snapshot.StateID

	if r.outputDir != "" {
		if err := r.writeArtifacts(processed, train, test, state, meta); err != nil {
			r.fail()
			return nil, fmt.Errorf("phase 6 (artifacts) failed: %w", err)
		}
	}
	if err := r.persist(ctx, processed, snapshot, meta); err != nil {
		r.fail()
		return nil, fmt.Errorf("phase 6 (persist) failed: %w", err)
	}

	if r.metrics != nil {
		r.metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	}
	r.logger.Info().
		Int("rows", result.Rows).
		Int("entities", result.Entities).
		Int("features", result.FeatureColumns).
		Msg("pipeline completed")
	return result, nil
}

// timed runs a phase and records its duration.
func (r *Runner) timed(stage string, fn func() (*domain.Panel, error)) (*domain.Panel, error) {
	start := r.clock()
	p, err := fn()
	if r.metrics != nil {
		r.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
	return p, err
}

func (r *Runner) fail() {
	if r.metrics != nil {
		r.metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
	}
}

func (r *Runner) writeArtifacts(processed, train, test *domain.Panel, state *domain.ScalerState, meta *domain.SplitMetadata) error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]*domain.Panel{
		"processed.csv": processed,
		"train.csv":     train,
		"test.csv":      test,
	}
	for name, p := range files {
		path := filepath.Join(r.outputDir, name)
		if err := os.WriteFile(path, []byte(reporting.RenderPanelCSV(p)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := reporting.WriteScalerState(filepath.Join(r.outputDir, "scaler_state.json"), state); err != nil {
		return err
	}
	if err := split.WriteMetadata(filepath.Join(r.outputDir, "split_metadata.json"), meta); err != nil {
		return err
	}
	r.logger.Info().Str("dir", r.outputDir).Msg("artifacts written")
	return nil
}

func (r *Runner) persist(ctx context.Context, processed *domain.Panel, snapshot *domain.ScalerSnapshot, meta *domain.SplitMetadata) error {
	if r.featureValueStore != nil {
		values := longForm(processed)
		if err := r.featureValueStore.InsertBulk(ctx, values); err != nil {
			if r.metrics != nil {
				r.metrics.StoreErrors.WithLabelValues("clickhouse").Inc()
			}
			return fmt.Errorf("store feature values: %w", err)
		}
		if r.metrics != nil {
			r.metrics.FeatureValuesStored.Add(float64(len(values)))
		}
		r.logger.Info().Int("values", len(values)).Msg("feature values stored")
	}
	if r.scalerStateStore != nil {
		if err := r.scalerStateStore.Insert(ctx, snapshot); err != nil {
			if r.metrics != nil {
				r.metrics.StoreErrors.WithLabelValues("postgres").Inc()
			}
			return fmt.Errorf("store scaler state: %w", err)
		}
	}
	if r.splitMetadataStore != nil {
		if err := r.splitMetadataStore.Insert(ctx, meta); err != nil {
			if r.metrics != nil {
				r.metrics.StoreErrors.WithLabelValues("postgres").Inc()
			}
			return fmt.Errorf("store split metadata: %w", err)
		}
	}
	return nil
}

// dropAllUndefined removes columns where every value is undefined and
// returns their names. MarketCap panels with no data end up here.
func dropAllUndefined(p *domain.Panel) []string {
	var dropped []string
	for _, col := range p.Columns() {
		if p.AllUndefined(col) {
			p.DropColumn(col)
			dropped = append(dropped, col)
		}
	}
	return dropped
}

// featureBlock extracts every column except the target into a matrix for
// cleaning and scaling. Column order follows panel insertion order.
func featureBlock(p *domain.Panel, target string) (*domain.Matrix, []string) {
	var cols []string
	for _, col := range p.Columns() {
		if col == target {
			continue
		}
		cols = append(cols, col)
	}

	m := domain.NewMatrix(cols, p.Len())
	for j, col := range cols {
		src, _ := p.Column(col)
		copy(m.Data[j], src)
	}
	return m, cols
}

// assemble builds the processed panel: scaled features in matrix order,
// then the unscaled target column.
func assemble(p *domain.Panel, scaled *domain.Matrix, target string) (*domain.Panel, error) {
	out, err := domain.NewPanel(p.Names, p.Dates)
	if err != nil {
		return nil, err
	}
	for j, col := range scaled.Columns {
		vals := make([]float64, len(scaled.Data[j]))
		copy(vals, scaled.Data[j])
		if err := out.AddColumn(col, vals); err != nil {
			return nil, err
		}
	}
	src, ok := p.Column(target)
	if !ok {
		return nil, fmt.Errorf("target column %q missing", target)
	}
	vals := make([]float64, len(src))
	copy(vals, src)
	if err := out.AddColumn(target, vals); err != nil {
		return nil, err
	}
	return out, nil
}

// longForm flattens a panel into one FeatureValue per (name, date, column).
// Undefined entries are skipped.
func longForm(p *domain.Panel) []*domain.FeatureValue {
	var values []*domain.FeatureValue
	for _, col := range p.Columns() {
		src, _ := p.Column(col)
		for i := range src {
			if domain.IsUndefined(src[i]) {
				continue
			}
			values = append(values, &domain.FeatureValue{
				Name:    p.Names[i],
				Date:    p.Dates[i],
				Feature: col,
				Value:   src[i],
			})
		}
	}
	return values
}
