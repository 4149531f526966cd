package features

import (
	"context"
	"fmt"
	"sync"

	"crypto-feature-lab/internal/domain"
)

// Progress is an optional callback invoked after each entity group
// finishes. It replaces print-based progress reporting; callers may
// subscribe loggers or metrics to it.
type Progress func(entity string, rows int)

// Engine applies the catalog to a normalized panel, one entity group at
// a time. Each group's computation reads only that group's own ordered
// rows; results are written into disjoint index ranges of freshly
// allocated columns, so output row order equals the panel's post-sort
// order regardless of how many workers run.
type Engine struct {
	defs     []Definition
	workers  int
	progress Progress
}

// Option configures the engine.
type Option func(*Engine)

// WithWorkers sets the number of parallel group workers. Values below
// two select the sequential path.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithProgress subscribes a progress callback.
func WithProgress(fn Progress) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine creates an engine over the given ordered definitions.
func NewEngine(defs []Definition, opts ...Option) *Engine {
	e := &Engine{defs: defs, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Names returns the output column names in catalog order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.defs))
	for i, d := range e.defs {
		names[i] = d.Name
	}
	return names
}

// Apply computes every definition for every entity group and attaches
// the resulting columns to the panel in catalog order. A definition that
// cannot be computed for a group (missing source, group too short) leaves
// that group's rows undefined; no row is ever dropped.
func (e *Engine) Apply(ctx context.Context, panel *domain.Panel) error {
	n := panel.Len()
	derived := make(map[string][]float64, len(e.defs))
	for _, d := range e.defs {
		derived[d.Name] = newUndefined(n)
	}

	groups := panel.Groups()
	if e.workers > 1 && len(groups) > 1 {
		if err := e.applyParallel(ctx, panel, groups, derived); err != nil {
			return err
		}
	} else {
		for _, g := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.applyGroup(panel, g, derived)
		}
	}

	for _, d := range e.defs {
		if err := panel.AddColumn(d.Name, derived[d.Name]); err != nil {
			return fmt.Errorf("attach column %s: %w", d.Name, err)
		}
	}
	return nil
}

// applyGroup evaluates the catalog for one group. Definitions run in
// order so later ones can read columns derived earlier for the same
// rows; each writes only into its group's index range.
func (e *Engine) applyGroup(panel *domain.Panel, g domain.Group, derived map[string][]float64) {
	view := GroupView{start: g.Start, end: g.End, panel: panel, derived: derived}
	for _, d := range e.defs {
		vals := d.Compute(view)
		if vals == nil {
			continue
		}
		copy(derived[d.Name][g.Start:g.End], vals)
	}
	if e.progress != nil {
		e.progress(g.Name, g.End-g.Start)
	}
}

// applyParallel fans groups out to a worker pool. Groups own disjoint
// row ranges, so workers share no mutable state.
func (e *Engine) applyParallel(ctx context.Context, panel *domain.Panel, groups []domain.Group, derived map[string][]float64) error {
	jobs := make(chan domain.Group)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				e.applyGroup(panel, g, derived)
			}
		}()
	}

	var err error
	for _, g := range groups {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		jobs <- g
	}
	close(jobs)
	wg.Wait()
	return err
}
