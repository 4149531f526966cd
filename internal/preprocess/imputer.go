// Package preprocess fills remaining gaps in the engineered feature block
// and standardizes it for downstream modeling. It never drops rows; the
// only permitted volume reduction is dropping an entirely-undefined
// column (MarketCap).
package preprocess

import (
	"fmt"
	"sort"

	"crypto-feature-lab/internal/domain"
)

// EmptyFeatureSetError signals that the feature block has zero rows or
// zero columns after cleaning. This is fatal: it points at a validation
// error upstream, not something to paper over.
type EmptyFeatureSetError struct {
	Rows, Cols int
}

func (e *EmptyFeatureSetError) Error() string {
	return fmt.Sprintf("empty feature set after cleaning: %d rows, %d columns", e.Rows, e.Cols)
}

// Impute fills undefined entries of the feature block in two passes:
// first with the entity's own median of its defined observations for
// each feature, then any leftovers with the feature's global median
// across all entities. entities holds the entity identifier per row and
// must align with the block.
//
// Returns the count of entries still undefined after both passes, which
// is zero whenever every feature has at least one defined observation
// somewhere in the block.
func Impute(block *domain.Matrix, entities []string) (int, error) {
	if block.Rows() == 0 || block.Cols() == 0 {
		return 0, &EmptyFeatureSetError{Rows: block.Rows(), Cols: block.Cols()}
	}
	if len(entities) != block.Rows() {
		return 0, fmt.Errorf("entity column length %d does not match %d rows", len(entities), block.Rows())
	}

	// Entity groups as row-index lists, in row order.
	groups := make(map[string][]int)
	for i, name := range entities {
		groups[name] = append(groups[name], i)
	}

	for _, col := range block.Data {
		// Pass 1: per-entity median fill.
		for _, rows := range groups {
			med, ok := median(col, rows)
			if !ok {
				continue
			}
			for _, i := range rows {
				if domain.IsUndefined(col[i]) {
					col[i] = med
				}
			}
		}

		// Pass 2: global median for entities with no defined observations.
		all := make([]int, block.Rows())
		for i := range all {
			all[i] = i
		}
		med, ok := median(col, all)
		if !ok {
			continue
		}
		for i := range col {
			if domain.IsUndefined(col[i]) {
				col[i] = med
			}
		}
	}

	return block.UndefinedCount(), nil
}

// median computes the median of the defined values of col at the given
// row indices. Returns false when no defined value exists.
func median(col []float64, rows []int) (float64, bool) {
	vals := make([]float64, 0, len(rows))
	for _, i := range rows {
		if !domain.IsUndefined(col[i]) {
			vals = append(vals, col[i])
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}
