package preprocess

import (
	"fmt"
	"math"

	"crypto-feature-lab/internal/domain"
)

// FitTransform computes per-column mean and population standard deviation
// (N denominator, StandardScaler semantics) over all rows, then returns
// the standardized block together with the fitted state. A column with
// exactly zero standard deviation scales to zero rather than dividing by
// zero. Output column order and names equal the input's.
func FitTransform(block *domain.Matrix) (*domain.Matrix, *domain.ScalerState, error) {
	if block.Rows() == 0 || block.Cols() == 0 {
		return nil, nil, &EmptyFeatureSetError{Rows: block.Rows(), Cols: block.Cols()}
	}

	state := &domain.ScalerState{
		Columns: append([]string(nil), block.Columns...),
		Params:  make(map[string]domain.ScalerParams, block.Cols()),
	}

	n := float64(block.Rows())
	for j, name := range block.Columns {
		col := block.Data[j]
		sum := 0.0
		for _, v := range col {
			sum += v
		}
		mean := sum / n

		var ss float64
		for _, v := range col {
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(ss / n)

		state.Params[name] = domain.ScalerParams{Mean: mean, Std: std}
	}

	scaled, err := Transform(block, state)
	if err != nil {
		return nil, nil, err
	}
	return scaled, state, nil
}

// Transform applies a previously fitted state to a block with the same
// feature schema, without recomputing statistics. This is how training
// set statistics are applied to held-out data without leakage.
func Transform(block *domain.Matrix, state *domain.ScalerState) (*domain.Matrix, error) {
	if len(state.Columns) != block.Cols() {
		return nil, fmt.Errorf("scaler state has %d columns, block has %d", len(state.Columns), block.Cols())
	}
	for j, name := range block.Columns {
		if state.Columns[j] != name {
			return nil, fmt.Errorf("column %d mismatch: block %q, state %q", j, name, state.Columns[j])
		}
	}

	out := domain.NewMatrix(block.Columns, block.Rows())
	for j, name := range block.Columns {
		p := state.Params[name]
		src := block.Data[j]
		dst := out.Data[j]
		for i, v := range src {
			if p.Std == 0 {
				dst[i] = 0
				continue
			}
			dst[i] = (v - p.Mean) / p.Std
		}
	}
	return out, nil
}
