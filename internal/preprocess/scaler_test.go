package preprocess

import (
	"errors"
	"math"
	"testing"

	"crypto-feature-lab/internal/domain"
)

func TestFitTransform_Standardizes(t *testing.T) {
	block := domain.NewMatrix([]string{"f"}, 4)
	copy(block.Data[0], []float64{2, 4, 6, 8})

	scaled, state, err := FitTransform(block)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	p := state.Params["f"]
	if p.Mean != 5 {
		t.Errorf("Mean: expected 5, got %v", p.Mean)
	}
	// Population std: sqrt(((−3)²+(−1)²+1²+3²)/4) = sqrt(5)
	if math.Abs(p.Std-math.Sqrt(5)) > 1e-12 {
		t.Errorf("Std: expected sqrt(5), got %v", p.Std)
	}

	// Scaled column has mean 0 and population std 1.
	var sum float64
	for _, v := range scaled.Data[0] {
		sum += v
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("Scaled mean: expected 0, got %v", sum/4)
	}
}

func TestFitTransform_RoundTrip(t *testing.T) {
	block := domain.NewMatrix([]string{"a", "b"}, 5)
	copy(block.Data[0], []float64{1.5, -2.25, 3.125, 0.0625, 10})
	copy(block.Data[1], []float64{100, 200, 300, 400, 500})
	original := block.Clone()

	scaled, state, err := FitTransform(block)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	for j, name := range scaled.Columns {
		p := state.Params[name]
		for i, v := range scaled.Data[j] {
			back := v*p.Std + p.Mean
			if math.Abs(back-original.Data[j][i]) > 1e-9 {
				t.Errorf("Column %s row %d: round trip %v, want %v", name, i, back, original.Data[j][i])
			}
		}
	}
}

func TestFitTransform_ZeroStd(t *testing.T) {
	block := domain.NewMatrix([]string{"const"}, 3)
	copy(block.Data[0], []float64{7, 7, 7})

	scaled, state, err := FitTransform(block)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if state.Params["const"].Std != 0 {
		t.Errorf("Std: expected 0, got %v", state.Params["const"].Std)
	}
	for i, v := range scaled.Data[0] {
		if v != 0 {
			t.Errorf("Row %d: constant column should scale to 0, got %v", i, v)
		}
	}
}

func TestFitTransform_Empty(t *testing.T) {
	block := domain.NewMatrix(nil, 0)
	_, _, err := FitTransform(block)

	var emptyErr *EmptyFeatureSetError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Expected EmptyFeatureSetError, got %v", err)
	}
}

func TestTransform_ReusesFittedState(t *testing.T) {
	train := domain.NewMatrix([]string{"f"}, 4)
	copy(train.Data[0], []float64{2, 4, 6, 8})

	_, state, err := FitTransform(train)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// New data scaled with training statistics, not its own.
	test := domain.NewMatrix([]string{"f"}, 2)
	copy(test.Data[0], []float64{5, 10})

	scaled, err := Transform(test, state)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	std := math.Sqrt(5)
	if math.Abs(scaled.Data[0][0]-0) > 1e-12 {
		t.Errorf("Row 0: expected 0 (value equals training mean), got %v", scaled.Data[0][0])
	}
	if math.Abs(scaled.Data[0][1]-5/std) > 1e-12 {
		t.Errorf("Row 1: expected %v, got %v", 5/std, scaled.Data[0][1])
	}
}

func TestTransform_ColumnMismatch(t *testing.T) {
	train := domain.NewMatrix([]string{"f"}, 2)
	copy(train.Data[0], []float64{1, 2})
	_, state, err := FitTransform(train)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	wrongName := domain.NewMatrix([]string{"g"}, 2)
	if _, err := Transform(wrongName, state); err == nil {
		t.Error("Expected error on column name mismatch")
	}

	wrongCount := domain.NewMatrix([]string{"f", "g"}, 2)
	if _, err := Transform(wrongCount, state); err == nil {
		t.Error("Expected error on column count mismatch")
	}
}
