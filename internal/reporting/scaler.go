package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"crypto-feature-lab/internal/domain"
)

// WriteScalerState persists a fitted scaler state as indented JSON.
func WriteScalerState(path string, state *domain.ScalerState) error {
	b, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal scaler state: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write scaler state: %w", err)
	}
	return nil
}

// ReadScalerState loads a previously persisted scaler state.
func ReadScalerState(path string) (*domain.ScalerState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler state: %w", err)
	}
	var state domain.ScalerState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("parse scaler state: %w", err)
	}
	return &state, nil
}
