package domain

import "time"

// ScalerParams holds per-feature standardization statistics.
type ScalerParams struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// ScalerState is the fitted state of the z-score scaler: per-feature mean
// and population standard deviation, in the column order the scaler was
// fit with. Immutable after fitting; the only artifact the pipeline
// persists for reuse on new data.
type ScalerState struct {
	Columns []string                `json:"columns"`
	Params  map[string]ScalerParams `json:"params"`
}

// ScalerSnapshot is a persisted scaler state with identity and provenance.
// Corresponds to the scaler_states table in Postgres.
type ScalerSnapshot struct {
	StateID   string       // unique snapshot identifier
	CreatedAt time.Time    // fit time, UTC
	State     *ScalerState // fitted parameters
}
