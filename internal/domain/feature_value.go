package domain

import "time"

// FeatureValue is one processed feature observation in long form.
// Corresponds to the feature_values table in ClickHouse.
type FeatureValue struct {
	Name    string    // asset identifier
	Date    time.Time // observation date
	Feature string    // feature column name
	Value   float64   // scaled feature value
}

// RawTable is an untyped tabular input, as loaded from CSV: a header and
// string records. The schema normalizer turns it into a validated Panel;
// no column is accessed without a prior existence check.
type RawTable struct {
	Header  []string
	Records [][]string
}
