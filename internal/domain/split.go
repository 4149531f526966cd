package domain

import "time"

// SplitMetadata records a time-ordered train/test partition for
// reproducibility. Corresponds to the split_metadata table in Postgres
// and the split_metadata.json output file.
type SplitMetadata struct {
	SplitID    string    `json:"split_id"`
	TrainSize  int       `json:"train_size"`
	TestSize   int       `json:"test_size"`
	SplitIndex int       `json:"split_index"`
	CreatedAt  time.Time `json:"created_at"`
}
