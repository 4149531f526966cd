// Package split partitions a processed panel into train and test sets by
// time order, never by random shuffle, and records the partition for
// reproducibility.
package split

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"crypto-feature-lab/internal/domain"
)

// TimeOrdered slices the (Name, Date)-sorted panel at
// floor(rows * (1 - testSize)): everything before the index is train,
// everything after is test. Returns the two partitions plus metadata.
func TimeOrdered(p *domain.Panel, testSize float64, clock func() time.Time) (*domain.Panel, *domain.Panel, *domain.SplitMetadata, error) {
	if testSize < 0 || testSize >= 1 {
		return nil, nil, nil, fmt.Errorf("test size %.3f out of range [0, 1)", testSize)
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	n := p.Len()
	splitIndex := int(float64(n) * (1 - testSize))

	train, err := p.Slice(0, splitIndex)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("slice train rows: %w", err)
	}
	test, err := p.Slice(splitIndex, n)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("slice test rows: %w", err)
	}

	now := clock()
	meta := &domain.SplitMetadata{
		SplitID:    fmt.Sprintf("split-%d", now.UnixMilli()),
		TrainSize:  train.Len(),
		TestSize:   test.Len(),
		SplitIndex: splitIndex,
		CreatedAt:  now,
	}
	return train, test, meta, nil
}

// WriteMetadata persists split metadata as indented JSON.
func WriteMetadata(path string, meta *domain.SplitMetadata) error {
	b, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal split metadata: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write split metadata: %w", err)
	}
	return nil
}
