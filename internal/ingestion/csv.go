// Package ingestion loads raw panel data from CSV files. Loading is a
// collaborator of the core pipeline: it produces an untyped RawTable and
// leaves all validation to the schema normalizer.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"crypto-feature-lab/internal/domain"
)

// LoadPanelCSV reads a CSV file with a header row into a RawTable.
func LoadPanelCSV(path string) (*domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel csv: %w", err)
	}
	defer f.Close()

	return ReadPanel(f)
}

// ReadPanel reads CSV records from r. The first record is the header;
// short records are padded so the normalizer sees a rectangular table.
func ReadPanel(r io.Reader) (*domain.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged rows, pad below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		records = append(records, rec[:len(header)])
	}

	return &domain.RawTable{Header: header, Records: records}, nil
}
