// Package schema validates and standardizes raw panel input.
// It is the only place where column existence is checked; every
// downstream component may assume a normalized panel.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"crypto-feature-lab/internal/domain"
)

// Mode selects the required-column set.
type Mode int

const (
	// ModeMinimal requires Name, Date, Close, Volume.
	ModeMinimal Mode = iota
	// ModeExtended additionally requires Open, High, Low.
	ModeExtended
)

// ColName and ColDate are the identifying columns of the panel.
const (
	ColName = "Name"
	ColDate = "Date"
)

// SchemaError reports every missing required column, not just the first.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// dateLayouts are tried in order when parsing the Date column.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// Normalize validates the raw table and produces a panel sorted by
// (Name, Date) ascending with a fresh contiguous row ordering.
//
// Validation is atomic: all missing required columns are collected into a
// single SchemaError before any computation runs. Unparseable dates become
// undefined dates (zero time), not a hard failure. The entity identifier
// is coerced to a canonical trimmed string. A stray positional "index"
// artifact column is ignored. No rows are dropped.
func Normalize(raw *domain.RawTable, mode Mode) (*domain.Panel, error) {
	required := []string{ColName, ColDate, domain.ColClose, domain.ColVolume}
	if mode == ModeExtended {
		required = append(required, domain.ColOpen, domain.ColHigh, domain.ColLow)
	}

	idx := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		idx[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	// Numeric columns to carry over: required numerics, optional extended
	// columns, and MarketCap when present. The "index" artifact is never
	// carried.
	numeric := []string{domain.ColOpen, domain.ColHigh, domain.ColLow, domain.ColClose, domain.ColVolume, domain.ColMarketCap}
	var carry []string
	for _, col := range numeric {
		if _, ok := idx[col]; ok {
			carry = append(carry, col)
		}
	}

	type row struct {
		name string
		date time.Time
		pos  int // original position, keeps ties stable
		vals []float64
	}

	rows := make([]row, 0, len(raw.Records))
	for pos, rec := range raw.Records {
		r := row{
			name: strings.TrimSpace(rec[idx[ColName]]),
			date: parseDate(rec[idx[ColDate]]),
			pos:  pos,
			vals: make([]float64, len(carry)),
		}
		for j, col := range carry {
			r.vals[j] = parseFloat(rec[idx[col]])
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].name != rows[j].name {
			return rows[i].name < rows[j].name
		}
		return rows[i].date.Before(rows[j].date)
	})

	names := make([]string, len(rows))
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		names[i] = r.name
		dates[i] = r.date
	}
	panel, err := domain.NewPanel(names, dates)
	if err != nil {
		return nil, err
	}
	for j, col := range carry {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = r.vals[j]
		}
		if err := panel.AddColumn(col, vals); err != nil {
			return nil, err
		}
	}
	return panel, nil
}

// parseDate tries the known layouts; failures yield the undefined date.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseFloat parses a numeric cell; blanks and garbage become undefined.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Undefined()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Undefined()
	}
	return v
}
