package schema

import (
	"errors"
	"testing"
	"time"

	"crypto-feature-lab/internal/domain"
)

func rawTable(header []string, records ...[]string) *domain.RawTable {
	return &domain.RawTable{Header: header, Records: records}
}

func TestNormalize_MissingColumnsAllListed(t *testing.T) {
	raw := rawTable([]string{"Name", "Date"})

	_, err := Normalize(raw, ModeMinimal)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 2 {
		t.Fatalf("Expected 2 missing columns, got %v", schemaErr.Missing)
	}
	// Every missing column is reported, not just the first.
	want := map[string]bool{domain.ColClose: true, domain.ColVolume: true}
	for _, col := range schemaErr.Missing {
		if !want[col] {
			t.Errorf("Unexpected missing column %q", col)
		}
	}
}

func TestNormalize_ExtendedRequiresCandleColumns(t *testing.T) {
	raw := rawTable([]string{"Name", "Date", "Close", "Volume"})

	_, err := Normalize(raw, ModeExtended)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 3 {
		t.Errorf("Expected Open/High/Low missing, got %v", schemaErr.Missing)
	}
}

func TestNormalize_SortsByNameThenDate(t *testing.T) {
	raw := rawTable(
		[]string{"Name", "Date", "Close", "Volume"},
		[]string{"BBB", "2024-01-02", "2", "10"},
		[]string{"AAA", "2024-01-02", "3", "10"},
		[]string{"BBB", "2024-01-01", "1", "10"},
		[]string{"AAA", "2024-01-01", "4", "10"},
	)

	p, err := Normalize(raw, ModeMinimal)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	wantNames := []string{"AAA", "AAA", "BBB", "BBB"}
	for i, name := range wantNames {
		if p.Names[i] != name {
			t.Errorf("Row %d: expected name %s, got %s", i, name, p.Names[i])
		}
	}
	for i := 1; i < p.Len(); i++ {
		if p.Names[i] == p.Names[i-1] && p.Dates[i].Before(p.Dates[i-1]) {
			t.Errorf("Row %d: dates not ascending within entity", i)
		}
	}

	closeCol, _ := p.Column(domain.ColClose)
	want := []float64{4, 3, 1, 2}
	for i := range want {
		if closeCol[i] != want[i] {
			t.Errorf("Row %d: expected close %v, got %v", i, want[i], closeCol[i])
		}
	}
}

func TestNormalize_UnparseableDateBecomesUndefined(t *testing.T) {
	raw := rawTable(
		[]string{"Name", "Date", "Close", "Volume"},
		[]string{"AAA", "not-a-date", "1", "10"},
		[]string{"AAA", "2024-01-05", "2", "10"},
	)

	p, err := Normalize(raw, ModeMinimal)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("Expected 2 rows (none dropped), got %d", p.Len())
	}

	// The undefined date (zero time) sorts before any real date.
	if !p.Dates[0].IsZero() {
		t.Errorf("Row 0: expected undefined date, got %v", p.Dates[0])
	}
	if p.Dates[1] != time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Row 1: expected 2024-01-05, got %v", p.Dates[1])
	}
}

func TestNormalize_DateLayouts(t *testing.T) {
	raw := rawTable(
		[]string{"Name", "Date", "Close", "Volume"},
		[]string{"AAA", "2024-02-29", "1", "10"},
		[]string{"AAA", "2024-03-01 12:30:00", "2", "10"},
		[]string{"AAA", "03/02/2024", "3", "10"},
	)

	p, err := Normalize(raw, ModeMinimal)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	for i, d := range p.Dates {
		if d.IsZero() {
			t.Errorf("Row %d: date should have parsed", i)
		}
	}
}

func TestNormalize_TrimsEntityAndDropsIndexArtifact(t *testing.T) {
	raw := rawTable(
		[]string{"index", "Name", "Date", "Close", "Volume"},
		[]string{"0", "  AAA ", "2024-01-01", "1", "10"},
	)

	p, err := Normalize(raw, ModeMinimal)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if p.Names[0] != "AAA" {
		t.Errorf("Expected trimmed name AAA, got %q", p.Names[0])
	}
	if p.HasColumn("index") {
		t.Error("Positional index artifact should not be carried")
	}
}

func TestNormalize_GarbageNumericBecomesUndefined(t *testing.T) {
	raw := rawTable(
		[]string{"Name", "Date", "Close", "Volume", "MarketCap"},
		[]string{"AAA", "2024-01-01", "1.5", "", "n/a"},
	)

	p, err := Normalize(raw, ModeMinimal)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	vol, _ := p.Column(domain.ColVolume)
	if !domain.IsUndefined(vol[0]) {
		t.Errorf("Blank volume: expected undefined, got %v", vol[0])
	}
	mcap, _ := p.Column(domain.ColMarketCap)
	if !domain.IsUndefined(mcap[0]) {
		t.Errorf("Garbage market cap: expected undefined, got %v", mcap[0])
	}
	closeCol, _ := p.Column(domain.ColClose)
	if closeCol[0] != 1.5 {
		t.Errorf("Close: expected 1.5, got %v", closeCol[0])
	}
}

func TestNormalize_CarriesExtendedColumns(t *testing.T) {
	raw := rawTable(
		[]string{"Name", "Date", "Open", "High", "Low", "Close", "Volume"},
		[]string{"AAA", "2024-01-01", "9", "11", "8", "10", "100"},
	)

	p, err := Normalize(raw, ModeExtended)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	for _, col := range []string{domain.ColOpen, domain.ColHigh, domain.ColLow, domain.ColClose, domain.ColVolume} {
		if !p.HasColumn(col) {
			t.Errorf("Missing column %s", col)
		}
	}
}
