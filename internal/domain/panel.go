package domain

import (
	"fmt"
	"math"
	"time"
)

// Base column names of the input panel.
const (
	ColOpen      = "Open"
	ColHigh      = "High"
	ColLow       = "Low"
	ColClose     = "Close"
	ColVolume    = "Volume"
	ColMarketCap = "MarketCap"
)

// Undefined returns the marker used for missing numeric values.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v is the missing-value marker.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// Panel is a column-oriented table of daily per-asset observations.
// Rows are keyed by (Name, Date) and are globally sorted by asset name,
// then ascending date, before any transform runs. Numeric columns use
// NaN as the undefined marker; a zero Date is an undefined date.
type Panel struct {
	Names []string
	Dates []time.Time

	cols  map[string][]float64
	order []string
}

// NewPanel creates an empty panel with capacity for n rows.
func NewPanel(names []string, dates []time.Time) (*Panel, error) {
	if len(names) != len(dates) {
		return nil, fmt.Errorf("names/dates length mismatch: %d vs %d", len(names), len(dates))
	}
	return &Panel{
		Names: names,
		Dates: dates,
		cols:  make(map[string][]float64),
	}, nil
}

// Len returns the number of rows.
func (p *Panel) Len() int { return len(p.Names) }

// AddColumn appends a numeric column. Columns are created once and never
// mutated afterwards; re-adding an existing name is an error.
func (p *Panel) AddColumn(name string, values []float64) error {
	if len(values) != p.Len() {
		return fmt.Errorf("column %s: length %d does not match %d rows", name, len(values), p.Len())
	}
	if _, exists := p.cols[name]; exists {
		return fmt.Errorf("column %s already exists", name)
	}
	p.cols[name] = values
	p.order = append(p.order, name)
	return nil
}

// Column returns the values of a named column, or false if absent.
// The returned slice is the panel's backing storage and must be treated
// as read-only by callers.
func (p *Panel) Column(name string) ([]float64, bool) {
	c, ok := p.cols[name]
	return c, ok
}

// HasColumn reports whether a named column exists.
func (p *Panel) HasColumn(name string) bool {
	_, ok := p.cols[name]
	return ok
}

// Columns returns column names in insertion order.
func (p *Panel) Columns() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// DropColumn removes a column. Returns false if the column does not exist.
func (p *Panel) DropColumn(name string) bool {
	if _, ok := p.cols[name]; !ok {
		return false
	}
	delete(p.cols, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// AllUndefined reports whether every value of the named column is undefined.
// Returns false if the column does not exist.
func (p *Panel) AllUndefined(name string) bool {
	c, ok := p.cols[name]
	if !ok {
		return false
	}
	for _, v := range c {
		if !IsUndefined(v) {
			return false
		}
	}
	return true
}

// Slice returns a new panel containing rows [start, end). Column values
// are copied so the slices do not alias the parent panel.
func (p *Panel) Slice(start, end int) (*Panel, error) {
	if start < 0 || end > p.Len() || start > end {
		return nil, fmt.Errorf("slice bounds [%d, %d) out of range for %d rows", start, end, p.Len())
	}
	names := make([]string, end-start)
	dates := make([]time.Time, end-start)
	copy(names, p.Names[start:end])
	copy(dates, p.Dates[start:end])

	out, err := NewPanel(names, dates)
	if err != nil {
		return nil, err
	}
	for _, name := range p.order {
		vals := make([]float64, end-start)
		copy(vals, p.cols[name][start:end])
		if err := out.AddColumn(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Group is a contiguous, entity-homogeneous run of panel rows, sorted by
// ascending date. Causal computations on a group may only read that
// group's own rows, never another entity's and never future rows.
type Group struct {
	Name  string
	Start int // inclusive row index
	End   int // exclusive row index
}

// Groups partitions a sorted panel into contiguous entity groups.
func (p *Panel) Groups() []Group {
	var groups []Group
	n := p.Len()
	for start := 0; start < n; {
		end := start + 1
		for end < n && p.Names[end] == p.Names[start] {
			end++
		}
		groups = append(groups, Group{Name: p.Names[start], Start: start, End: end})
		start = end
	}
	return groups
}
