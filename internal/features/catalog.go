package features

import (
	"strconv"
	"time"

	"crypto-feature-lab/internal/domain"
)

// Feature column names produced by the catalog.
const (
	ColLogReturn  = "LogReturn"
	ColPctReturn  = "Return_%"
	ColRSI14      = "RSI_14"
	ColMACD       = "MACD"
	ColMACDSignal = "MACD_Signal"
	ColBBUpper    = "BB_Upper"
	ColBBLower    = "BB_Lower"
	ColBBWidth    = "BB_Width"
	ColHighLowPct = "High_Low_%"
	ColCloseOpen  = "Close_Open_%"
	ColPressure   = "MarketPressure"
	ColDayOfWeek  = "DayOfWeek"
	ColMonth      = "Month"
	ColQuarter    = "Quarter"
)

// MomentumVariant selects between the two momentum semantics found in the
// source material: a raw price difference over the window, or the rolling
// mean of log returns over the window. Both are exposed; diff is the
// default.
type MomentumVariant string

const (
	MomentumDiff     MomentumVariant = "diff"
	MomentumSmoothed MomentumVariant = "smoothed"
)

// GroupView is a read-only window over one entity group. Column lookups
// first consult columns derived earlier in the catalog, then the panel's
// base columns, so definitions may build on one another. The view never
// exposes rows outside its group.
type GroupView struct {
	start, end int
	panel      *domain.Panel
	derived    map[string][]float64
}

// Len returns the number of rows in the group.
func (v GroupView) Len() int { return v.end - v.start }

// Column returns the group's slice of a named column, or nil if absent.
func (v GroupView) Column(name string) []float64 {
	if c, ok := v.derived[name]; ok {
		return c[v.start:v.end]
	}
	if c, ok := v.panel.Column(name); ok {
		return c[v.start:v.end]
	}
	return nil
}

// Dates returns the group's dates.
func (v GroupView) Dates() []time.Time {
	return v.panel.Dates[v.start:v.end]
}

// Definition is a named transform owned by the catalog and referenced by
// the engine. Compute receives one group view and returns exactly
// v.Len() values; a nil result leaves the group undefined.
type Definition struct {
	Name    string
	Compute func(v GroupView) []float64
}

// CatalogOptions configures the indicator set.
type CatalogOptions struct {
	// Momentum selects the momentum semantics; empty means MomentumDiff.
	Momentum MomentumVariant
	// Extended enables the candle-shape features, which require the
	// Open/High/Low columns of the extended input schema.
	Extended bool
}

var (
	volatilityWindows = []int{7, 30}
	momentumWindows   = []int{7, 30}
	emaSpans          = []int{12, 26, 10, 20, 50}
	lagOffsets        = []int{1, 7, 14, 30}

	rsiPeriod       = 14
	macdSignalSpan  = 9
	bollingerWindow = 20
	bollingerWidth  = 2.0
)

// Catalog returns the ordered indicator definitions. Order matters:
// later definitions (MACD, signal line, return lags) consume columns
// computed by earlier ones.
func Catalog(opts CatalogOptions) []Definition {
	momentum := opts.Momentum
	if momentum == "" {
		momentum = MomentumDiff
	}

	defs := []Definition{
		fromColumn(ColLogReturn, domain.ColClose, LogReturn),
		fromColumn(ColPctReturn, domain.ColClose, PctChange),
	}

	for _, w := range volatilityWindows {
		w := w
		defs = append(defs, fromColumn(volatilityName(w), ColLogReturn, func(xs []float64) []float64 {
			return RollingStd(xs, w)
		}))
	}

	for _, w := range momentumWindows {
		w := w
		switch momentum {
		case MomentumSmoothed:
			defs = append(defs, fromColumn(momentumName(w), ColLogReturn, func(xs []float64) []float64 {
				return RollingMean(xs, w)
			}))
		default:
			defs = append(defs, fromColumn(momentumName(w), domain.ColClose, func(xs []float64) []float64 {
				return Diff(xs, w)
			}))
		}
	}

	defs = append(defs, fromColumn(ColRSI14, domain.ColClose, func(xs []float64) []float64 {
		return RSI(xs, rsiPeriod)
	}))

	for _, span := range emaSpans {
		span := span
		defs = append(defs, fromColumn(emaName(span), domain.ColClose, func(xs []float64) []float64 {
			return EMA(xs, span)
		}))
	}

	defs = append(defs,
		Definition{Name: ColMACD, Compute: func(v GroupView) []float64 {
			return sub(v.Column(emaName(12)), v.Column(emaName(26)))
		}},
		fromColumn(ColMACDSignal, ColMACD, func(xs []float64) []float64 {
			return EMA(xs, macdSignalSpan)
		}),
		fromColumn(ColBBUpper, domain.ColClose, func(xs []float64) []float64 {
			mean := RollingMean(xs, bollingerWindow)
			std := RollingStd(xs, bollingerWindow)
			return axpy(mean, std, bollingerWidth)
		}),
		fromColumn(ColBBLower, domain.ColClose, func(xs []float64) []float64 {
			mean := RollingMean(xs, bollingerWindow)
			std := RollingStd(xs, bollingerWindow)
			return axpy(mean, std, -bollingerWidth)
		}),
		Definition{Name: ColBBWidth, Compute: func(v GroupView) []float64 {
			mean := RollingMean(v.Column(domain.ColClose), bollingerWindow)
			return div(sub(v.Column(ColBBUpper), v.Column(ColBBLower)), mean)
		}},
	)

	if opts.Extended {
		defs = append(defs,
			Definition{Name: ColHighLowPct, Compute: func(v GroupView) []float64 {
				return div(sub(v.Column(domain.ColHigh), v.Column(domain.ColLow)), v.Column(domain.ColClose))
			}},
			Definition{Name: ColCloseOpen, Compute: func(v GroupView) []float64 {
				return div(sub(v.Column(domain.ColClose), v.Column(domain.ColOpen)), v.Column(domain.ColOpen))
			}},
			Definition{Name: ColPressure, Compute: func(v GroupView) []float64 {
				return sub(v.Column(domain.ColClose), v.Column(domain.ColOpen))
			}},
		)
	}

	for _, lag := range lagOffsets {
		lag := lag
		defs = append(defs,
			fromColumn(lagName(domain.ColClose, lag), domain.ColClose, func(xs []float64) []float64 {
				return Shift(xs, lag)
			}),
			fromColumn(lagName(domain.ColVolume, lag), domain.ColVolume, func(xs []float64) []float64 {
				return Shift(xs, lag)
			}),
			fromColumn(lagName("Return", lag), ColPctReturn, func(xs []float64) []float64 {
				return Shift(xs, lag)
			}),
		)
	}

	defs = append(defs,
		calendar(ColDayOfWeek, func(t time.Time) float64 {
			// Monday = 0 .. Sunday = 6.
			return float64((int(t.Weekday()) + 6) % 7)
		}),
		calendar(ColMonth, func(t time.Time) float64 { return float64(t.Month()) }),
		calendar(ColQuarter, func(t time.Time) float64 { return float64((int(t.Month())-1)/3 + 1) }),
	)

	return defs
}

// fromColumn wraps a slice transform of a single source column.
func fromColumn(name, source string, fn func([]float64) []float64) Definition {
	return Definition{Name: name, Compute: func(v GroupView) []float64 {
		xs := v.Column(source)
		if xs == nil {
			return nil
		}
		return fn(xs)
	}}
}

// calendar derives a value per row from the date; undefined dates yield
// undefined values.
func calendar(name string, fn func(time.Time) float64) Definition {
	return Definition{Name: name, Compute: func(v GroupView) []float64 {
		out := newUndefined(v.Len())
		for i, t := range v.Dates() {
			if t.IsZero() {
				continue
			}
			out[i] = fn(t)
		}
		return out
	}}
}

func volatilityName(window int) string { return "Volatility_" + strconv.Itoa(window) + "d" }
func momentumName(window int) string   { return "Momentum_" + strconv.Itoa(window) + "d" }
func emaName(span int) string          { return "EMA_" + strconv.Itoa(span) }
func lagName(col string, lag int) string {
	return col + "_lag" + strconv.Itoa(lag)
}

// sub returns a-b elementwise; undefined operands propagate.
func sub(a, b []float64) []float64 {
	if a == nil || b == nil {
		return nil
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// div returns a/b elementwise; a zero or undefined denominator yields
// undefined rather than infinity.
func div(a, b []float64) []float64 {
	if a == nil || b == nil {
		return nil
	}
	out := newUndefined(len(a))
	for i := range a {
		if b[i] == 0 || domain.IsUndefined(b[i]) || domain.IsUndefined(a[i]) {
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

// axpy returns mean + k*std elementwise; undefined operands propagate.
func axpy(mean, std []float64, k float64) []float64 {
	out := make([]float64, len(mean))
	for i := range mean {
		out[i] = mean[i] + k*std[i]
	}
	return out
}
