// Package features implements the indicator library and the grouped
// transform engine. Every formula here is entity-local and causal: the
// value at row t is a pure function of rows with index <= t within the
// same group. This is the governing constraint of the package, chosen so
// engineered inputs never leak a future target.
package features

import (
	"math"

	"crypto-feature-lab/internal/domain"
)

// undef is shorthand for the shared missing-value marker.
func undef() float64 { return domain.Undefined() }

// Diff computes x[t] - x[t-lag]; the first lag rows are undefined.
func Diff(xs []float64, lag int) []float64 {
	out := newUndefined(len(xs))
	for i := lag; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-lag]
	}
	return out
}

// Shift moves values backward by lag within the series: out[t] = x[t-lag].
// The first lag rows are undefined.
func Shift(xs []float64, lag int) []float64 {
	out := newUndefined(len(xs))
	for i := lag; i < len(xs); i++ {
		out[i] = xs[i-lag]
	}
	return out
}

// LogReturn computes ln(x[t]) - ln(x[t-1]). The first row is undefined,
// as is any row whose current or previous value is non-positive.
func LogReturn(xs []float64) []float64 {
	out := newUndefined(len(xs))
	for i := 1; i < len(xs); i++ {
		cur, prev := xs[i], xs[i-1]
		if cur <= 0 || prev <= 0 || domain.IsUndefined(cur) || domain.IsUndefined(prev) {
			continue
		}
		out[i] = math.Log(cur) - math.Log(prev)
	}
	return out
}

// PctChange computes (x[t] - x[t-1]) / x[t-1]. The first row is
// undefined; a zero or undefined previous value yields undefined.
func PctChange(xs []float64) []float64 {
	out := newUndefined(len(xs))
	for i := 1; i < len(xs); i++ {
		prev := xs[i-1]
		if prev == 0 || domain.IsUndefined(prev) || domain.IsUndefined(xs[i]) {
			continue
		}
		out[i] = (xs[i] - prev) / prev
	}
	return out
}

// RollingMean computes the mean over the trailing window, skipping
// undefined entries, with a minimum-observations floor of one: shorter
// prefixes are averaged over whatever is available.
func RollingMean(xs []float64, window int) []float64 {
	out := newUndefined(len(xs))
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum, n := 0.0, 0
		for j := lo; j <= i; j++ {
			if domain.IsUndefined(xs[j]) {
				continue
			}
			sum += xs[j]
			n++
		}
		if n >= 1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// RollingStd computes the sample standard deviation (n-1 denominator)
// over the trailing window, skipping undefined entries. Fewer than two
// defined observations yield undefined, matching the sample formula.
func RollingStd(xs []float64, window int) []float64 {
	out := newUndefined(len(xs))
	for i := range xs {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum, n := 0.0, 0
		for j := lo; j <= i; j++ {
			if domain.IsUndefined(xs[j]) {
				continue
			}
			sum += xs[j]
			n++
		}
		if n < 2 {
			continue
		}
		mean := sum / float64(n)
		var ss float64
		for j := lo; j <= i; j++ {
			if domain.IsUndefined(xs[j]) {
				continue
			}
			d := xs[j] - mean
			ss += d * d
		}
		variance := ss / float64(n-1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// EMA computes the recursive exponentially weighted average with
// alpha = 2/(span+1), seeded by the first defined observation:
//
//	ema[0] = x[0]
//	ema[i] = alpha*x[i] + (1-alpha)*ema[i-1]
//
// This is the biased ("adjust=false") recurrence, not a simple moving
// average seed. Undefined entries before the seed stay undefined; an
// undefined entry after the seed carries the previous value forward.
func EMA(xs []float64, span int) []float64 {
	out := newUndefined(len(xs))
	alpha := 2.0 / (float64(span) + 1.0)
	seeded := false
	var ema float64
	for i, x := range xs {
		if !seeded {
			if domain.IsUndefined(x) {
				continue
			}
			ema = x
			seeded = true
		} else if !domain.IsUndefined(x) {
			ema = alpha*x + (1-alpha)*ema
		}
		out[i] = ema
	}
	return out
}

// RSI computes the Relative Strength Index over the given period:
// gains and losses are the positive and negative parts of the one-step
// close difference, averaged with a rolling mean (min one observation);
// RSI = 100 - 100/(1+RS) with RS = avg_gain/avg_loss. A zero average
// loss makes RS singular, so the row is undefined rather than pinned
// at 100.
func RSI(xs []float64, period int) []float64 {
	delta := Diff(xs, 1)
	gains := newUndefined(len(xs))
	losses := newUndefined(len(xs))
	for i, d := range delta {
		if domain.IsUndefined(d) {
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := RollingMean(gains, period)
	avgLoss := RollingMean(losses, period)

	out := newUndefined(len(xs))
	for i := range xs {
		g, l := avgGain[i], avgLoss[i]
		if domain.IsUndefined(g) || domain.IsUndefined(l) || l == 0 {
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func newUndefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = undef()
	}
	return out
}
