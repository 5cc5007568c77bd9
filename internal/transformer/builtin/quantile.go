package builtin

import (
	"math"
	"sort"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// Numbers returns the float payloads of the Number cells in vals, in order.
// Missing, Text and Date cells are skipped.
func Numbers(vals []table.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Sorted returns a sorted copy of xs.
func Sorted(xs []float64) []float64 {
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-quantile of sorted using linear interpolation
// between closest ranks (position (n-1)q). An empty slice yields 0.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median is Quantile(Sorted(xs), 0.5); ok is false for an empty input.
func Median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return Quantile(Sorted(xs), 0.5), true
}
