// Package summary computes per-file descriptive statistics over cleaned
// tables. A FileSummary is a value: once built it shares no slices or maps
// with the table it came from.
package summary

import (
	"math"
	"sort"
	"time"

	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
	"github.com/Odelialan/Sales-Data-Analysis/internal/transformer/builtin"
)

// TopProductsLimit caps FileSummary.TopProducts.
const TopProductsLimit = 10

// DateLayout formats DateRange bounds.
const DateLayout = "2006-01-02"

// Column kind labels used by ColumnKinds.
const (
	KindNumber  = "number"
	KindText    = "text"
	KindDate    = "date"
	KindMixed   = "mixed"
	KindMissing = "missing"
)

// Product names that count as absent even though they are non-missing text.
var blankProducts = map[string]struct{}{"": {}, "nan": {}, "None": {}}

type FileSummary struct {
	FileName      string
	TotalRows     int
	TotalColumns  int
	Columns       []string
	MissingValues map[string]int
	ColumnKinds   map[string]string
	IsSalesData   bool

	// Sales-data files only. Nil or empty when the aggregate has no input.
	Sales       *SalesStats
	Regions     []GroupStat
	TopProducts []GroupStat
	DateRange   *DateRange

	// Other files only.
	Numeric []NumericStat
}

type SalesStats struct {
	Total  float64
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// GroupStat aggregates Sales over one Region or Product. Values are rounded
// to two decimals.
type GroupStat struct {
	Name  string  `json:"name"`
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NumericStat mirrors a describe() row: std is the sample deviation and the
// percentiles use linear interpolation.
type NumericStat struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	P50    float64
	P75    float64
	Max    float64
}

// Summarize builds the summary of a cleaned table. It never fails; an
// aggregate with no valid input is omitted.
func Summarize(t *table.Table, fileName string) FileSummary {
	s := FileSummary{
		FileName:      fileName,
		TotalRows:     t.Len(),
		TotalColumns:  len(t.Columns),
		Columns:       append([]string(nil), t.Columns...),
		MissingValues: t.MissingCounts(),
		ColumnKinds:   columnKinds(t),
		IsSalesData:   schema.IsSalesSchema(t.Columns),
	}
	if !s.IsSalesData {
		s.Numeric = numericStats(t)
		return s
	}

	sales, hasSales := t.Column(schema.Sales)
	if hasSales {
		s.Sales = salesStats(builtin.Numbers(sales))
		region, _ := t.Column(schema.Region)
		s.Regions = groupBy(region, sales, nil)
		sortByName(s.Regions)

		product, _ := t.Column(schema.Product)
		s.TopProducts = groupBy(product, sales, blankProducts)
		sortBySumDesc(s.TopProducts)
		if len(s.TopProducts) > TopProductsLimit {
			s.TopProducts = s.TopProducts[:TopProductsLimit]
		}
	}
	dates, _ := t.Column(schema.OrderDate)
	s.DateRange = dateRange(dates)
	return s
}

func salesStats(xs []float64) *SalesStats {
	if len(xs) == 0 {
		return nil
	}
	sorted := builtin.Sorted(xs)
	total := sum(xs)
	return &SalesStats{
		Total:  total,
		Mean:   total / float64(len(xs)),
		Median: builtin.Quantile(sorted, 0.5),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// groupBy aggregates vals by the String form of keys. Rows with a missing
// key, or a key listed in skip, are dropped; Count only counts numeric vals.
func groupBy(keys, vals []table.Value, skip map[string]struct{}) []GroupStat {
	idx := map[string]int{}
	var out []GroupStat
	for r, k := range keys {
		if k.IsMissing() {
			continue
		}
		name := k.String()
		if _, drop := skip[name]; drop {
			continue
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, GroupStat{Name: name})
		}
		if f, ok := vals[r].Float(); ok {
			out[i].Sum += f
			out[i].Count++
		}
	}
	for i := range out {
		if out[i].Count > 0 {
			out[i].Mean = round2(out[i].Sum / float64(out[i].Count))
		}
		out[i].Sum = round2(out[i].Sum)
	}
	return out
}

func sortByName(gs []GroupStat) {
	sort.Slice(gs, func(i, j int) bool { return gs[i].Name < gs[j].Name })
}

func sortBySumDesc(gs []GroupStat) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].Sum != gs[j].Sum {
			return gs[i].Sum > gs[j].Sum
		}
		return gs[i].Name < gs[j].Name
	})
}

func dateRange(vals []table.Value) *DateRange {
	var lo, hi time.Time
	found := false
	for _, v := range vals {
		d, ok := v.Date()
		if !ok {
			continue
		}
		if !found || d.Before(lo) {
			lo = d
		}
		if !found || d.After(hi) {
			hi = d
		}
		found = true
	}
	if !found {
		return nil
	}
	return &DateRange{Start: lo.Format(DateLayout), End: hi.Format(DateLayout)}
}

// numericStats describes every column holding Number cells and nothing but
// Number or Missing cells, in column order.
func numericStats(t *table.Table) []NumericStat {
	var out []NumericStat
	for i, name := range t.Columns {
		if kindOf(t, i) != KindNumber {
			continue
		}
		vals, _ := t.Column(name)
		xs := builtin.Numbers(vals)
		sorted := builtin.Sorted(xs)
		n := len(xs)
		mean := sum(xs) / float64(n)
		out = append(out, NumericStat{
			Column: name,
			Count:  n,
			Mean:   mean,
			Std:    sampleStd(xs, mean),
			Min:    sorted[0],
			P25:    builtin.Quantile(sorted, 0.25),
			P50:    builtin.Quantile(sorted, 0.5),
			P75:    builtin.Quantile(sorted, 0.75),
			Max:    sorted[n-1],
		})
	}
	return out
}

func columnKinds(t *table.Table) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		out[c] = kindOf(t, i)
	}
	return out
}

func kindOf(t *table.Table, col int) string {
	var seen table.Kind
	for _, row := range t.Rows {
		k := row[col].Kind()
		if k == table.Missing {
			continue
		}
		if seen != table.Missing && seen != k {
			return KindMixed
		}
		seen = k
	}
	switch seen {
	case table.Number:
		return KindNumber
	case table.Text:
		return KindText
	case table.Date:
		return KindDate
	default:
		return KindMissing
	}
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// sampleStd returns the n-1 standard deviation, or 0 for fewer than two values.
func sampleStd(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
