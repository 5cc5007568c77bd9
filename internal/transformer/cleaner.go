// Package transformer cleans mapped tables.
//
// A table that carries every canonical sales field is cleaned in full mode:
// price imputation, region fill, duplicate removal, date parsing, a Quantity
// outlier clamp and the derived Sales column. Any other table gets partial
// mode, which only parses dates and coerces numeric columns.
//
// Cleaning never fails. Cells that cannot be parsed become Missing and are
// counted in the Report.
package transformer

import (
	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
	"github.com/Odelialan/Sales-Data-Analysis/internal/transformer/builtin"
)

// Modes reported by Clean.
const (
	ModeFull    = "full"
	ModePartial = "partial"
)

// UnknownRegion fills missing Region cells in full mode.
const UnknownRegion = "Unknown"

// IQRFactor scales the interquartile range above Q3 for the outlier bound.
const IQRFactor = 1.5

// Partial-mode column aliases.
var (
	partialDateColumns    = []string{schema.OrderDate, "date", "Date"}
	partialNumericColumns = []string{schema.Quantity, schema.Price, schema.Sales}
)

// Report describes what one Clean call changed.
type Report struct {
	Mode              string
	RowsIn            int
	RowsOut           int
	PriceFilled       int
	PriceMedian       float64
	RegionFilled      int
	DuplicatesDropped int
	// DatesUnparsed counts non-missing date cells that failed to parse.
	DatesUnparsed int
	// NumbersUnparsed counts non-missing numeric cells that failed to parse.
	NumbersUnparsed int
	QuantityClamped int
	UpperBound      float64
}

// Clean returns a cleaned copy of t and a report. t is never modified.
func Clean(t *table.Table) (*table.Table, Report) {
	out := t.Clone()
	rep := Report{RowsIn: t.Len()}

	if schema.IsSalesSchema(out.Columns) {
		rep.Mode = ModeFull
		cleanFull(out, &rep)
	} else {
		rep.Mode = ModePartial
		cleanPartial(out, &rep)
	}
	rep.RowsOut = out.Len()
	return out, rep
}

func cleanFull(t *table.Table, rep *Report) {
	price := t.Index(schema.Price)
	region := t.Index(schema.Region)
	date := t.Index(schema.OrderDate)
	qty := t.Index(schema.Quantity)

	// Unparsable prices are Missing before the fill, so none survive it.
	rep.NumbersUnparsed += coerceColumn(t, price, table.ToNumber)
	rep.PriceFilled, rep.PriceMedian = fillMedian(t, price)
	rep.RegionFilled = fillText(t, region, UnknownRegion)
	rep.DuplicatesDropped = DropDuplicates(t)
	rep.DatesUnparsed = coerceDates(t, date)

	rep.NumbersUnparsed += coerceColumn(t, qty, table.ToNumber)
	rep.QuantityClamped, rep.UpperBound = ClampUpper(t, qty, IQRFactor)

	deriveSales(t, qty, price)
}

func cleanPartial(t *table.Table, rep *Report) {
	for i, c := range t.Columns {
		if contains(partialDateColumns, c) {
			rep.DatesUnparsed += coerceDates(t, i)
		}
		if contains(partialNumericColumns, c) {
			rep.NumbersUnparsed += coerceColumn(t, i, table.ToNumber)
		}
	}
}

// fillMedian replaces Missing cells of column col with the median of its
// numeric cells. Nothing is filled when the column has no numbers.
func fillMedian(t *table.Table, col int) (int, float64) {
	vals := make([]table.Value, len(t.Rows))
	for r, row := range t.Rows {
		vals[r], _ = table.ToNumber(row[col])
	}
	med, ok := builtin.Median(builtin.Numbers(vals))
	if !ok {
		return 0, 0
	}
	filled := 0
	for _, row := range t.Rows {
		if row[col].IsMissing() {
			row[col] = table.Num(med)
			filled++
		}
	}
	return filled, med
}

func fillText(t *table.Table, col int, s string) int {
	filled := 0
	for _, row := range t.Rows {
		if row[col].IsMissing() {
			row[col] = table.Str(s)
			filled++
		}
	}
	return filled
}

// DropDuplicates removes rows whose every cell equals an earlier row's,
// keeping the first occurrence and the relative order of survivors. It
// returns the number of rows removed.
func DropDuplicates(t *table.Table) int {
	seen := make(map[[32]byte]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		h := builtin.RowHash(row)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		kept = append(kept, row)
	}
	dropped := len(t.Rows) - len(kept)
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return dropped
}

// ClampUpper caps the Number cells of column col at Q3 + factor*IQR and
// returns how many cells changed and the bound. Columns without numbers are
// left alone. There is no lower bound.
func ClampUpper(t *table.Table, col int, factor float64) (int, float64) {
	if col < 0 {
		return 0, 0
	}
	vals, _ := t.Column(t.Columns[col])
	sorted := builtin.Sorted(builtin.Numbers(vals))
	if len(sorted) == 0 {
		return 0, 0
	}
	q1 := builtin.Quantile(sorted, 0.25)
	q3 := builtin.Quantile(sorted, 0.75)
	upper := q3 + factor*(q3-q1)

	clamped := 0
	for _, row := range t.Rows {
		if f, ok := row[col].Float(); ok && f > upper {
			row[col] = table.Num(upper)
			clamped++
		}
	}
	return clamped, upper
}

// deriveSales writes Quantity*Price into the Sales column, appending it when
// absent. A missing operand gives a missing Sales cell.
func deriveSales(t *table.Table, qty, price int) {
	sales := t.Index(schema.Sales)
	if sales < 0 {
		sales = t.AddColumn(schema.Sales, table.Null())
	}
	for _, row := range t.Rows {
		q, okQ := row[qty].Float()
		p, okP := row[price].Float()
		if okQ && okP {
			row[sales] = table.Num(q * p)
		} else {
			row[sales] = table.Null()
		}
	}
}

// coerceDates parses column col with the one layout most of its cells share.
func coerceDates(t *table.Table, col int) int {
	if col < 0 {
		return 0
	}
	vals := make([]table.Value, len(t.Rows))
	for r, row := range t.Rows {
		vals[r] = row[col]
	}
	return coerceColumn(t, col, table.DateParser(table.DateLayout(vals)))
}

// coerceColumn applies fn to every cell of col and returns how many
// non-missing cells became Missing.
func coerceColumn(t *table.Table, col int, fn func(table.Value) (table.Value, bool)) int {
	if col < 0 {
		return 0
	}
	failed := 0
	for _, row := range t.Rows {
		v := row[col]
		nv, ok := fn(v)
		if !ok && !v.IsMissing() {
			failed++
		}
		row[col] = nv
	}
	return failed
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
