package transformer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

var salesHeader = []string{"Order_ID", "Product", "Quantity", "Price", "Order_Date", "Region"}

// salesTable builds a canonical table with Quantity and Price as given and
// distinct Order_IDs so no row is a duplicate.
func salesTable(qty, price []table.Value) *table.Table {
	t := table.New(salesHeader)
	for i := range qty {
		t.AppendRow([]table.Value{
			table.Num(float64(i + 1)),
			table.Str("P"),
			qty[i],
			price[i],
			table.Str("2024-01-02"),
			table.Str("North"),
		})
	}
	return t
}

func nums(fs ...float64) []table.Value {
	out := make([]table.Value, len(fs))
	for i, f := range fs {
		out[i] = table.Num(f)
	}
	return out
}

func column(t *testing.T, tb *table.Table, name string) []table.Value {
	t.Helper()
	c, ok := tb.Column(name)
	require.True(t, ok, "column %q missing", name)
	return c
}

func TestClean_ClampsQuantityOutliers(t *testing.T) {
	t.Parallel()

	in := salesTable(nums(1, 2, 3, 4, 100), nums(1, 1, 1, 1, 1))
	out, rep := Clean(in)

	assert.Equal(t, ModeFull, rep.Mode)
	assert.Equal(t, 7.0, rep.UpperBound)
	assert.Equal(t, 1, rep.QuantityClamped)
	assert.Equal(t, nums(1, 2, 3, 4, 7), column(t, out, schema.Quantity))
}

func TestClean_FillsPriceWithMedian(t *testing.T) {
	t.Parallel()

	price := []table.Value{table.Num(10), table.Null(), table.Num(20), table.Null(), table.Num(30)}
	in := salesTable(nums(1, 1, 1, 1, 1), price)
	out, rep := Clean(in)

	assert.Equal(t, 2, rep.PriceFilled)
	assert.Equal(t, 20.0, rep.PriceMedian)
	assert.Equal(t, nums(10, 20, 20, 20, 30), column(t, out, schema.Price))
}

func TestClean_ClampIsIdempotent(t *testing.T) {
	t.Parallel()

	once, _ := Clean(salesTable(nums(1, 2, 3, 4, 100, 5, 6, 2), nums(1, 1, 1, 1, 1, 1, 1, 1)))
	twice, rep := Clean(once)

	assert.Equal(t, 0, rep.QuantityClamped)
	assert.Equal(t, column(t, once, schema.Quantity), column(t, twice, schema.Quantity))
}

func TestClean_SalesIsQuantityTimesPrice(t *testing.T) {
	t.Parallel()

	qty := []table.Value{table.Num(2), table.Str("3"), table.Null(), table.Str("x")}
	price := []table.Value{table.Num(1.25), table.Str("4.5"), table.Num(2), table.Num(2)}
	out, rep := Clean(salesTable(qty, price))

	sales := column(t, out, schema.Sales)
	assert.Equal(t, table.Num(2.5), sales[0])
	assert.Equal(t, table.Num(13.5), sales[1])
	assert.True(t, sales[2].IsMissing(), "missing quantity must give missing sales")
	assert.True(t, sales[3].IsMissing(), "unparsable quantity must give missing sales")
	assert.Equal(t, 1, rep.NumbersUnparsed)

	for r, row := range out.Rows {
		q, okQ := row[out.Index(schema.Quantity)].Float()
		p, okP := row[out.Index(schema.Price)].Float()
		if okQ && okP {
			s, _ := row[out.Index(schema.Sales)].Float()
			assert.Equal(t, q*p, s, "row %d", r)
		}
	}
}

func TestClean_DedupKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	in := table.FromStrings(salesHeader, [][]string{
		{"1", "A", "1", "5", "2024-01-01", "East"},
		{"2", "B", "1", "5", "2024-01-01", "West"},
		{"1", "A", "1", "5", "2024-01-01", "East"},
		{"3", "C", "1", "5", "2024-01-01", ""},
		{"3", "C", "1", "5", "2024-01-01", "Unknown"},
	})
	out, rep := Clean(in)

	// Region is filled before dedup, so the last two rows become identical.
	assert.Equal(t, 2, rep.DuplicatesDropped)
	require.Equal(t, 3, out.Len())
	ids := []string{out.Rows[0][0].String(), out.Rows[1][0].String(), out.Rows[2][0].String()}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, 1, rep.RegionFilled)
}

func TestDropDuplicates_PositionOfSurvivor(t *testing.T) {
	t.Parallel()

	tb := table.New([]string{"k", "v"})
	tb.AppendRow([]table.Value{table.Str("x"), table.Num(1)})
	tb.AppendRow([]table.Value{table.Str("y"), table.Num(2)})
	tb.AppendRow([]table.Value{table.Str("x"), table.Num(1)})
	first := tb.Rows[0]

	require.Equal(t, 1, DropDuplicates(tb))
	require.Equal(t, 2, tb.Len())
	assert.Same(t, &first[0], &tb.Rows[0][0])
}

func TestClean_ClampShrinksOnRepeatWhenQ3NeighbourIsOutlier(t *testing.T) {
	t.Parallel()

	once, rep := Clean(salesTable(nums(0, 0, 0, 100), nums(1, 1, 1, 1)))
	assert.Equal(t, 62.5, rep.UpperBound)
	assert.Equal(t, nums(0, 0, 0, 62.5), column(t, once, schema.Quantity))

	// Q3 interpolates towards the clamped value, so a second pass lowers
	// the bound again. A single Clean call clamps exactly once.
	twice, rep := Clean(once)
	assert.Equal(t, 1, rep.QuantityClamped)
	assert.InDelta(t, 39.0625, rep.UpperBound, 1e-9)
	assert.Equal(t, nums(0, 0, 0, 39.0625), column(t, twice, schema.Quantity))
}

func TestClean_TextPriceIsFilledWithMedian(t *testing.T) {
	t.Parallel()

	price := []table.Value{table.Num(10), table.Str("abc"), table.Null()}
	out, rep := Clean(salesTable(nums(1, 1, 1), price))

	assert.Equal(t, nums(10, 10, 10), column(t, out, schema.Price))
	assert.Equal(t, 2, rep.PriceFilled)
	assert.Equal(t, 1, rep.NumbersUnparsed)
	for _, v := range column(t, out, schema.Sales) {
		assert.False(t, v.IsMissing())
	}
}

func TestClean_DateColumnUsesOneDayMonthOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		dates []string
		want  []time.Time
	}{
		{
			name:  "month first",
			dates: []string{"03/04/2024", "03/15/2024"},
			want:  []time.Time{time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:  "day first",
			dates: []string{"03/04/2024", "25/12/2023", "13/01/2024"},
			want: []time.Time{
				time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows := make([][]string, len(tt.dates))
			for i, d := range tt.dates {
				rows[i] = []string{string(rune('1' + i)), "A", "1", "5", d, "East"}
			}
			out, rep := Clean(table.FromStrings(salesHeader, rows))
			assert.Zero(t, rep.DatesUnparsed)
			for i, v := range column(t, out, schema.OrderDate) {
				got, ok := v.Date()
				require.True(t, ok, "row %d", i)
				assert.True(t, got.Equal(tt.want[i]), "row %d: %s", i, got)
			}
		})
	}
}

func TestClean_ParsesDatesAndCountsFailures(t *testing.T) {
	t.Parallel()

	in := table.FromStrings(salesHeader, [][]string{
		{"1", "A", "1", "5", "2024-03-05", "East"},
		{"2", "A", "1", "5", "garbage", "East"},
		{"3", "A", "1", "5", "", "East"},
	})
	out, rep := Clean(in)

	dates := column(t, out, schema.OrderDate)
	got, ok := dates[0].Date()
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, dates[1].IsMissing())
	assert.True(t, dates[2].IsMissing())
	assert.Equal(t, 1, rep.DatesUnparsed)
}

func TestClean_PartialMode(t *testing.T) {
	t.Parallel()

	in := table.FromStrings([]string{"date", "Quantity", "Region", "Note"}, [][]string{
		{"2024-01-02", "3", "", "n1"},
		{"bad", "x", "East", "n1"},
		{"bad", "x", "East", "n1"},
	})
	out, rep := Clean(in)

	assert.Equal(t, ModePartial, rep.Mode)
	assert.Equal(t, 3, out.Len(), "partial mode never drops duplicates")
	assert.False(t, out.Has(schema.Sales))
	assert.Equal(t, table.Date, out.Rows[0][0].Kind())
	assert.Equal(t, table.Number, out.Rows[0][1].Kind())
	assert.True(t, out.Rows[1][1].IsMissing())
	assert.True(t, out.Rows[0][2].IsMissing(), "partial mode never imputes")
	assert.Equal(t, 2, rep.DatesUnparsed)
	assert.Equal(t, 2, rep.NumbersUnparsed)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := table.FromStrings(salesHeader, [][]string{
		{"1", "A", "100", "", "2024-01-01", ""},
		{"1", "A", "100", "", "2024-01-01", ""},
		{"2", "B", "1", "3", "2024-01-01", "East"},
	})
	before := in.Clone()

	_, _ = Clean(in)
	assert.Equal(t, before, in)
}

func TestClean_NoNumericPriceSkipsFill(t *testing.T) {
	t.Parallel()

	in := salesTable(nums(1, 2), []table.Value{table.Null(), table.Null()})
	out, rep := Clean(in)

	assert.Equal(t, 0, rep.PriceFilled)
	for _, v := range column(t, out, schema.Sales) {
		assert.True(t, v.IsMissing())
	}
}
