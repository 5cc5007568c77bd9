package table

import "fmt"

// Table is an ordered set of named columns over rows of Values.
//
// Invariant: every row has len(Columns) cells. Constructors and mutators in
// this package keep it; code that appends to Rows directly must do the same.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// New returns an empty table with a copy of columns.
func New(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// FromStrings builds a table from a header and raw string records. Short
// records are padded with Missing, long records are truncated.
func FromStrings(header []string, records [][]string) *Table {
	t := New(header)
	t.Rows = make([][]Value, 0, len(records))
	for _, rec := range records {
		row := make([]Value, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = FromRaw(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the first column called name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns a copy of the named column's cells; ok is false when absent.
func (t *Table) Column(name string) ([]Value, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, true
}

// AddColumn appends a column filled with fill and returns its index.
func (t *Table) AddColumn(name string, fill Value) int {
	t.Columns = append(t.Columns, name)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], fill)
	}
	return len(t.Columns) - 1
}

// AppendRow appends a row. It panics on a width mismatch, which is a
// programming error.
func (t *Table) AppendRow(row []Value) {
	if len(row) != len(t.Columns) {
		panic(fmt.Sprintf("table: row width %d != %d columns", len(row), len(t.Columns)))
	}
	t.Rows = append(t.Rows, row)
}

// Clone returns a deep copy; the result shares no slices with t.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]Value(nil), row...)
	}
	return out
}

// Select returns a new table holding the named columns in the given order.
// Absent names produce Missing-filled columns.
func (t *Table) Select(columns []string) *Table {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}
	out := New(columns)
	out.Rows = make([][]Value, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]Value, len(columns))
		for i, si := range idx {
			if si >= 0 {
				nr[i] = row[si]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// DuplicateColumns returns column names that occur more than once, in order
// of their second occurrence.
func (t *Table) DuplicateColumns() []string {
	seen := make(map[string]int, len(t.Columns))
	var dups []string
	for _, c := range t.Columns {
		seen[c]++
		if seen[c] == 2 {
			dups = append(dups, c)
		}
	}
	return dups
}

// MissingCounts returns the number of Missing cells per column, keyed by
// column name. Repeated names accumulate.
func (t *Table) MissingCounts() map[string]int {
	out := make(map[string]int, len(t.Columns))
	for _, c := range t.Columns {
		out[c] += 0
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if v.IsMissing() {
				out[t.Columns[i]]++
			}
		}
	}
	return out
}

// Strings renders every row with Value.String, for writers.
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		out[r] = rec
	}
	return out
}
