package multitable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// FullUnion aligns every input on the sorted union of all column names.
// The output row count is the sum of the input row counts.
type FullUnion struct {
	// MaxColumns caps the union width; 0 means unlimited.
	MaxColumns int
}

func (FullUnion) Name() string { return "full_union" }

func (s FullUnion) Merge(inputs []Input) (*table.Table, error) {
	if err := checkUnique(s.Name(), inputs); err != nil {
		return nil, err
	}
	cols := unionColumns(tablesOf(inputs)...)
	if s.MaxColumns > 0 && len(cols) > s.MaxColumns {
		return nil, &MergeDegradedError{
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("union has %d columns, limit %d", len(cols), s.MaxColumns),
		}
	}
	return concat(cols, tablesOf(inputs)...), nil
}

// SignatureGrouped concatenates inputs that share a column set, then folds
// the groups left to right. Each fold keeps the columns both sides share;
// when they share no data columns the fold keeps the union instead so that
// neither side is lost. The provenance column is always kept and does not
// count as shared data.
type SignatureGrouped struct {
	Provenance string
}

func (SignatureGrouped) Name() string { return "signature_grouped" }

func (s SignatureGrouped) Merge(inputs []Input) (*table.Table, error) {
	if err := checkUnique(s.Name(), inputs); err != nil {
		return nil, err
	}
	prov := s.Provenance
	if prov == "" {
		prov = ProvenanceColumn
	}

	var order []string
	groups := map[string][]*table.Table{}
	for _, in := range inputs {
		sig := Signature(in.Table.Columns)
		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], in.Table)
	}

	var acc *table.Table
	for _, sig := range order {
		g := groups[sig]
		merged := concat(sortedCopy(g[0].Columns), g...)
		if acc == nil {
			acc = merged
			continue
		}
		cols := intersectColumns(acc.Columns, merged.Columns, prov)
		if cols == nil {
			cols = unionColumns(acc, merged)
		}
		acc = concat(cols, acc, merged)
	}
	return acc, nil
}

// Signature is the sorted column set of a table, joined with a unit separator.
func Signature(columns []string) string {
	return strings.Join(sortedCopy(columns), "\x1f")
}

// intersectColumns returns the sorted shared columns of a and b, always
// including prov. It returns nil when no column other than prov is shared.
func intersectColumns(a, b []string, prov string) []string {
	inB := make(map[string]bool, len(b))
	for _, c := range b {
		inB[c] = true
	}
	var out []string
	data := 0
	for _, c := range a {
		if !inB[c] {
			continue
		}
		out = append(out, c)
		if c != prov {
			data++
		}
	}
	if data == 0 {
		return nil
	}
	if !contains(out, prov) {
		out = append(out, prov)
	}
	sort.Strings(out)
	return out
}

func unionColumns(ts ...*table.Table) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range ts {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// concat projects each table onto cols (absent columns become Missing) and
// appends the rows in order.
func concat(cols []string, ts ...*table.Table) *table.Table {
	out := table.New(cols)
	n := 0
	for _, t := range ts {
		n += t.Len()
	}
	out.Rows = make([][]table.Value, 0, n)
	for _, t := range ts {
		out.Rows = append(out.Rows, t.Select(cols).Rows...)
	}
	return out
}

func checkUnique(strategy string, inputs []Input) error {
	for _, in := range inputs {
		if d := in.Table.DuplicateColumns(); len(d) > 0 {
			return &MergeDegradedError{
				Strategy: strategy,
				Reason:   fmt.Sprintf("%s has duplicate columns %v", in.Name, d),
			}
		}
	}
	return nil
}

func tablesOf(inputs []Input) []*table.Table {
	out := make([]*table.Table, len(inputs))
	for i, in := range inputs {
		out[i] = in.Table
	}
	return out
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
