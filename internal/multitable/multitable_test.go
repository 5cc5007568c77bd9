package multitable

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

func tbl(cols []string, rows ...[]string) *table.Table {
	return table.FromStrings(cols, rows)
}

func cell(t *testing.T, tb *table.Table, row int, col string) table.Value {
	t.Helper()
	i := tb.Index(col)
	if i < 0 {
		t.Fatalf("column %q not in %v", col, tb.Columns)
	}
	return tb.Rows[row][i]
}

func TestFullUnion_DisjointColumns(t *testing.T) {
	t.Parallel()

	a := Input{Name: "a.csv", Table: tbl([]string{"X", "Y"}, []string{"x1", "y1"})}
	b := Input{Name: "b.csv", Table: tbl([]string{"Y", "Z"}, []string{"y2", "z2"}, []string{"y3", "z3"})}

	out, err := FullUnion{}.Merge([]Input{a, b})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := strings.Join(out.Columns, ","); got != "X,Y,Z" {
		t.Fatalf("columns=%s", got)
	}
	if out.Len() != 3 {
		t.Fatalf("rows=%d want 3", out.Len())
	}
	if !cell(t, out, 0, "Z").IsMissing() {
		t.Fatalf("A row must have Missing Z")
	}
	if !cell(t, out, 1, "X").IsMissing() || !cell(t, out, 2, "X").IsMissing() {
		t.Fatalf("B rows must have Missing X")
	}
	if s := cell(t, out, 2, "Z").String(); s != "z3" {
		t.Fatalf("row order not preserved: %q", s)
	}
}

func TestFullUnion_DegradesOnDuplicatesAndWidth(t *testing.T) {
	t.Parallel()

	dup := Input{Name: "dup.csv", Table: tbl([]string{"A", "A"}, []string{"1", "2"})}
	_, err := FullUnion{}.Merge([]Input{dup})
	var degraded *MergeDegradedError
	if !errors.As(err, &degraded) {
		t.Fatalf("want MergeDegradedError, got %v", err)
	}

	wide := Input{Name: "w.csv", Table: tbl([]string{"A", "B", "C"}, []string{"1", "2", "3"})}
	if _, err := (FullUnion{MaxColumns: 2}).Merge([]Input{wide}); !errors.As(err, &degraded) {
		t.Fatalf("want width degrade, got %v", err)
	}
}

func TestSignatureGrouped_IntersectsAcrossSignatures(t *testing.T) {
	t.Parallel()

	in := []Input{
		{Name: "a.csv", Table: tbl([]string{"K", "V", "Source_File"}, []string{"1", "a", "a.csv"})},
		{Name: "b.csv", Table: tbl([]string{"K", "W", "Source_File"}, []string{"2", "b", "b.csv"})},
		{Name: "c.csv", Table: tbl([]string{"Source_File", "V", "K"}, []string{"c.csv", "c", "3"})},
	}
	out, err := SignatureGrouped{}.Merge(in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := strings.Join(out.Columns, ","); got != "K,Source_File" {
		t.Fatalf("columns=%s", got)
	}
	// a and c share a signature and are concatenated first.
	var files []string
	for r := range out.Rows {
		files = append(files, cell(t, out, r, "Source_File").String())
	}
	if got := strings.Join(files, ","); got != "a.csv,c.csv,b.csv" {
		t.Fatalf("provenance order=%s", got)
	}
}

func TestSignatureGrouped_ZeroOverlapKeepsUnion(t *testing.T) {
	t.Parallel()

	in := []Input{
		{Name: "a.csv", Table: tbl([]string{"X", "Source_File"}, []string{"1", "a.csv"})},
		{Name: "b.csv", Table: tbl([]string{"Z", "Source_File"}, []string{"2", "b.csv"})},
	}
	out, err := SignatureGrouped{}.Merge(in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := strings.Join(out.Columns, ","); got != "Source_File,X,Z" {
		t.Fatalf("columns=%s", got)
	}
	if out.Len() != 2 || !cell(t, out, 0, "Z").IsMissing() || !cell(t, out, 1, "X").IsMissing() {
		t.Fatalf("zero-overlap merge lost data: %+v", out.Rows)
	}
}

func TestReconciler_IdenticalSchemasKeepEveryRow(t *testing.T) {
	t.Parallel()

	cols := []string{"Order_ID", "Product", "Quantity", "Price", "Order_Date", "Region"}
	in := []Input{
		{Name: "a.csv", Table: tbl(cols, []string{"1", "p", "1", "2", "2024-01-01", "N"}, []string{"2", "p", "1", "2", "2024-01-01", "N"})},
		{Name: "b.csv", Table: tbl(cols, []string{"3", "q", "1", "2", "2024-01-01", "S"})},
		{Name: "c.csv", Table: tbl(cols, []string{"4", "r", "1", "2", "2024-01-01", "E"}, []string{"5", "r", "1", "2", "2024-01-01", "E"}, []string{"6", "r", "1", "2", "2024-01-01", "E"})},
	}
	res, err := NewReconciler(Options{}, nil).Merge(context.Background(), in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Rows != 6 || res.Table.Len() != 6 {
		t.Fatalf("rows=%d want 6", res.Rows)
	}
	if res.Strategy != "full_union" {
		t.Fatalf("strategy=%s", res.Strategy)
	}

	seen := map[string]bool{}
	for r := range res.Table.Rows {
		seen[cell(t, res.Table, r, ProvenanceColumn).String()] = true
	}
	for _, f := range []string{"a.csv", "b.csv", "c.csv"} {
		if !seen[f] {
			t.Fatalf("provenance missing %s: %v", f, seen)
		}
	}
}

func TestReconciler_FallsBackAndLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewReconciler(Options{MaxColumns: 2}, log.New(&buf, "", 0))
	in := []Input{
		{Name: "a.csv", Table: tbl([]string{"K", "V"}, []string{"1", "a"})},
		{Name: "b.csv", Table: tbl([]string{"K", "W"}, []string{"2", "b"})},
	}
	res, err := r.Merge(context.Background(), in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Strategy != "signature_grouped" {
		t.Fatalf("strategy=%s", res.Strategy)
	}
	if res.Rows != 2 {
		t.Fatalf("every file must contribute a row, rows=%d", res.Rows)
	}
	if !strings.Contains(buf.String(), "strategy=full_union degraded") {
		t.Fatalf("missing degrade log:\n%s", buf.String())
	}
}

func TestReconciler_ConvertsMixedKindsToText(t *testing.T) {
	t.Parallel()

	a := table.New([]string{"code"})
	a.AppendRow([]table.Value{table.Num(7)})
	b := table.New([]string{"code"})
	b.AppendRow([]table.Value{table.Str("A-1")})
	b.AppendRow([]table.Value{table.Null()})

	res, err := NewReconciler(Options{}, nil).Merge(context.Background(), []Input{{Name: "a", Table: a}, {Name: "b", Table: b}})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got := cell(t, res.Table, 0, "code")
	if got.Kind() != table.Text || got.String() != "7" {
		t.Fatalf("mixed column not converted: %v (%v)", got, got.Kind())
	}
	if !cell(t, res.Table, 2, "code").IsMissing() {
		t.Fatalf("Missing must survive text conversion")
	}
	if a.Rows[0][0].Kind() != table.Number {
		t.Fatalf("input table was modified")
	}
}

func TestReconciler_Unavailable(t *testing.T) {
	t.Parallel()

	empty := Input{Name: "e.csv", Table: table.New([]string{"A"})}
	_, err := NewReconciler(Options{}, nil).Merge(context.Background(), []Input{empty, {Name: "nil.csv"}})
	if !errors.Is(err, ErrMergeUnavailable) {
		t.Fatalf("want ErrMergeUnavailable, got %v", err)
	}

	dup := Input{Name: "dup.csv", Table: tbl([]string{"A", "A"}, []string{"1", "2"})}
	_, err = NewReconciler(Options{}, nil).Merge(context.Background(), []Input{dup})
	if !errors.Is(err, ErrMergeUnavailable) {
		t.Fatalf("all strategies degraded: want ErrMergeUnavailable, got %v", err)
	}
}

func TestReconciler_SkipsEmptyInputs(t *testing.T) {
	t.Parallel()

	in := []Input{
		{Name: "empty.csv", Table: table.New([]string{"Q"})},
		{Name: "a.csv", Table: tbl([]string{"A"}, []string{"1"})},
	}
	res, err := NewReconciler(Options{}, nil).Merge(context.Background(), in)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Table.Has("Q") {
		t.Fatalf("empty input columns must not leak into the union: %v", res.Table.Columns)
	}
}

type failingStrategy struct{ err error }

func (failingStrategy) Name() string                          { return "failing" }
func (f failingStrategy) Merge([]Input) (*table.Table, error) { return nil, f.err }

func TestReconciler_NonDegradeErrorStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := &Reconciler{Strategies: []Strategy{failingStrategy{err: boom}, FullUnion{}}}
	_, err := r.Merge(context.Background(), []Input{{Name: "a", Table: tbl([]string{"A"}, []string{"1"})}})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestReconciler_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReconciler(Options{}, nil).Merge(ctx, []Input{{Name: "a", Table: tbl([]string{"A"}, []string{"1"})}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
