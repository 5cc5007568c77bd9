// Package multitable merges cleaned per-file tables into one table.
//
// Merging runs an ordered list of strategies. Each strategy either returns a
// complete merged table or a *MergeDegradedError, in which case the next one
// is tried:
//
//  1. FullUnion: union of all column names, missing cells filled with the
//     Missing value, rows concatenated in input order.
//  2. SignatureGrouped: inputs grouped by column set, groups concatenated,
//     then folded pairwise over their shared columns.
//
// When every strategy degrades, Merge returns ErrMergeUnavailable. That is
// distinct from a successful merge with zero rows, which cannot happen because
// empty inputs are skipped before any strategy runs.
package multitable

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// ProvenanceColumn is the default name of the source file column.
const ProvenanceColumn = "Source_File"

// ErrMergeUnavailable reports that no strategy could merge the inputs, or
// that there was nothing to merge.
var ErrMergeUnavailable = errors.New("multitable: merge unavailable")

// MergeDegradedError is returned by a Strategy that cannot handle its input.
// Reconciler consumes it and moves to the next strategy.
type MergeDegradedError struct {
	Strategy string
	Reason   string
}

func (e *MergeDegradedError) Error() string {
	return fmt.Sprintf("multitable: %s degraded: %s", e.Strategy, e.Reason)
}

// Logger is the minimal logging interface used by the reconciler.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Input is one cleaned table and the file it came from.
type Input struct {
	Name  string
	Table *table.Table
}

// Strategy merges non-empty inputs that already carry a provenance column.
// Implementations must not modify the input tables.
type Strategy interface {
	Name() string
	Merge(inputs []Input) (*table.Table, error)
}

// Options configures DefaultStrategies.
type Options struct {
	// MaxColumns caps the FullUnion width; 0 means unlimited.
	MaxColumns int
	// Provenance overrides ProvenanceColumn when non-empty.
	Provenance string
}

func (o Options) provenance() string {
	if o.Provenance != "" {
		return o.Provenance
	}
	return ProvenanceColumn
}

// DefaultStrategies returns FullUnion followed by SignatureGrouped.
func DefaultStrategies(opt Options) []Strategy {
	return []Strategy{
		FullUnion{MaxColumns: opt.MaxColumns},
		SignatureGrouped{Provenance: opt.provenance()},
	}
}

// Result is a successful merge.
type Result struct {
	Table *table.Table
	// Strategy is the Name of the strategy that produced Table.
	Strategy string
	Rows     int
}

// Reconciler runs Strategies in order.
type Reconciler struct {
	Strategies []Strategy
	// Provenance overrides ProvenanceColumn when non-empty.
	Provenance string
	Logger     Logger
}

// NewReconciler returns a Reconciler with DefaultStrategies(opt).
func NewReconciler(opt Options, logger Logger) *Reconciler {
	return &Reconciler{
		Strategies: DefaultStrategies(opt),
		Provenance: opt.provenance(),
		Logger:     logger,
	}
}

// Merge merges inputs. Inputs with no rows are skipped. Every row of the
// result carries its input's Name in the provenance column, and any column
// whose cells mix kinds is converted to text.
//
// Errors:
//   - ErrMergeUnavailable (wrapped) when nothing is left to merge or every
//     strategy degraded.
//   - ctx.Err() when ctx is done before a strategy runs.
//   - Any non-degrade error from a strategy, returned as is.
func (r *Reconciler) Merge(ctx context.Context, inputs []Input) (Result, error) {
	logf := r.logger()
	prov := r.Provenance
	if prov == "" {
		prov = ProvenanceColumn
	}

	var ready []Input
	for _, in := range inputs {
		if in.Table == nil || in.Table.Len() == 0 {
			logf("stage=merge skip file=%q reason=empty", in.Name)
			continue
		}
		ready = append(ready, Input{Name: in.Name, Table: withProvenance(in.Table, prov, in.Name)})
	}
	if len(ready) == 0 {
		return Result{}, fmt.Errorf("%w: no non-empty inputs", ErrMergeUnavailable)
	}

	var lastErr error
	for _, s := range r.Strategies {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		start := time.Now()
		out, err := s.Merge(ready)
		if err != nil {
			var degraded *MergeDegradedError
			if !errors.As(err, &degraded) {
				return Result{}, err
			}
			logf("stage=merge strategy=%s degraded reason=%q duration=%s", s.Name(), degraded.Reason, durMS(start))
			lastErr = err
			continue
		}
		converted := ResolveKinds(out)
		logf("stage=merge strategy=%s ok inputs=%d rows=%d columns=%d text_columns=%d duration=%s",
			s.Name(), len(ready), out.Len(), len(out.Columns), converted, durMS(start))
		return Result{Table: out, Strategy: s.Name(), Rows: out.Len()}, nil
	}
	if lastErr == nil {
		return Result{}, fmt.Errorf("%w: no strategies configured", ErrMergeUnavailable)
	}
	return Result{}, fmt.Errorf("%w: %v", ErrMergeUnavailable, lastErr)
}

func (r *Reconciler) logger() func(format string, v ...any) {
	if r.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return r.Logger.Printf
}

// withProvenance returns a copy of t whose provenance column is filled with
// name wherever it is absent or Missing.
func withProvenance(t *table.Table, col, name string) *table.Table {
	out := t.Clone()
	i := out.Index(col)
	if i < 0 {
		out.AddColumn(col, table.Str(name))
		return out
	}
	for _, row := range out.Rows {
		if row[i].IsMissing() {
			row[i] = table.Str(name)
		}
	}
	return out
}

// ResolveKinds converts every column of t whose non-missing cells carry more
// than one kind to text, in place. It returns how many columns changed.
func ResolveKinds(t *table.Table) int {
	converted := 0
	for c := range t.Columns {
		var seen table.Kind
		mixed := false
		for _, row := range t.Rows {
			k := row[c].Kind()
			if k == table.Missing {
				continue
			}
			if seen != table.Missing && k != seen {
				mixed = true
				break
			}
			seen = k
		}
		if !mixed {
			continue
		}
		for _, row := range t.Rows {
			row[c] = table.ToText(row[c])
		}
		converted++
	}
	return converted
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (n int, err error) { return len(p), nil }
