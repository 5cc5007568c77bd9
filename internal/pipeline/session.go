// Package pipeline drives one run: every file goes through load, map, clean
// and summarize in scan order, then the cleaned tables are merged and saved.
//
// All run state lives on a Session. Nothing is shared between sessions, so
// tests and concurrent runs can each own one. A Session itself is not safe
// for concurrent use; it is driven from one goroutine, file by file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Odelialan/Sales-Data-Analysis/internal/loader"
	"github.com/Odelialan/Sales-Data-Analysis/internal/metrics"
	"github.com/Odelialan/Sales-Data-Analysis/internal/multitable"
	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/summary"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
	"github.com/Odelialan/Sales-Data-Analysis/internal/transformer"
)

// TimestampLayout formats the run timestamp embedded in output names.
const TimestampLayout = "20060102_150405"

// Logger is the minimal logging interface used by the session.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// ProgressFunc is called synchronously by ProcessMany; it must return quickly.
type ProgressFunc func(done, total int, msg string)

// Options configures a Session. The zero value is usable.
type Options struct {
	Encodings       []string
	Collision       schema.Collision
	MaxUnionColumns int
	Logger          Logger
	// Now overrides time.Now for the run timestamp.
	Now func() time.Time
	// NewWriter overrides storage.New in Save.
	NewWriter storage.Factory
}

// Outcome records how one file went. Err is nil when OK.
type Outcome struct {
	Path        string
	OK          bool
	Err         error
	Rows        int
	Columns     int
	Encoding    string
	IsSalesData bool
}

type fileResult struct {
	table   *table.Table
	summary summary.FileSummary
}

// Session holds the results of one run.
type Session struct {
	RunID   string
	Started time.Time

	loadOpt    loader.Options
	mapper     schema.Mapper
	reconciler *multitable.Reconciler
	newWriter  storage.Factory
	logf       func(format string, v ...any)

	// names keeps processed files in first-seen order.
	names    []string
	results  map[string]fileResult
	outcomes []Outcome

	merged         *table.Table
	mergedStrategy string
}

func NewSession(opt Options) *Session {
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	logger := opt.Logger
	if logger == nil {
		logger = log.New(discardWriter{}, "", 0)
	}
	newWriter := opt.NewWriter
	if newWriter == nil {
		newWriter = storage.New
	}
	return &Session{
		RunID:      uuid.NewString(),
		Started:    now(),
		loadOpt:    loader.Options{Encodings: opt.Encodings},
		mapper:     schema.Mapper{Collision: opt.Collision},
		reconciler: multitable.NewReconciler(multitable.Options{MaxColumns: opt.MaxUnionColumns}, logger),
		newWriter:  newWriter,
		logf:       logger.Printf,
		results:    map[string]fileResult{},
	}
}

// Timestamp is the run timestamp used in output names.
func (s *Session) Timestamp() string { return s.Started.Format(TimestampLayout) }

// ProcessOne loads, maps, cleans and summarizes one file and keeps the result
// under the file's base name. A later file with the same base name replaces
// the earlier result.
func (s *Session) ProcessOne(ctx context.Context, path string) (*table.Table, summary.FileSummary, error) {
	t, sum, _, err := s.process(ctx, path)
	return t, sum, err
}

func (s *Session) process(ctx context.Context, path string) (*table.Table, summary.FileSummary, loader.Info, error) {
	var info loader.Info
	if err := ctx.Err(); err != nil {
		return nil, summary.FileSummary{}, info, err
	}
	name := filepath.Base(path)
	start := time.Now()

	step := time.Now()
	raw, info, err := loader.Load(path, s.loadOpt)
	metrics.RecordStep("load", status(err), time.Since(step))
	if err != nil {
		return nil, summary.FileSummary{}, info, err
	}
	metrics.RecordRows(metrics.RowsLoaded, raw.Len())

	step = time.Now()
	mapped, mapping, err := s.mapper.Map(raw, name)
	metrics.RecordStep("map", status(err), time.Since(step))
	if err != nil {
		return nil, summary.FileSummary{}, info, err
	}
	for _, p := range mapping.Renamed() {
		s.logf("stage=map file=%q from=%q to=%q", name, p.From, p.To)
	}

	step = time.Now()
	cleaned, rep := transformer.Clean(mapped)
	metrics.RecordStep("clean", "ok", time.Since(step))
	metrics.RecordRows(metrics.RowsCleaned, cleaned.Len())
	metrics.RecordRows(metrics.RowsDuplicates, rep.DuplicatesDropped)
	metrics.RecordRows(metrics.RowsClamped, rep.QuantityClamped)
	s.logf("stage=clean file=%q mode=%s rows_in=%d rows_out=%d price_filled=%d region_filled=%d duplicates=%d dates_unparsed=%d numbers_unparsed=%d clamped=%d upper_bound=%g",
		name, rep.Mode, rep.RowsIn, rep.RowsOut, rep.PriceFilled, rep.RegionFilled, rep.DuplicatesDropped,
		rep.DatesUnparsed, rep.NumbersUnparsed, rep.QuantityClamped, rep.UpperBound)

	step = time.Now()
	sum := summary.Summarize(cleaned, name)
	metrics.RecordStep("summarize", "ok", time.Since(step))

	if _, seen := s.results[name]; !seen {
		s.names = append(s.names, name)
	} else {
		s.logf("stage=process file=%q replaced=true", name)
	}
	s.results[name] = fileResult{table: cleaned, summary: sum}
	s.merged = nil

	s.logf("stage=process file=%q encoding=%s rows=%d columns=%d sales=%t duration=%s",
		name, info.Encoding, cleaned.Len(), len(cleaned.Columns), sum.IsSalesData, durMS(start))
	return cleaned, sum, info, nil
}

// ProcessMany processes paths in order and returns one outcome per file
// name. A failing file is recorded and the batch continues. progress may be
// nil; it is called before each file and once at the end, where done ==
// total unless ctx was cancelled.
//
// When ctx is cancelled no further file is started; files not reached are
// absent from the result.
func (s *Session) ProcessMany(ctx context.Context, paths []string, progress ProgressFunc) map[string]Outcome {
	if progress == nil {
		progress = func(int, int, string) {}
	}
	out := make(map[string]Outcome, len(paths))
	total := len(paths)
	done := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			s.logf("stage=process stopped=true done=%d total=%d err=%v", done, total, err)
			break
		}
		name := filepath.Base(path)
		progress(done, total, fmt.Sprintf("processing %s", name))

		t, sum, info, err := s.process(ctx, path)
		oc := Outcome{Path: path, Encoding: info.Encoding}
		if err != nil {
			oc.Err = err
			metrics.RecordFile("error")
			s.logf("stage=process file=%q error=%q", name, err)
		} else {
			oc.OK = true
			oc.Rows = t.Len()
			oc.Columns = len(t.Columns)
			oc.IsSalesData = sum.IsSalesData
			metrics.RecordFile("ok")
		}
		out[name] = oc
		s.outcomes = append(s.outcomes, oc)
		done++
	}
	progress(done, total, "done")
	return out
}

// Outcomes returns every outcome recorded by ProcessMany, in order.
func (s *Session) Outcomes() []Outcome {
	return append([]Outcome(nil), s.outcomes...)
}

// Files returns the names of processed files in first-seen order.
func (s *Session) Files() []string {
	return append([]string(nil), s.names...)
}

// Summaries returns the summaries of processed files in first-seen order.
func (s *Session) Summaries() []summary.FileSummary {
	out := make([]summary.FileSummary, len(s.names))
	for i, n := range s.names {
		out[i] = s.results[n].summary
	}
	return out
}

// Cleaned returns the cleaned table of one processed file.
func (s *Session) Cleaned(name string) (*table.Table, bool) {
	r, ok := s.results[name]
	return r.table, ok
}

// Merge merges every processed table and keeps the result until the next
// file is processed. It returns an error wrapping
// multitable.ErrMergeUnavailable when nothing could be merged.
func (s *Session) Merge(ctx context.Context) (*table.Table, error) {
	inputs := make([]multitable.Input, len(s.names))
	for i, n := range s.names {
		inputs[i] = multitable.Input{Name: n, Table: s.results[n].table}
	}

	start := time.Now()
	res, err := s.reconciler.Merge(ctx, inputs)
	metrics.RecordStep("merge", status(err), time.Since(start))
	if err != nil {
		s.merged, s.mergedStrategy = nil, ""
		if errors.Is(err, multitable.ErrMergeUnavailable) {
			metrics.RecordMerge("unavailable")
		}
		return nil, err
	}
	metrics.RecordMerge(res.Strategy)
	metrics.RecordRows(metrics.RowsMerged, res.Rows)
	s.merged, s.mergedStrategy = res.Table, res.Strategy
	return res.Table, nil
}

// MergeStrategy names the strategy behind the last successful Merge.
func (s *Session) MergeStrategy() string { return s.mergedStrategy }

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func durMS(start time.Time) string {
	return fmt.Sprintf("%dms", time.Since(start).Milliseconds())
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
