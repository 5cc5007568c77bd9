package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/multitable"
	"github.com/Odelialan/Sales-Data-Analysis/internal/report"
	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// ErrNoResults is returned by Save when no file was processed successfully.
var ErrNoResults = errors.New("pipeline: no processed files to save")

// Processing summary columns.
var summaryColumns = []string{"file_name", "total_rows", "total_columns", "is_sales_data", "total_sales", "avg_sales"}

// SaveOptions selects what Save writes. Format is a storage kind; empty
// means "csv".
type SaveOptions struct {
	Separate bool
	Combined bool
	Report   bool
	Format   string
	DSN      string
}

// Save writes the run's artifacts and returns where each went, in write
// order:
//
//   - Separate: one "<base>_processed_<ts>" table per processed file.
//   - Combined: "combined_data_<ts>", merging first when needed. A merge that
//     is unavailable is logged and skipped.
//   - Always: "processing_summary_<ts>".
//   - Report: "sales_analysis_report_<ts>.json" in dir when at least one
//     file is sales data.
//
// Write failures are returned wrapped; artifacts written before the failure
// stay on disk and are listed in the result.
func (s *Session) Save(ctx context.Context, dir string, opt SaveOptions) (written []string, err error) {
	if len(s.names) == 0 {
		return nil, ErrNoResults
	}
	kind := opt.Format
	if kind == "" {
		kind = "csv"
	}
	w, err := s.newWriter(ctx, storage.Config{Kind: kind, Dir: dir, DSN: opt.DSN})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s writer: %w", kind, cerr)
		}
	}()

	ts := s.Timestamp()
	put := func(name string, t *table.Table) error {
		where, err := w.WriteTable(ctx, name, t)
		if err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		s.logf("stage=save artifact=%s rows=%d columns=%d dest=%s", name, t.Len(), len(t.Columns), where)
		written = append(written, where)
		return nil
	}

	if opt.Separate {
		for _, n := range s.names {
			base := strings.TrimSuffix(n, filepath.Ext(n))
			if err := put(base+"_processed_"+ts, s.results[n].table); err != nil {
				return written, err
			}
		}
	}

	if opt.Combined {
		merged := s.merged
		if merged == nil {
			merged, err = s.Merge(ctx)
			if errors.Is(err, multitable.ErrMergeUnavailable) {
				s.logf("stage=save artifact=combined skipped=true reason=%q", err)
				err = nil
			} else if err != nil {
				return written, err
			}
		}
		if merged != nil {
			if err := put("combined_data_"+ts, merged); err != nil {
				return written, err
			}
		}
	}

	if err := put("processing_summary_"+ts, s.summaryTable()); err != nil {
		return written, err
	}

	if opt.Report {
		path, ok, err := s.writeReport(dir, ts)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, path)
		}
	}
	return written, nil
}

func (s *Session) summaryTable() *table.Table {
	t := table.New(summaryColumns)
	for _, sum := range s.Summaries() {
		row := []table.Value{
			table.Str(sum.FileName),
			table.Num(float64(sum.TotalRows)),
			table.Num(float64(sum.TotalColumns)),
			table.Str(fmt.Sprintf("%t", sum.IsSalesData)),
			table.Null(),
			table.Null(),
		}
		if sum.Sales != nil {
			row[4] = table.Num(sum.Sales.Total)
			row[5] = table.Num(sum.Sales.Mean)
		}
		t.AppendRow(row)
	}
	return t
}

func (s *Session) writeReport(dir, ts string) (string, bool, error) {
	r, ok := report.Build(s.Summaries(), s.RunID, s.Started)
	if !ok {
		s.logf("stage=save artifact=report skipped=true reason=%q", "no sales data")
		return "", false, nil
	}
	path, err := storage.FilePath(dir, "sales_analysis_report_"+ts, ".json")
	if err != nil {
		return "", false, err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", false, fmt.Errorf("save report: %w", err)
	}
	if err := report.Write(f, r); err != nil {
		_ = f.Close()
		return "", false, fmt.Errorf("save report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", false, fmt.Errorf("save report: %w", err)
	}
	s.logf("stage=save artifact=report dest=%s", path)
	return path, true, nil
}
