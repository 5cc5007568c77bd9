// Package xlsx writes tables as single-sheet Excel workbooks.
package xlsx

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

const Kind = "xlsx"

// SheetName is the name of the only sheet written.
const SheetName = "Sheet1"

func init() {
	storage.Register(Kind, New)
}

type Writer struct {
	dir string
}

func New(_ context.Context, cfg storage.Config) (storage.Writer, error) {
	return &Writer{dir: cfg.Dir}, nil
}

// WriteTable writes <dir>/<name>.xlsx. Numbers and dates are stored as
// native cells; Missing cells are left empty.
func (w *Writer) WriteTable(ctx context.Context, name string, t *table.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := storage.FilePath(w.dir, name, ".xlsx")
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSheet(f, t); err != nil {
		return "", fmt.Errorf("xlsx: %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) Close() error { return nil }

func writeSheet(f *excelize.File, t *table.Table) error {
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v.Any()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return sw.Flush()
}
