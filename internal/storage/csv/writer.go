// Package csv writes tables as UTF-8 CSV files with a byte order mark, so
// spreadsheet tools detect the encoding of non-ASCII text.
package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

const Kind = "csv"

var bom = []byte{0xEF, 0xBB, 0xBF}

func init() {
	storage.Register(Kind, New)
}

type Writer struct {
	dir string
}

func New(_ context.Context, cfg storage.Config) (storage.Writer, error) {
	return &Writer{dir: cfg.Dir}, nil
}

// WriteTable writes <dir>/<name>.csv, replacing any existing file.
func (w *Writer) WriteTable(ctx context.Context, name string, t *table.Table) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := storage.FilePath(w.dir, name, ".csv")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("csv: create %s: %w", path, err)
	}
	if err := Encode(f, t); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("csv: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("csv: close %s: %w", path, err)
	}
	return path, nil
}

func (w *Writer) Close() error { return nil }

// Encode writes the BOM, the header and every row of t to w. Missing cells
// are written as empty fields.
func Encode(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(bom); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}
	cw := csv.NewWriter(bw)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for c, v := range row {
			rec[c] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}
