package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

// ColumnKind is the storage type chosen for a whole column.
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnNumber
	ColumnDate
)

// ColumnKinds picks one kind per column: Number or Date when every
// non-missing cell has that kind, Text otherwise. All-missing columns are Text.
func ColumnKinds(t *table.Table) []ColumnKind {
	out := make([]ColumnKind, len(t.Columns))
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
		switch {
		case mixed:
			out[c] = ColumnText
		case seen == table.Number:
			out[c] = ColumnNumber
		case seen == table.Date:
			out[c] = ColumnDate
		default:
			out[c] = ColumnText
		}
	}
	return out
}

// Args converts one row to driver arguments for a column laid out by kinds:
// Missing becomes nil, numbers float64, dates time.Time, and anything in a
// Text column its string form.
func Args(row []table.Value, kinds []ColumnKind) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if v.IsMissing() {
			continue
		}
		if kinds[i] == ColumnText {
			out[i] = v.String()
			continue
		}
		out[i] = v.Any()
	}
	return out
}

// NormalizeName turns an artifact name into a portable SQL table name:
// lower case, separators mapped to '_', other characters dropped.
//
//	"combined_data_20240102_150405" -> "combined_data_20240102_150405"
//	"Q1 Sales.v2"                   -> "q1_sales_v2"
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.', r == '/', r == '\\', r == ':', r == ';':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "t"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	return out
}

// FilePath joins dir, name and ext and creates dir when missing.
func FilePath(dir, name, ext string) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, name+ext), nil
}

// EnsureDir creates dir and its parents; "" means the working directory.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create dir: %w", err)
	}
	return nil
}
