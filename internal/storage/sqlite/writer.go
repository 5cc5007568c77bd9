package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

const Kind = "sqlite"

// DefaultFile is the database file created under Config.Dir when no DSN is set.
const DefaultFile = "sales.db"

// maxVars bounds the bind variables per INSERT statement.
const maxVars = 999

// Writer stores each table in its own SQLite table.
//
// SQLite has no native timestamp type, so dates are stored as TEXT in
// RFC3339 form via the driver's time.Time handling.
type Writer struct {
	db  *sql.DB
	dsn string
}

func init() {
	storage.Register(Kind, New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	dsn := cfg.DSN
	if dsn == "" {
		if err := storage.EnsureDir(cfg.Dir); err != nil {
			return nil, err
		}
		dsn = filepath.Join(cfg.Dir, DefaultFile)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Writer{db: db, dsn: dsn}, nil
}

func (w *Writer) Close() error { return w.db.Close() }

// WriteTable creates the table when missing and inserts every row in one
// transaction.
func (w *Writer) WriteTable(ctx context.Context, name string, t *table.Table) (string, error) {
	tbl := storage.NormalizeName(name)
	kinds := storage.ColumnKinds(t)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, buildCreateSQL(tbl, t.Columns, kinds)); err != nil {
		return "", fmt.Errorf("sqlite: create %s: %w", tbl, err)
	}

	per := rowsPerStatement(len(t.Columns))
	for start := 0; start < len(t.Rows); start += per {
		end := min(start+per, len(t.Rows))
		q, args := buildInsertSQL(tbl, t.Columns, kinds, t.Rows[start:end])
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return "", fmt.Errorf("sqlite: insert %s rows %d-%d: %w", tbl, start, end-1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return Kind + ":" + tbl, nil
}

func rowsPerStatement(cols int) int {
	if cols == 0 {
		return 1
	}
	return max(1, maxVars/cols)
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func sqlType(k storage.ColumnKind) string {
	switch k {
	case storage.ColumnNumber:
		return "REAL"
	default:
		return "TEXT"
	}
}

// buildCreateSQL returns an idempotent CREATE TABLE statement.
func buildCreateSQL(tbl string, columns []string, kinds []storage.ColumnKind) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = sqlIdent(c) + " " + sqlType(kinds[i])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", sqlIdent(tbl), strings.Join(defs, ", "))
}

// buildInsertSQL builds a multi-row INSERT with positional placeholders.
func buildInsertSQL(tbl string, columns []string, kinds []storage.ColumnKind, rows [][]table.Value) (string, []any) {
	colList := make([]string, len(columns))
	for i, c := range columns {
		colList[i] = sqlIdent(c)
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(tbl))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		args = append(args, storage.Args(row, kinds)...)
	}
	return b.String(), args
}
