// Package mssql writes tables to Microsoft SQL Server through database/sql.
//
// The package does not import a driver. Import internal/storage/all (or
// github.com/microsoft/go-mssqldb directly) so "sqlserver" is registered.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

const Kind = "mssql"

// maxParams stays under SQL Server's 2100 parameters per request.
const maxParams = 2000

func init() {
	storage.Register(Kind, New)
}

type Writer struct {
	db *sql.DB
}

// New opens cfg.DSN with the "sqlserver" driver and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mssql: DSN is required")
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Writer{db: db}, nil
}

func (w *Writer) Close() error { return w.db.Close() }

// WriteTable creates the table when missing and inserts rows in chunks
// that respect the parameter limit, all in one transaction.
func (w *Writer) WriteTable(ctx context.Context, name string, t *table.Table) (string, error) {
	tbl := storage.NormalizeName(name)
	kinds := storage.ColumnKinds(t)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, wrapCreateIfMissing(tbl, columnDefs(t.Columns, kinds))); err != nil {
		return "", fmt.Errorf("mssql: create %s: %w", tbl, err)
	}

	per := rowsPerStatement(len(t.Columns))
	for start := 0; start < len(t.Rows); start += per {
		end := min(start+per, len(t.Rows))
		q, args := buildBulkInsertSQL(tbl, t.Columns, kinds, t.Rows[start:end])
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return "", fmt.Errorf("mssql: insert %s rows %d-%d: %w", tbl, start, end-1, err)
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
	return max(1, maxParams/cols)
}

// wrapCreateIfMissing wraps a CREATE TABLE statement in an OBJECT_ID guard.
//
// This keeps table creation idempotent without requiring IF NOT EXISTS syntax.
func wrapCreateIfMissing(tableName string, innerDefs string) string {
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		strings.ReplaceAll(tableName, "'", "''"),
		mssqlIdent(tableName),
		innerDefs,
	)
}

func columnDefs(columns []string, kinds []storage.ColumnKind) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = mssqlIdent(c) + " " + mssqlType(kinds[i])
	}
	return strings.Join(defs, ", ")
}

func mssqlType(k storage.ColumnKind) string {
	switch k {
	case storage.ColumnNumber:
		return "FLOAT"
	case storage.ColumnDate:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// buildBulkInsertSQL builds a single INSERT ... VALUES statement for rows
// with @pN placeholders.
func buildBulkInsertSQL(tbl string, columns []string, kinds []storage.ColumnKind, rows [][]table.Value) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlIdent(tbl))
	b.WriteString(" (")

	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("@p%d", p))
			p++
		}
		b.WriteString(")")
		args = append(args, storage.Args(row, kinds)...)
	}

	return b.String(), args
}

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
