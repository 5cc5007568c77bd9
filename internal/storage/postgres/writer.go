package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"
	"github.com/Odelialan/Sales-Data-Analysis/internal/table"
)

const Kind = "postgres"

func init() {
	storage.Register(Kind, New)
}

// Writer stores tables in Postgres using COPY.
type Writer struct {
	pool *pgxpool.Pool
}

// New creates a connection pool for cfg.DSN and checks connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Writer{pool: pool}, nil
}

func (w *Writer) Close() error {
	w.pool.Close()
	return nil
}

// WriteTable creates the table when missing and loads every row with a
// single COPY inside one transaction.
func (w *Writer) WriteTable(ctx context.Context, name string, t *table.Table) (string, error) {
	tbl := storage.NormalizeName(name)
	kinds := storage.ColumnKinds(t)

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, buildCreateSQL(tbl, t.Columns, kinds)); err != nil {
		return "", fmt.Errorf("postgres: create %s: %w", tbl, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{tbl}, t.Columns, pgx.CopyFromRows(copyRows(t, kinds)))
	if err != nil {
		return "", fmt.Errorf("postgres: copy %s: %w", tbl, err)
	}
	if n != int64(t.Len()) {
		return "", fmt.Errorf("postgres: copy %s: wrote %d of %d rows", tbl, n, t.Len())
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return Kind + ":" + tbl, nil
}

func copyRows(t *table.Table, kinds []storage.ColumnKind) [][]any {
	out := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = storage.Args(row, kinds)
	}
	return out
}

// pgIdent returns a double-quoted identifier, escaping embedded quotes.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func pgType(k storage.ColumnKind) string {
	switch k {
	case storage.ColumnNumber:
		return "DOUBLE PRECISION"
	case storage.ColumnDate:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// buildCreateSQL returns an idempotent CREATE TABLE statement. It is pure
// so the DDL can be tested without a database.
func buildCreateSQL(tbl string, columns []string, kinds []storage.ColumnKind) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgIdent(tbl))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
		b.WriteString(" ")
		b.WriteString(pgType(kinds[i]))
	}
	b.WriteString(");")
	return b.String()
}
