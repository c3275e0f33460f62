// Package duckdb implements a local analytical warehouse backend on
// marcboeker/go-duckdb. Each batch runs in one transaction with a prepared
// INSERT ... ON CONFLICT DO UPDATE statement.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // Driver

	"agroetl/internal/ddl"
	"agroetl/internal/schema"
	duckddl "agroetl/internal/storage/duckdb/ddl"
)

// Config holds DuckDB repository configuration.
type Config struct {
	// DSN is a database file path; empty opens an in-memory database.
	DSN string
}

// Repository is a DuckDB-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database file and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// UpsertSQL renders the per-row statement. Placeholders are cast to the
// column type because DuckDB binds untyped string parameters as VARCHAR.
func UpsertSQL(t schema.FactTable) string {
	cols := make([]string, len(t.Columns))
	vals := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ddl.QuoteDouble(c.Name)
		vals[i] = fmt.Sprintf("CAST(? AS %s)", duckddl.MapType(c.Type))
	}
	sets := make([]string, 0, len(t.Columns))
	for _, c := range t.UpdateColumns() {
		q := ddl.QuoteDouble(c)
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", q, q))
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		ddl.QuoteFQN(t.Name, ddl.QuoteDouble),
		strings.Join(cols, ", "),
		strings.Join(vals, ", "),
		ddl.QuoteDouble(t.ConflictKey),
	)
	if len(sets) == 0 {
		return stmt + "DO NOTHING"
	}
	return stmt + "DO UPDATE SET " + strings.Join(sets, ", ")
}

// Upsert writes rows in one transaction.
func (r *Repository) Upsert(ctx context.Context, t schema.FactTable, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(t.Columns)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, UpsertSQL(t))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("duckdb: prepare: %w", err)
	}
	defer stmt.Close()

	var n int64
	for i, row := range rows {
		if len(row) != width {
			_ = tx.Rollback()
			return 0, fmt.Errorf("duckdb: row %d: length %d != columns length %d", i+1, len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("duckdb: upsert row %d: %w", i+1, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("duckdb: commit: %w", err)
	}
	return n, nil
}

// Exec executes a statement, typically DDL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("duckdb: exec: %w", err)
	}
	return nil
}
