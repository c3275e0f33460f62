// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the cgo-free modernc.org/sqlite driver. Each batch is
// upserted inside one transaction with a prepared
// INSERT ... ON CONFLICT DO UPDATE statement.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on a single
	// connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// UpsertSQL renders the statement used for one row:
//
//	INSERT INTO "t" ("date_key", "a") VALUES (?, ?)
//	ON CONFLICT ("date_key") DO UPDATE SET "a" = excluded."a"
func UpsertSQL(t schema.FactTable) string {
	cols := t.ColumnNames()
	quoted := make([]string, len(cols))
	ph := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ddl.QuoteDouble(c)
		ph[i] = "?"
	}
	sets := make([]string, 0, len(cols))
	for _, c := range t.UpdateColumns() {
		q := ddl.QuoteDouble(c)
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", q, q))
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		ddl.QuoteFQN(t.Name, ddl.QuoteDouble),
		strings.Join(quoted, ", "),
		strings.Join(ph, ", "),
		ddl.QuoteDouble(t.ConflictKey),
	)
	if len(sets) == 0 {
		return stmt + "DO NOTHING"
	}
	return stmt + "DO UPDATE SET " + strings.Join(sets, ", ")
}

// Upsert writes rows in a single transaction; any failing row rolls back the
// whole batch.
func (r *Repository) Upsert(ctx context.Context, t schema.FactTable, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(t.Columns)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, UpsertSQL(t))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, row := range rows {
		if len(row) != width {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: row length %d != columns length %d", len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: upsert: %w", err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// DB exposes the handle for read-side callers and tests.
func (r *Repository) DB() *sql.DB { return r.db }
