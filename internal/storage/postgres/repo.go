// Package postgres implements the Postgres backend using pgx v5. A batch is
// queued as one pgx.Batch of INSERT ... ON CONFLICT DO UPDATE statements and
// sent inside a transaction, so it is applied entirely or not at all.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// UpsertSQL renders the per-row statement:
//
//	INSERT INTO "public"."fact_market" ("date_key", "fx_rate") VALUES ($1, $2)
//	ON CONFLICT ("date_key") DO UPDATE SET "fx_rate" = EXCLUDED."fx_rate"
func UpsertSQL(t schema.FactTable) string {
	cols := t.ColumnNames()
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		ddl.QuoteFQN(t.Name, ddl.QuoteDouble),
		strings.Join(mapIdent(cols), ", "),
		strings.Join(ph, ", "),
		ddl.QuoteDouble(t.ConflictKey),
	)
	sets := updateColumns(t.UpdateColumns())
	if len(sets) == 0 {
		return stmt + "DO NOTHING"
	}
	return stmt + "DO UPDATE SET " + strings.Join(sets, ", ")
}

// updateColumns generates a list of column updates in the format: "col = EXCLUDED.col"
func updateColumns(cols []string) []string {
	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		q := ddl.QuoteDouble(col)
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	return updates
}

// Upsert queues one statement per row and sends them as a single batch in a
// transaction.
func (r *Repository) Upsert(ctx context.Context, t schema.FactTable, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(t.Columns)
	stmt := UpsertSQL(t)

	b := &pgx.Batch{}
	for _, row := range rows {
		if len(row) != width {
			return 0, fmt.Errorf("postgres: row length %d != columns length %d", len(row), width)
		}
		b.Queue(stmt, row...)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, b)
	var total int64
	for i := 0; i < b.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("postgres: upsert row %d: %w", i+1, pgDetail(err))
		}
		total += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("postgres: close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return total, nil
}

// pgDetail folds the server-side detail into the error text.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
	}
	return err
}

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = ddl.QuoteDouble(c)
	}
	return out
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}
