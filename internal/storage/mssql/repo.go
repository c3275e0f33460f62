// Package mssql implements the Microsoft SQL Server backend on go-mssqldb.
// T-SQL has no ON CONFLICT, so each row is applied with a MERGE statement
// inside one transaction per batch.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"agroetl/internal/ddl"
	"agroetl/internal/schema"
	msddl "agroetl/internal/storage/mssql/ddl"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// MergeSQL renders the per-row statement. Parameters are @p1..@pN in
// column order, each cast to the column's SQL type:
//
//	MERGE INTO [fact_market] WITH (HOLDLOCK) AS tgt
//	USING (SELECT CAST(@p1 AS DATE) AS [date_key], ...) AS src
//	ON tgt.[date_key] = src.[date_key]
//	WHEN MATCHED THEN UPDATE SET tgt.[fx_rate] = src.[fx_rate], ...
//	WHEN NOT MATCHED THEN INSERT ([date_key], ...) VALUES (src.[date_key], ...);
func MergeSQL(t schema.FactTable) string {
	src := make([]string, len(t.Columns))
	cols := make([]string, len(t.Columns))
	vals := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		q := ddl.QuoteBracket(c.Name)
		src[i] = fmt.Sprintf("CAST(@p%d AS %s) AS %s", i+1, msddl.MapType(c.Type), q)
		cols[i] = q
		vals[i] = "src." + q
	}
	sets := make([]string, 0, len(t.Columns))
	for _, c := range t.UpdateColumns() {
		q := ddl.QuoteBracket(c)
		sets = append(sets, fmt.Sprintf("tgt.%s = src.%s", q, q))
	}
	key := ddl.QuoteBracket(t.ConflictKey)

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE INTO %s WITH (HOLDLOCK) AS tgt\n", ddl.QuoteFQN(t.Name, ddl.QuoteBracket))
	fmt.Fprintf(&b, "USING (SELECT %s) AS src\n", strings.Join(src, ", "))
	fmt.Fprintf(&b, "ON tgt.%s = src.%s\n", key, key)
	if len(sets) > 0 {
		fmt.Fprintf(&b, "WHEN MATCHED THEN UPDATE SET %s\n", strings.Join(sets, ", "))
	}
	fmt.Fprintf(&b, "WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);", strings.Join(cols, ", "), strings.Join(vals, ", "))
	return b.String()
}

// Upsert applies one MERGE per row inside a transaction.
func (r *Repository) Upsert(ctx context.Context, t schema.FactTable, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(t.Columns)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, MergeSQL(t))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare merge: %w", withNumber(err))
	}
	defer stmt.Close()

	var n int64
	for i, row := range rows {
		if len(row) != width {
			rollback()
			return 0, fmt.Errorf("row %d: length %d != columns length %d", i+1, len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			rollback()
			return 0, fmt.Errorf("merge row %d: %w", i+1, withNumber(err))
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// withNumber prefixes SQL Server errors with their error number.
func withNumber(err error) error {
	var me mssql.Error
	if errors.As(err, &me) {
		return fmt.Errorf("mssql %d: %w", me.Number, err)
	}
	return err
}

// Exec implements storage.Repository.Exec for MSSQL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, sql)
	return err
}
