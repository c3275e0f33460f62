// Package mysql implements the MySQL backend on go-sql-driver/mysql. A batch
// is one multi-row INSERT ... ON DUPLICATE KEY UPDATE statement, which MySQL
// applies atomically on InnoDB.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver form, e.g. "user:pass@tcp(localhost:3306)/agro".
	DSN string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository parses the DSN, opens a pool and pings it.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	// DATE columns come back as time.Time.
	mc.ParseTime = true

	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(conn)
	db.SetConnMaxLifetime(3 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// UpsertSQL renders a multi-row statement for n rows:
//
//	INSERT INTO `t` (`date_key`, `a`) VALUES (?, ?), (?, ?)
//	ON DUPLICATE KEY UPDATE `a` = VALUES(`a`)
func UpsertSQL(t schema.FactTable, n int) string {
	cols := t.ColumnNames()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = ddl.QuoteBacktick(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	tuples := make([]string, n)
	for i := range tuples {
		tuples[i] = tuple
	}

	sets := make([]string, 0, len(cols))
	for _, c := range t.UpdateColumns() {
		q := ddl.QuoteBacktick(c)
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
	}
	if len(sets) == 0 {
		// No-op update keeps the statement valid for key-only tables.
		k := ddl.QuoteBacktick(t.ConflictKey)
		sets = append(sets, fmt.Sprintf("%s = %s", k, k))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON DUPLICATE KEY UPDATE %s",
		ddl.QuoteFQN(t.Name, ddl.QuoteBacktick),
		strings.Join(quoted, ", "),
		strings.Join(tuples, ", "),
		strings.Join(sets, ", "),
	)
}

// Upsert writes the whole batch with one statement.
func (r *Repository) Upsert(ctx context.Context, t schema.FactTable, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	width := len(t.Columns)
	args := make([]any, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return 0, fmt.Errorf("row %d: length %d != columns length %d", i+1, len(row), width)
		}
		args = append(args, row...)
	}

	res, err := r.db.ExecContext(ctx, UpsertSQL(t, len(rows)), args...)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) {
			return 0, fmt.Errorf("mysql %d: %s", me.Number, me.Message)
		}
		return 0, fmt.Errorf("upsert: %w", err)
	}
	// MySQL reports 2 affected rows per updated row.
	n, _ := res.RowsAffected()
	return n, nil
}

// Exec implements storage.Repository.Exec for MySQL.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, sql)
	return err
}
