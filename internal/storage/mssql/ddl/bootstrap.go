// Package ddl provides helpers for applying MSSQL DDL through any value with
// an Exec method (typically a storage.Repository).
package ddl

import (
	"context"

	"agroetl/internal/schema"
)

// Execer is the subset of storage.Repository needed to apply DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates the SQL Server table if it does not already exist. The
// guarded script is idempotent.
func EnsureTable(ctx context.Context, repo Execer, t schema.FactTable) error {
	sql, err := BuildCreateTableSQL(t)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
