package ddl

import (
	"context"

	"agroetl/internal/schema"
)

// Execer is the subset of storage.Repository needed to apply DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates the target Postgres table if it does not exist.
func EnsureTable(ctx context.Context, repo Execer, t schema.FactTable) error {
	sql, err := BuildCreateTableSQL(t)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
