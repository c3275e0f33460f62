package ddl

import (
	"context"

	gddl "agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// Dialect renders CREATE TABLE IF NOT EXISTS with backtick quoting.
var Dialect = gddl.Dialect{
	Name:       "mysql ddl",
	QuoteIdent: gddl.QuoteBacktick,
	MapType:    MapType,
}

// BuildCreateTableSQL returns the MySQL CREATE TABLE statement for t.
func BuildCreateTableSQL(t schema.FactTable) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromTable(t, Dialect), Dialect)
}

// Execer is the subset of storage.Repository needed to apply DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates t if it does not exist.
func EnsureTable(ctx context.Context, repo Execer, t schema.FactTable) error {
	sql, err := BuildCreateTableSQL(t)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
