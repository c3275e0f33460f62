// Package ddl contains DuckDB-specific DDL helpers.
package ddl

import (
	"context"
	"strings"

	gddl "agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// MapType maps a logical type into a DuckDB column type.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INTEGER"
	case "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "numeric", "decimal":
		return "DECIMAL(18,4)"
	default:
		return "VARCHAR"
	}
}

// Dialect renders CREATE TABLE IF NOT EXISTS with double-quoted identifiers.
var Dialect = gddl.Dialect{
	Name:       "duckdb ddl",
	QuoteIdent: gddl.QuoteDouble,
	MapType:    MapType,
}

// BuildCreateTableSQL returns the DuckDB CREATE TABLE statement for t.
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
