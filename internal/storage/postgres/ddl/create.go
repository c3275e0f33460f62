package ddl

import (
	gddl "agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// Dialect renders CREATE TABLE IF NOT EXISTS with double-quoted identifiers.
var Dialect = gddl.Dialect{
	Name:       "postgres ddl",
	QuoteIdent: gddl.QuoteDouble,
	MapType:    MapType,
}

// BuildCreateTableSQL returns the Postgres CREATE TABLE statement for t.
func BuildCreateTableSQL(t schema.FactTable) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromTable(t, Dialect), Dialect)
}
