package ddl

import (
	"fmt"

	gddl "agroetl/internal/ddl"
	"agroetl/internal/schema"
)

// Dialect uses bracket quoting and wraps CREATE TABLE in an
// IF OBJECT_ID(...) IS NULL guard, since T-SQL has no CREATE TABLE IF NOT
// EXISTS.
var Dialect = gddl.Dialect{
	Name:       "mssql ddl",
	QuoteIdent: gddl.QuoteBracket,
	MapType:    MapType,
	Guard: func(fqn, cols string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			fqn, fqn, cols,
		)
	},
}

// BuildCreateTableSQL returns a T-SQL script that creates t if it does not
// already exist.
func BuildCreateTableSQL(t schema.FactTable) (string, error) {
	return gddl.BuildCreateTableSQL(gddl.FromTable(t, Dialect), Dialect)
}
