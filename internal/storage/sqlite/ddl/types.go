// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical column type into a SQLite column type.
//
// SQLite is dynamically typed, so this picks affinities:
//   - date    -> TEXT (ISO-8601, sorts lexically)
//   - numeric -> NUMERIC
//   - int     -> INTEGER
//   - bool    -> INTEGER (0/1)
//   - others  -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
