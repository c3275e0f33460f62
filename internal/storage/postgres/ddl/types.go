// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "strings"

// MapType normalizes a logical type into a Postgres SQL type.
//
//	"int"/"integer"       -> INTEGER
//	"bool"/"boolean"      -> BOOLEAN
//	"date"                -> DATE
//	"numeric"/"decimal"   -> NUMERIC(18,4)
//	everything else       -> TEXT
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
		return "NUMERIC(18,4)"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}
