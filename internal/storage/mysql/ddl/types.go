// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical type into a MySQL column type. Text columns are
// bounded VARCHARs so they stay indexable.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "TINYINT(1)"
	case "date":
		return "DATE"
	case "timestamp", "datetime":
		return "DATETIME(6)"
	case "numeric", "decimal":
		return "DECIMAL(18,4)"
	default:
		return "VARCHAR(200)"
	}
}
