// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import "strings"

// MapType maps a logical type string into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(200).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer":
		return "INT"
	case "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME2"
	case "numeric", "decimal":
		return "DECIMAL(18, 4)"
	default:
		return "NVARCHAR(200)"
	}
}
