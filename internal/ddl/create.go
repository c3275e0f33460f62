// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// create-if-missing statements for the date-keyed tables.
//
// Backend packages (internal/storage/<backend>/ddl) supply a Dialect: identifier
// quoting, logical type mapping and, where the dialect lacks IF NOT EXISTS, a
// guard. ColumnDef.Default is emitted as raw SQL.
package ddl

import (
	"fmt"
	"strings"

	"agroetl/internal/schema"
)

// FromTable converts a FactTable into a TableDef using d.MapType. The
// conflict key becomes the primary key.
func FromTable(t schema.FactTable, d Dialect) TableDef {
	def := TableDef{FQN: t.Name, Columns: make([]ColumnDef, 0, len(t.Columns))}
	for _, c := range t.Columns {
		key := c.Name == t.ConflictKey
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c.Name,
			SQLType:    d.MapType(c.Type),
			Nullable:   c.Nullable && !key,
			PrimaryKey: key,
		})
	}
	return def
}

// BuildCreateTableSQL renders t in dialect d:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk1")
//	);
//
// or the dialect's Guard around the same column list.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	name := d.Name
	if name == "" {
		name = "ddl"
	}
	quote := d.QuoteIdent
	if quote == nil {
		quote = QuoteDouble
	}

	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		col := strings.TrimSpace(c.Name)
		if col == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", name, col)
		}

		var sb strings.Builder
		sb.WriteString(quote(col))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(col))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := QuoteFQN(fqn, quote)
	if d.Guard != nil {
		return d.Guard(quoted, strings.Join(cols, ",\n    ")), nil
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoted,
		strings.Join(cols, ",\n  "),
	), nil
}

// QuoteDouble quotes an identifier with ANSI double quotes.
func QuoteDouble(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteBracket quotes an identifier for SQL Server: weird]id -> [weird]]id].
func QuoteBracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteBacktick quotes an identifier for MySQL.
func QuoteBacktick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// QuoteFQN quotes each dot-separated segment of fqn with quote:
//
//	"dbo.Users" -> [dbo].[Users]
func QuoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}
