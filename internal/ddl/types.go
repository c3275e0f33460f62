package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, DATE, NUMERIC(18,4))
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (FQN) and an ordered list of columns. The FQN
// may be dotted ("schema.table"); each segment is quoted separately.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect is what a backend contributes to DDL rendering.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite ddl".
	Name string

	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string

	// MapType maps a logical column type to SQL.
	MapType func(string) string

	// Guard wraps a CREATE TABLE body so it only runs when the table is
	// missing. When nil, "CREATE TABLE IF NOT EXISTS" is emitted.
	Guard func(quotedFQN, columns string) string
}
