package ddl

import (
	"strings"
	"testing"

	"agroetl/internal/schema"
)

func upperType(kind string) string {
	switch kind {
	case "date":
		return "DATE"
	case "numeric":
		return "NUMERIC(18,4)"
	case "int":
		return "INTEGER"
	case "bool":
		return "BOOLEAN"
	}
	return "TEXT"
}

var testDialect = Dialect{Name: "test ddl", QuoteIdent: QuoteDouble, MapType: upperType}

// TestBuildCreateTableSQL_Errors surfaces invalid definitions.
func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		errContains string
	}{
		{"empty FQN", TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}}, "table FQN must not be empty"},
		{"no columns", TableDef{FQN: "t"}, "at least one column is required"},
		{"empty column name", TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}}, "column with empty name"},
		{"empty type", TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}}, "missing SQLType"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildCreateTableSQL(tt.def, testDialect)
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Fatalf("err = %v, want containing %q", err, tt.errContains)
			}
			if !strings.HasPrefix(err.Error(), "test ddl: ") {
				t.Fatalf("err = %v, want dialect prefix", err)
			}
		})
	}
}

func TestBuildCreateTableSQL_Market(t *testing.T) {
	t.Parallel()

	def := FromTable(schema.MarketTable("analytics.fact_market"), testDialect)
	got, err := BuildCreateTableSQL(def, testDialect)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL error: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "analytics"."fact_market" (
  "date_key" DATE NOT NULL,
  "fx_rate" NUMERIC(18,4),
  "equity_price" NUMERIC(18,4),
  "cattle_price" NUMERIC(18,4),
  PRIMARY KEY ("date_key")
);`
	if got != want {
		t.Fatalf("SQL mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildCreateTableSQL_Guard(t *testing.T) {
	t.Parallel()

	d := testDialect
	d.QuoteIdent = QuoteBracket
	d.Guard = func(fqn, cols string) string { return "IF MISSING " + fqn + " (" + cols + ")" }
	got, err := BuildCreateTableSQL(TableDef{FQN: "dbo.t", Columns: []ColumnDef{{Name: "a", SQLType: "INT", Nullable: true}}}, d)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL error: %v", err)
	}
	if want := "IF MISSING [dbo].[t] ([a] INT)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	cases := []struct {
		got, want string
	}{
		{QuoteDouble(`we"ird`), `"we""ird"`},
		{QuoteBracket("weird]id"), "[weird]]id]"},
		{QuoteBacktick("we`ird"), "`we``ird`"},
		{QuoteFQN("a. b .c", QuoteDouble), `"a"."b"."c"`},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("got %s, want %s", c.got, c.want)
		}
	}
}

// TestFromTable_KeyNotNull: the conflict key is the primary key and never
// nullable.
func TestFromTable_KeyNotNull(t *testing.T) {
	t.Parallel()

	def := FromTable(schema.CalendarTable(""), testDialect)
	if def.FQN != "dim_calendar" {
		t.Fatalf("FQN = %q", def.FQN)
	}
	pk := def.Columns[0]
	if !pk.PrimaryKey || pk.Nullable || pk.SQLType != "DATE" {
		t.Fatalf("key column = %+v", pk)
	}
	for _, c := range def.Columns[1:] {
		if c.PrimaryKey {
			t.Fatalf("%s must not be part of the key", c.Name)
		}
	}
}
