package schema

import "strings"

// Default destination table names.
const (
	DefaultMarketTable   = "fact_market"
	DefaultClimateTable  = "fact_climate"
	DefaultCalendarTable = "dim_calendar"
)

// Column is one destination column. Type is a logical type ("date",
// "numeric", "text", "int", "bool") mapped to SQL by each storage dialect.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// FactTable is a date-keyed destination table. Rows are created or
// overwritten on ConflictKey, never deleted.
type FactTable struct {
	Name        string
	Columns     []Column
	ConflictKey string
}

// ColumnNames returns the column names in declaration order; this is the
// order every row passed to storage must follow.
func (t FactTable) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// UpdateColumns returns every column except the conflict key.
func (t FactTable) UpdateColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == t.ConflictKey {
			continue
		}
		out = append(out, c.Name)
	}
	return out
}

// ColumnIndex returns the position of name, or -1.
func (t FactTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func orDefault(name, def string) string {
	if s := strings.TrimSpace(name); s != "" {
		return s
	}
	return def
}

// MarketTable describes the market fact table. An empty name selects
// DefaultMarketTable.
func MarketTable(name string) FactTable {
	return FactTable{
		Name: orDefault(name, DefaultMarketTable),
		Columns: []Column{
			{Name: string(DateKey), Type: "date"},
			{Name: string(FXRate), Type: "numeric", Nullable: true},
			{Name: string(EquityPrice), Type: "numeric", Nullable: true},
			{Name: string(CattlePrice), Type: "numeric", Nullable: true},
		},
		ConflictKey: string(DateKey),
	}
}

// ClimateTable describes the climate fact table.
func ClimateTable(name string) FactTable {
	return FactTable{
		Name: orDefault(name, DefaultClimateTable),
		Columns: []Column{
			{Name: string(DateKey), Type: "date"},
			{Name: string(MaxTemp), Type: "numeric", Nullable: true},
			{Name: string(RainfallMM), Type: "numeric", Nullable: true},
			{Name: string(Location), Type: "text"},
		},
		ConflictKey: string(DateKey),
	}
}

// CalendarTable describes the calendar dimension.
func CalendarTable(name string) FactTable {
	return FactTable{
		Name: orDefault(name, DefaultCalendarTable),
		Columns: []Column{
			{Name: "date_key", Type: "date"},
			{Name: "year", Type: "int"},
			{Name: "month", Type: "int"},
			{Name: "day", Type: "int"},
			{Name: "weekday", Type: "int"},
			{Name: "is_business_day", Type: "bool"},
		},
		ConflictKey: "date_key",
	}
}

// TableFor returns the fact table of kind under the given name.
func TableFor(k Kind, name string) FactTable {
	if k == Climate {
		return ClimateTable(name)
	}
	return MarketTable(name)
}
