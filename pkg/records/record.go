package records

import (
	"github.com/shopspring/decimal"

	"agroetl/internal/schema"
)

// Record is one cleaned, date-keyed row ready for upsert.
type Record struct {
	// DateKey is YYYY-MM-DD and never empty in an emitted record.
	DateKey string

	// Values holds numeric fields rounded to 4 places; Valid=false is null.
	Values map[schema.Field]decimal.NullDecimal

	// Location is only set for climate records.
	Location string
}

// Value returns the numeric value of f (null when absent).
func (r Record) Value(f schema.Field) decimal.NullDecimal {
	return r.Values[f]
}

// Row renders the record aligned to columns. date_key is emitted as its
// string form, numeric fields as decimal.NullDecimal (a driver.Valuer),
// location as string. Unknown columns are nil.
func (r Record) Row(columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		switch f := schema.Field(c); {
		case f == schema.DateKey:
			out[i] = r.DateKey
		case f == schema.Location:
			out[i] = r.Location
		case schema.IsNumeric(f):
			out[i] = r.Values[f]
		}
	}
	return out
}

// Rows renders recs aligned to columns.
func Rows(recs []Record, columns []string) [][]any {
	out := make([][]any, len(recs))
	for i, r := range recs {
		out[i] = r.Row(columns)
	}
	return out
}
