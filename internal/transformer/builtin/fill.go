package builtin

import (
	"sort"

	"github.com/shopspring/decimal"

	"agroetl/internal/schema"
	"agroetl/pkg/records"
)

// SortByDate orders records by date_key. The sort is stable, so rows of the
// same day keep their input order.
type SortByDate struct{}

func (SortByDate) Apply(in []records.Record) []records.Record {
	sort.SliceStable(in, func(i, j int) bool { return in[i].DateKey < in[j].DateKey })
	return in
}

// ForwardFill replaces a null value of each listed field with the most
// recent non-null value seen earlier in the slice. Values before the first
// non-null one stay null. Input must already be in date order.
type ForwardFill struct {
	Fields []schema.Field
}

func (f ForwardFill) Apply(in []records.Record) []records.Record {
	last := make(map[schema.Field]decimal.NullDecimal, len(f.Fields))
	for i := range in {
		if in[i].Values == nil {
			in[i].Values = make(map[schema.Field]decimal.NullDecimal, len(f.Fields))
		}
		for _, field := range f.Fields {
			v := in[i].Values[field]
			if v.Valid {
				last[field] = v
				continue
			}
			if prev, ok := last[field]; ok {
				in[i].Values[field] = prev
			}
		}
	}
	return in
}
