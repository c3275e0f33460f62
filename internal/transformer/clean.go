package transformer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"agroetl/internal/normalize"
	"agroetl/internal/schema"
	"agroetl/internal/transformer/builtin"
	"agroetl/pkg/records"
)

// DefaultLocation is used for climate rows without a location when Options
// does not name one.
const DefaultLocation = "Cuiabá"

// Options control one Clean call.
type Options struct {
	Kind schema.Kind

	// Policy overrides PolicyFor(Kind) when set.
	Policy NullPolicy

	// DefaultLocation fills empty or absent climate locations.
	DefaultLocation string

	// DedupPolicy is passed to builtin.DeDup ("keep-last" when empty).
	DedupPolicy string
}

// Result is the outcome of Clean.
type Result struct {
	Records []records.Record

	// Total is the number of input rows.
	Total int

	// Dropped counts rows removed because their date_key did not parse.
	Dropped int

	// Duplicates counts rows collapsed into a later row of the same date.
	Duplicates int

	Mapping schema.Mapping
}

// Clean maps the table header, normalizes every field, filters undated rows,
// removes same-day duplicates and applies the null policy, in that order.
// Undated rows are filtered before the policy so they never seed a fill.
//
// A header that misses a required field returns a *schema.MissingColumnsError
// and no records.
func Clean(t records.Table, opts Options) (Result, error) {
	if _, err := schema.ParseKind(string(opts.Kind)); err != nil {
		return Result{}, err
	}
	t = builtin.Normalize{}.Table(t)
	header := builtin.Normalize{}.Header(t.Columns)
	m, err := schema.MapColumns(opts.Kind, header)
	if err != nil {
		return Result{Mapping: m}, err
	}

	policy := opts.Policy
	if policy == policyUnset {
		policy = PolicyFor(opts.Kind)
	}
	loc := strings.TrimSpace(opts.DefaultLocation)
	if loc == "" {
		loc = DefaultLocation
	}

	res := Result{Total: t.Len(), Mapping: m}
	numeric := schema.NumericFields(opts.Kind)
	dateIdx := m.Index[schema.DateKey]
	locIdx, hasLoc := m.Index[schema.Location]

	recs := make([]records.Record, 0, t.Len())
	for i := range t.Rows {
		date, ok := normalize.Date(t.Cell(i, dateIdx))
		if !ok {
			res.Dropped++
			continue
		}
		rec := records.Record{
			DateKey: date,
			Values:  make(map[schema.Field]decimal.NullDecimal, len(numeric)),
		}
		for _, f := range numeric {
			idx, ok := m.Index[f]
			if !ok {
				rec.Values[f] = decimal.NullDecimal{}
				continue
			}
			rec.Values[f] = normalize.Number(t.Cell(i, idx))
		}
		if opts.Kind == schema.Climate {
			rec.Location = loc
			if hasLoc {
				if s := cellText(t.Cell(i, locIdx)); s != "" {
					rec.Location = s
				}
			}
		}
		recs = append(recs, rec)
	}

	steps := Chain{builtin.DeDup{Policy: opts.DedupPolicy, Removed: &res.Duplicates}}
	steps = append(steps, policy.chain(numeric)...)
	res.Records = steps.Apply(recs)
	return res, nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
