// Package quotes downloads an opaque CSV price series (stock quotes, cattle
// prices) and reduces it to a date column and one market field.
package quotes

import (
	"context"
	"fmt"

	"agroetl/internal/datasource/httpds"
	csvparser "agroetl/internal/parser/csv"
	"agroetl/internal/schema"
	"agroetl/pkg/records"
)

// Feed is one CSV download.
type Feed struct {
	HTTP *httpds.Client
	URL  string

	// Field is the market field the value column feeds.
	Field schema.Field

	// DateColumn and ValueColumn select source columns by folded name.
	// Empty values pick the first and second column.
	DateColumn  string
	ValueColumn string

	// Comma forces the delimiter; 0 sniffs it.
	Comma rune
}

func (f *Feed) Name() string { return "quotes:" + string(f.Field) }

// Fetch returns a two-column table: date_key and f.Field. Cells are passed
// through untouched; cleaning happens in the importer.
func (f *Feed) Fetch(ctx context.Context) (records.Table, error) {
	if f.URL == "" {
		return records.Table{}, fmt.Errorf("%s: url is empty", f.Name())
	}
	body, err := f.HTTP.GetBytes(ctx, f.URL, nil, 0)
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: %w", f.Name(), err)
	}
	src, err := csvparser.NewParser(csvparser.Options{Comma: f.Comma, TrimSpace: true}).ParseBytes(body)
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: %w", f.Name(), err)
	}

	di, err := column(src.Columns, f.DateColumn, 0)
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: date column: %w", f.Name(), err)
	}
	vi, err := column(src.Columns, f.ValueColumn, 1)
	if err != nil {
		return records.Table{}, fmt.Errorf("%s: value column: %w", f.Name(), err)
	}

	out := records.NewTable(string(schema.DateKey), string(f.Field))
	for i := range src.Rows {
		if err := out.Append(src.Cell(i, di), src.Cell(i, vi)); err != nil {
			return records.Table{}, err
		}
	}
	return out, nil
}

func column(cols []string, name string, fallback int) (int, error) {
	if name == "" {
		if fallback >= len(cols) {
			return 0, fmt.Errorf("input has %d columns", len(cols))
		}
		return fallback, nil
	}
	want := schema.FoldName(name)
	for i, c := range cols {
		if schema.FoldName(c) == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column %q in %v", name, cols)
}
