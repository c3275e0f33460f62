// Package records holds the in-memory row shapes passed between the parser,
// the cleaner and the loader.
package records

import "fmt"

// Table is a decoded input: ordered column names and rows aligned to them.
// Cells are string, a Go numeric type, decimal.Decimal, time.Time or nil.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable returns an empty table with the given header.
func NewTable(columns ...string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

// Append adds one row. Short rows are padded with nil; long rows are an
// error.
func (t *Table) Append(row ...any) error {
	if len(row) > len(t.Columns) {
		return fmt.Errorf("records: row has %d cells, header has %d", len(row), len(t.Columns))
	}
	r := make([]any, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
	return nil
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Cell returns row i, column j, or nil when j is out of range for a ragged
// row.
func (t Table) Cell(i, j int) any {
	row := t.Rows[i]
	if j < 0 || j >= len(row) {
		return nil
	}
	return row[j]
}
