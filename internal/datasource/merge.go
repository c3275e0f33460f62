package datasource

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"agroetl/internal/normalize"
	"agroetl/internal/schema"
	"agroetl/pkg/records"
)

// TableSource is a feed that yields a partial table whose first column is
// the date.
type TableSource interface {
	Name() string
	Fetch(ctx context.Context) (records.Table, error)
}

// MergeByDate outer-joins parts on their first column. The result has a
// date_key column followed by every other column in order of first
// appearance, one row per date sorted ascending. Missing cells are nil; when
// two parts carry the same column for one date the later part wins.
//
// Dates are normalized before joining so 23/01/2026 and 2026-01-23 meet.
// Unparseable dates are kept verbatim so the importer can count them as
// dropped.
func MergeByDate(parts ...records.Table) records.Table {
	cols := []string{string(schema.DateKey)}
	colIdx := map[string]int{}
	for _, p := range parts {
		for _, c := range p.Columns[min(1, len(p.Columns)):] {
			if _, ok := colIdx[c]; !ok {
				colIdx[c] = len(cols)
				cols = append(cols, c)
			}
		}
	}

	byDate := map[string][]any{}
	for _, p := range parts {
		if len(p.Columns) == 0 {
			continue
		}
		for i := range p.Rows {
			key := dateKey(p.Cell(i, 0))
			row, ok := byDate[key]
			if !ok {
				row = make([]any, len(cols))
				row[0] = key
				byDate[key] = row
			}
			for j, c := range p.Columns[1:] {
				if v := p.Cell(i, j+1); v != nil {
					row[colIdx[c]] = v
				}
			}
		}
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := records.Table{Columns: cols, Rows: make([][]any, 0, len(keys))}
	for _, k := range keys {
		out.Rows = append(out.Rows, byDate[k])
	}
	return out
}

func dateKey(v any) string {
	if d, ok := normalize.Date(v); ok {
		return d
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// FetchAll fetches every source concurrently, at most limit at a time
// (unbounded when limit <= 0). A failing source is logged and skipped; the
// error is returned only when every source failed.
func FetchAll(ctx context.Context, limit int, srcs ...TableSource) ([]records.Table, error) {
	tables := make([]records.Table, len(srcs))
	errs := make([]error, len(srcs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range srcs {
		g.Go(func() error {
			start := time.Now()
			t, err := src.Fetch(ctx)
			if err != nil {
				log.Printf("fetch: source=%s failed after %s: %v", src.Name(), time.Since(start).Truncate(time.Millisecond), err)
				errs[i] = err
				return nil
			}
			log.Printf("fetch: source=%s rows=%d elapsed=%s", src.Name(), t.Len(), time.Since(start).Truncate(time.Millisecond))
			tables[i] = t
			return nil
		})
	}
	_ = g.Wait()

	var ok []records.Table
	for i := range srcs {
		if errs[i] == nil {
			ok = append(ok, tables[i])
		}
	}
	if len(ok) == 0 && len(srcs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ok, nil
}
