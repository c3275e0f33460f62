// Package memory is an in-process storage backend keyed by table name and
// conflict key. It backs dry runs ("-storage memory") and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agroetl/internal/schema"
	"agroetl/internal/storage"
)

// Store keeps the latest row per conflict key for every table.
type Store struct {
	mu     sync.Mutex
	tables map[string]map[string][]any
	execs  []string
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]map[string][]any)}
}

var _ storage.Repository = (*Store)(nil)

func init() {
	storage.Register("memory", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(), nil
	})
	storage.RegisterDDL("memory", func(ctx context.Context, repo storage.Repository, t schema.FactTable) error {
		return repo.Exec(ctx, "CREATE TABLE "+t.Name)
	})
}

// Upsert validates the whole batch first, then replaces rows by key.
func (s *Store) Upsert(ctx context.Context, t schema.FactTable, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key := t.ColumnIndex(t.ConflictKey)
	if key < 0 {
		return 0, fmt.Errorf("memory: conflict key %q not in table %s", t.ConflictKey, t.Name)
	}
	keys := make([]string, len(rows))
	for i, row := range rows {
		if len(row) != len(t.Columns) {
			return 0, fmt.Errorf("memory: row %d: length %d != columns length %d", i+1, len(row), len(t.Columns))
		}
		k, ok := row[key].(string)
		if !ok || k == "" {
			return 0, fmt.Errorf("memory: row %d: empty %s", i+1, t.ConflictKey)
		}
		keys[i] = k
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tbl := s.tables[t.Name]
	if tbl == nil {
		tbl = make(map[string][]any)
		s.tables[t.Name] = tbl
	}
	for i, row := range rows {
		tbl[keys[i]] = append([]any(nil), row...)
	}
	return int64(len(rows)), nil
}

// Exec records the statement and does nothing else.
func (s *Store) Exec(_ context.Context, sql string) error {
	s.mu.Lock()
	s.execs = append(s.execs, sql)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() {}

// Rows returns the rows of table ordered by conflict key.
func (s *Store) Rows(table string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	tbl := s.tables[table]
	keys := make([]string, 0, len(tbl))
	for k := range tbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]any, len(keys))
	for i, k := range keys {
		out[i] = tbl[k]
	}
	return out
}

// Len returns the number of rows in table.
func (s *Store) Len(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}
