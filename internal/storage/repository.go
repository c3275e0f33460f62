// Package storage contains the storage-agnostic persistence contract, the
// backend factory, DDL bootstrap hooks and the batched upsert loader.
//
// Backends register themselves at init time (see storage/all); callers open
// a Repository with New and never import a backend directly.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agroetl/internal/schema"
)

// Upserter is the persistence collaborator of the loader. Upsert writes rows
// (aligned to table.ColumnNames()) with insert-or-replace semantics on
// table.ConflictKey. A call either succeeds for every row or fails as a whole.
type Upserter interface {
	Upsert(ctx context.Context, table schema.FactTable, rows [][]any) (int64, error)
}

// Repository is an Upserter backed by an open connection.
type Repository interface {
	Upserter

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "postgres" or "sqlite".
	Kind string

	// DSN is passed to the backend driver unchanged.
	DSN string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend names, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
