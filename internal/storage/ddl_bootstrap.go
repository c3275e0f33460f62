package storage

import (
	"context"
	"fmt"
	"sync"

	"agroetl/internal/schema"
)

// DDLBootstrapper creates one table if it does not exist yet, using the
// backend's dialect, via repo.Exec.
//
// Backends register their implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, table schema.FactTable) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTables creates every table that is missing. It stops at the first
// failure.
func EnsureTables(ctx context.Context, kind string, repo Repository, tables ...schema.FactTable) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	for _, t := range tables {
		if err := fn(ctx, repo, t); err != nil {
			return fmt.Errorf("ensure table %s: %w", t.Name, err)
		}
	}
	return nil
}
