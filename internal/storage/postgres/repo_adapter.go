// Package postgres registers the Postgres backend with the storage factory
// and its DDL bootstrapper, so callers select it only through
// storage.Config.Kind.
package postgres

import (
	"context"
	"fmt"

	"agroetl/internal/schema"
	"agroetl/internal/storage"
	pgddl "agroetl/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo implements storage.Repository by delegating to the concrete
// *postgres.Repository while providing a Close method that calls the close
// function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, t schema.FactTable) error {
		if err := pgddl.EnsureTable(ctx, repo, t); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
		return nil
	})
}
