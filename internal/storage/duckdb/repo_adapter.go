package duckdb

import (
	"context"

	"agroetl/internal/schema"
	"agroetl/internal/storage"
	duckddl "agroetl/internal/storage/duckdb/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("duckdb", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("duckdb", func(ctx context.Context, repo storage.Repository, t schema.FactTable) error {
		return duckddl.EnsureTable(ctx, repo, t)
	})
}
