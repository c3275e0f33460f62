package sqlite

import (
	"context"
	"testing"

	"agroetl/internal/schema"
	"agroetl/internal/storage"
)

// TestSQLiteStorageRegistrationUsesNewRepositoryHook verifies that the
// "sqlite" storage backend registered in init() uses the newRepository hook
// and that wrappedRepo correctly delegates Close.
func TestSQLiteStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg Config
		closed bool
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "file:agro.db"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != "file:agro.db" {
		t.Fatalf("DSN = %q", gotCfg.DSN)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close did not call the cleanup function")
	}
}

// TestSQLiteEnsureTablesThroughRegistry bootstraps every table through the
// storage-level DDL registry on a real in-memory database.
func TestSQLiteEnsureTablesThroughRegistry(t *testing.T) {
	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer repo.Close()

	tables := []schema.FactTable{schema.MarketTable(""), schema.ClimateTable(""), schema.CalendarTable("")}
	if err := storage.EnsureTables(ctx, "sqlite", repo, tables...); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}
	if _, err := repo.Upsert(ctx, tables[1], [][]any{{"2026-01-23", nil, nil, "Cuiabá"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}
