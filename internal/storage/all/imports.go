// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL bootstrappers with the storage package. The kinds made
// available are:
//
//   - "postgres" (agroetl/internal/storage/postgres)
//   - "mssql"    (agroetl/internal/storage/mssql)
//   - "mysql"    (agroetl/internal/storage/mysql)
//   - "sqlite"   (agroetl/internal/storage/sqlite)
//   - "duckdb"   (agroetl/internal/storage/duckdb)
//   - "memory"   (agroetl/internal/storage/memory)
//
// Typical usage:
//
//	import _ "agroetl/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//	if cfg.Storage.AutoCreateTable {
//	    err = storage.EnsureTables(ctx, cfg.Storage.Kind, repo, tables...)
//	}
//
// A binary that needs only a subset of backends can blank-import those
// packages directly instead.
package all

import (
	_ "agroetl/internal/storage/duckdb"
	_ "agroetl/internal/storage/memory"
	_ "agroetl/internal/storage/mssql"
	_ "agroetl/internal/storage/mysql"
	_ "agroetl/internal/storage/postgres"
	_ "agroetl/internal/storage/sqlite"
)
