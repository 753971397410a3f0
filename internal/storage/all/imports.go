// Package all wires all built-in storage backends into the storage factory.
//
// Importing it (as a blank import) runs the init functions of each backend,
// which register their repository factories and DDL bootstrappers:
//
//   - "sqlite"   (retailetl/internal/storage/sqlite)
//   - "postgres" (retailetl/internal/storage/postgres)
//   - "mssql"    (retailetl/internal/storage/mssql)
//   - "duckdb"   (retailetl/internal/storage/duckdb)
//
// Typical usage:
//
//	import _ "retailetl/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{
//	    Kind:  p.Storage.Kind,
//	    DSN:   p.Storage.DB.DSN,
//	    Table: p.Storage.DB.Table,
//	})
//	if err != nil { ... }
//	defer repo.Close()
//
//	res, err := storage.Publish(ctx, repo, final, storage.PublishOptions{...})
package all

import (
	_ "retailetl/internal/storage/duckdb"
	_ "retailetl/internal/storage/mssql"
	_ "retailetl/internal/storage/postgres"
	_ "retailetl/internal/storage/sqlite"
)
