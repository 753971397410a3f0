package storage

import (
	"context"
	"fmt"
	"sync"

	"retailetl/internal/ddl"
)

// DDLBootstrapper applies backend-specific DDL for def through repo. When
// replace is true an existing table is dropped first.
//
// Backends register their implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef, replace bool) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the DDLBootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef, replace bool) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, def, replace)
}

// GenericDDL returns a DDLBootstrapper for dialects that accept the
// double-quoted CREATE TABLE IF NOT EXISTS form (SQLite, Postgres, DuckDB).
// mapType fills each column's SQLType from its Kind.
func GenericDDL(mapType func(ddl.Kind) string) DDLBootstrapper {
	return func(ctx context.Context, repo Repository, def ddl.TableDef, replace bool) error {
		if replace {
			drop, err := ddl.BuildDropTableSQL(def.FQN)
			if err != nil {
				return err
			}
			if err := repo.Exec(ctx, drop); err != nil {
				return fmt.Errorf("drop %s: %w", def.FQN, err)
			}
		}
		create, err := ddl.BuildCreateTableSQL(ddl.Resolve(def, mapType))
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, create); err != nil {
			return fmt.Errorf("create %s: %w", def.FQN, err)
		}
		return nil
	}
}
