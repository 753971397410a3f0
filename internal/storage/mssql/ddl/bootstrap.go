package ddl

import (
	"context"

	gddl "retailetl/internal/ddl"
	"retailetl/internal/storage"
)

// EnsureTable resolves SQL Server types for def, optionally drops the
// existing table, and creates it when missing.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef, replace bool) error {
	if replace {
		drop, err := BuildDropTableSQL(def.FQN)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, drop); err != nil {
			return err
		}
	}
	sql, err := BuildCreateTableSQL(gddl.Resolve(def, MapType))
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
