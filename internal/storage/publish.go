package storage

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"retailetl/internal/ddl"
	"retailetl/internal/table"
)

// PublishOptions controls how a table is loaded into a repository.
type PublishOptions struct {
	// Kind selects the DDL dialect.
	Kind string
	// Table is the target table name.
	Table string
	// AutoCreate creates the table from the inferred definition.
	AutoCreate bool
	// Replace drops the table before creating it.
	Replace bool
	// BatchSize is the CopyFrom batch size; 5000 when zero.
	BatchSize int
}

// PublishResult reports what Publish wrote.
type PublishResult struct {
	Def     ddl.TableDef
	Rows    int64
	Batches int64
}

// Publish loads t into repo. Column kinds are inferred from the cells, the
// table is optionally (re)created, and rows are converted and streamed into
// LoadBatches from a producer goroutine.
func Publish(ctx context.Context, repo Repository, t *table.Table, opt PublishOptions) (PublishResult, error) {
	def := ddl.Infer(opt.Table, t)
	res := PublishResult{Def: def}

	if opt.AutoCreate {
		if err := EnsureTable(ctx, opt.Kind, repo, def, opt.Replace); err != nil {
			return res, fmt.Errorf("ensure table %s: %w", opt.Table, err)
		}
	}
	batch := opt.BatchSize
	if batch <= 0 {
		batch = 5000
	}

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan []any, batch)

	g.Go(func() error {
		defer close(rows)
		for r, row := range t.Rows {
			out := make([]any, len(def.Columns))
			for i, c := range def.Columns {
				var cell any
				if i < len(row) {
					cell = row[i]
				}
				v, err := ddl.Value(c.Kind, cell)
				if err != nil {
					return fmt.Errorf("row %d column %s: %w", r, c.Name, err)
				}
				out[i] = v
			}
			select {
			case rows <- out:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		res.Rows, res.Batches, err = LoadBatches(gctx, t.Columns, rows, batch, repo.CopyFrom)
		return err
	})

	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("publish %s: %w", opt.Table, err)
	}
	return res, nil
}
