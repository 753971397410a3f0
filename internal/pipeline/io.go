package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"retailetl/internal/datasource"
	"retailetl/internal/datasource/file"
	"retailetl/internal/datasource/httpds"
	"retailetl/internal/metrics"
	csvparser "retailetl/internal/parser/csv"
	"retailetl/internal/table"
)

// source picks the reader for path: raw extracts given as URLs are fetched,
// everything else is a local file.
func (r *Runner) source(path string) datasource.Source {
	if httpds.IsURL(path) {
		return httpds.NewSource(r.http, path)
	}
	return file.NewLocal(path)
}

// load reads the CSV at path.
func (r *Runner) load(ctx context.Context, path string) (*table.Table, error) {
	src, err := r.source(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	t, err := csvparser.ReadTable(ctx, src, csvparser.OptionsFrom(r.cfg.Parser.Options))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	metrics.RecordRow(r.cfg.Job, metrics.KindRead, int64(t.Len()))
	r.debugf("load: path=%s rows=%d cols=%d", path, t.Len(), len(t.Columns))
	return t, nil
}

// loadPair reads two inputs, concurrently when runtime.parallel_reads is on.
func (r *Runner) loadPair(ctx context.Context, leftPath, rightPath string) (left, right *table.Table, err error) {
	g, gctx := errgroup.WithContext(ctx)
	if !r.cfg.Runtime.ParallelReads {
		g.SetLimit(1)
	}
	g.Go(func() error {
		var err error
		left, err = r.load(gctx, leftPath)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = r.load(gctx, rightPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// save writes t to path atomically.
func (r *Runner) save(ctx context.Context, path string, t *table.Table) error {
	w, err := file.NewLocal(path).Create(ctx)
	if err != nil {
		return err
	}
	if err := csvparser.WriteTable(ctx, w, t); err != nil {
		_ = file.Abort(w)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	metrics.RecordRow(r.cfg.Job, metrics.KindWritten, int64(t.Len()))
	r.debugf("save: path=%s rows=%d cols=%d", path, t.Len(), len(t.Columns))
	return nil
}
