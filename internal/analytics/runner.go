// Package analytics runs ad-hoc SQL reports against the published fact
// table. Each *.sql file in a directory is executed in lexical order and its
// result set is written as <stem>.csv.
package analytics

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"retailetl/internal/datasource/file"
	csvparser "retailetl/internal/parser/csv"
	"retailetl/internal/storage"
	"retailetl/internal/table"
)

// Report is the outcome of one query file.
type Report struct {
	Name   string // file stem
	Output string // CSV path written
	Rows   int
}

// Queries lists the *.sql files in dir, sorted by name.
func Queries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sql dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Load publishes the final table into repo under tableName, replacing any
// previous copy.
func Load(ctx context.Context, repo storage.Repository, kind, tableName string, final *table.Table) (int64, error) {
	res, err := storage.Publish(ctx, repo, final, storage.PublishOptions{
		Kind:       kind,
		Table:      tableName,
		AutoCreate: true,
		Replace:    true,
	})
	if err != nil {
		return res.Rows, err
	}
	log.Printf("analytics: loaded table=%s rows=%d", tableName, res.Rows)
	return res.Rows, nil
}

// RunDir executes every query in sqlDir against repo and writes one CSV per
// query into resultsDir. It stops at the first failing query; reports for
// queries that already ran are returned alongside the error.
func RunDir(ctx context.Context, repo storage.Repository, sqlDir, resultsDir string) ([]Report, error) {
	files, err := Queries(sqlDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Printf("analytics: no queries in %s", sqlDir)
		return nil, nil
	}

	reports := make([]Report, 0, len(files))
	for _, path := range files {
		rep, err := runFile(ctx, repo, path, resultsDir)
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func runFile(ctx context.Context, repo storage.Repository, path, resultsDir string) (Report, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rep := Report{Name: stem, Output: filepath.Join(resultsDir, stem+".csv")}

	b, err := os.ReadFile(path)
	if err != nil {
		return rep, fmt.Errorf("read query %s: %w", stem, err)
	}
	sqlText := strings.TrimSpace(string(b))
	if sqlText == "" {
		return rep, fmt.Errorf("query %s: empty file", stem)
	}

	start := time.Now()
	res, err := repo.Query(ctx, sqlText)
	if err != nil {
		return rep, fmt.Errorf("query %s: %w", stem, err)
	}

	w, err := file.NewLocal(rep.Output).Create(ctx)
	if err != nil {
		return rep, err
	}
	if err := csvparser.WriteTable(ctx, w, res); err != nil {
		_ = file.Abort(w)
		return rep, fmt.Errorf("write %s: %w", rep.Output, err)
	}
	if err := w.Close(); err != nil {
		return rep, err
	}

	rep.Rows = res.Len()
	log.Printf("analytics: query=%s rows=%d out=%s elapsed=%s",
		stem, rep.Rows, rep.Output, time.Since(start).Truncate(time.Millisecond))
	return rep, nil
}
