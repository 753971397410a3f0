// Command runsql loads the final retail table into a SQL backend as the fact
// table and writes one CSV per query file in the analytics directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailetl/internal/analytics"
	"retailetl/internal/config"
	"retailetl/internal/datasource/file"
	csvparser "retailetl/internal/parser/csv"
	"retailetl/internal/storage"
	_ "retailetl/internal/storage/all"
)

func main() {
	var (
		cfgPath    string
		finalPath  string
		sqlDir     string
		resultsDir string
		kind       string
		dsn        string
	)
	flag.StringVar(&cfgPath, "config", "configs/pipelines/retail.json", "pipeline config JSON path (empty uses built-in defaults)")
	flag.StringVar(&finalPath, "final", "", "final CSV to load (default: paths.artifacts.final)")
	flag.StringVar(&sqlDir, "sql-dir", "", "directory of *.sql files (default: analytics.sql_dir)")
	flag.StringVar(&resultsDir, "results-dir", "", "output directory (default: analytics.results_dir)")
	flag.StringVar(&kind, "kind", "", "storage kind (default: storage.kind, else duckdb)")
	flag.StringVar(&dsn, "dsn", "", "storage DSN (default: storage.db.dsn)")
	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if finalPath == "" {
		finalPath = p.Paths.TransformedPath(p.Paths.Artifacts.Final)
	}
	if sqlDir == "" {
		sqlDir = p.Analytics.SQLDir
	}
	if resultsDir == "" {
		resultsDir = p.Analytics.ResultsDir
	}
	if kind == "" {
		kind = p.Storage.Kind
	}
	if dsn == "" {
		dsn = p.Storage.DB.DSN
	}
	// No backend configured: query a throwaway in-memory DuckDB.
	if kind == "" {
		kind, dsn = "duckdb", ""
	}
	tableName := p.Storage.DB.Table

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()

	src, err := file.NewLocal(finalPath).Open(ctx)
	if err != nil {
		fatalf("%v", err)
	}
	final, err := csvparser.ReadTable(ctx, src, csvparser.OptionsFrom(p.Parser.Options))
	if err != nil {
		fatalf("read %s: %v", finalPath, err)
	}

	repo, err := storage.New(ctx, storage.Config{Kind: kind, DSN: dsn, Table: tableName})
	if err != nil {
		fatalf("open storage %s: %v", kind, err)
	}
	defer repo.Close()

	if _, err := analytics.Load(ctx, repo, kind, tableName, final); err != nil {
		repo.Close()
		fatalf("load %s: %v", tableName, err)
	}
	reports, err := analytics.RunDir(ctx, repo, sqlDir, resultsDir)
	if err != nil {
		repo.Close()
		fatalf("%v", err)
	}
	log.Printf("runsql: kind=%s queries=%d results=%s elapsed=%s",
		kind, len(reports), resultsDir, time.Since(start).Truncate(time.Millisecond))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
