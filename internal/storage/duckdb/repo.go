// Package duckdb implements a DuckDB-backed storage.Repository. DuckDB is
// an embedded columnar engine, which makes it a good local target for the
// analytics queries run over the fact table.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"

	duckdb "github.com/duckdb/duckdb-go/v2"

	"retailetl/internal/ddl"
	"retailetl/internal/storage"
	"retailetl/internal/table"
)

// Config holds DuckDB repository configuration. An empty DSN opens an
// in-memory database.
type Config struct {
	DSN   string
	Table string
}

// Repository is a DuckDB-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database and returns a Repository plus a Close
// function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open: %w", err)
	}
	// In-memory databases live on a single connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows with a prepared statement inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("duckdb: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.QuoteIdent(c)
		marks[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ddl.QuoteFQN(r.cfg.Table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("duckdb: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("duckdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("duckdb: insert row %d: %w", i, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("duckdb: commit: %w", err)
	}
	return n, nil
}

// Exec executes a statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("duckdb: exec: %w", err)
	}
	return nil
}

// Query runs sql and returns its result set. DECIMAL values come back as
// float64 and HUGEINT aggregates as int64 when they fit.
func (r *Repository) Query(ctx context.Context, sql string) (*table.Table, error) {
	rows, err := r.db.QueryContext(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query: %w", err)
	}
	t, err := storage.ScanTable(rows)
	if err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		for i, v := range row {
			row[i] = fromDuck(v)
		}
	}
	return t, nil
}

func fromDuck(v any) any {
	switch x := v.(type) {
	case duckdb.Decimal:
		return x.Float64()
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
