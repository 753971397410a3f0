package mssql

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// newMock returns a Repository over a sqlmock connection.
func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Repository{db: db, cfg: Config{Table: "dbo.fact_sales"}}, mock
}

// TestCopyFromEmptyRows verifies that CopyFrom short-circuits when no rows
// are provided and does not require a live database connection.
func TestCopyFromEmptyRows(t *testing.T) {
	t.Parallel()

	r := &Repository{cfg: Config{Table: "dbo.t"}}

	got, err := r.CopyFrom(context.Background(), []string{"id", "name"}, nil)
	if err != nil {
		t.Fatalf("CopyFrom(nil...) error = %v, want nil", err)
	}
	if got != 0 {
		t.Fatalf("CopyFrom(nil...) = %d, want 0", got)
	}
}

// TestCopyFromBeginTxError verifies that CopyFrom surfaces errors from
// BeginTx before any bulk-copy logic runs.
func TestCopyFromBeginTxError(t *testing.T) {
	t.Parallel()

	r, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("begin failed"))

	n, err := r.CopyFrom(context.Background(), []string{"id"}, [][]any{{1}, {2}})
	if err == nil {
		t.Fatalf("CopyFrom() error = nil, want non-nil when BeginTx fails")
	}
	if n != 0 {
		t.Fatalf("CopyFrom() rows = %d, want 0 on error", n)
	}
	if !strings.Contains(err.Error(), "begin tx:") {
		t.Fatalf("CopyFrom() error = %q, want it wrapped with 'begin tx:'", err.Error())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// TestExecPropagatesError verifies that Exec forwards driver errors.
func TestExecPropagatesError(t *testing.T) {
	t.Parallel()

	r, mock := newMock(t)
	mock.ExpectExec("DROP TABLE [dbo].[fact_sales]").WillReturnError(errors.New("exec failed"))

	err := r.Exec(context.Background(), "DROP TABLE [dbo].[fact_sales]")
	if err == nil || !strings.Contains(err.Error(), "exec failed") {
		t.Fatalf("Exec() error = %v, want it to contain %q", err, "exec failed")
	}
}

func TestExecOK(t *testing.T) {
	t.Parallel()

	r, mock := newMock(t)
	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := r.Exec(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// TestQueryScansRows verifies Query converts the result set into a table.
func TestQueryScansRows(t *testing.T) {
	t.Parallel()

	r, mock := newMock(t)
	const q = "SELECT customer_state, COUNT(*) AS n FROM dbo.fact_sales GROUP BY customer_state"
	mock.ExpectQuery(q).WillReturnRows(
		sqlmock.NewRows([]string{"customer_state", "n"}).
			AddRow([]byte("SP"), int64(3)).
			AddRow("RJ", int64(1)),
	)

	got, err := r.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(got.Columns, []string{"customer_state", "n"}) {
		t.Fatalf("columns = %v", got.Columns)
	}
	want := [][]any{{"SP", int64(3)}, {"RJ", int64(1)}}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows = %#v, want %#v", got.Rows, want)
	}
}

func TestQueryError(t *testing.T) {
	t.Parallel()

	r, mock := newMock(t)
	mock.ExpectQuery("SELECT broken").WillReturnError(errors.New("syntax"))

	if _, err := r.Query(context.Background(), "SELECT broken"); err == nil || !strings.Contains(err.Error(), "query:") {
		t.Fatalf("Query() error = %v, want wrapped query error", err)
	}
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://%zz"}); err == nil {
		t.Fatalf("NewRepository() error = nil, want DSN parse error")
	}
}
