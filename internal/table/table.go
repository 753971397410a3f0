// Package table holds the in-memory representation of a tabular extract.
//
// A Table is an ordered list of column names plus positional rows of cells.
// Cells are plain Go values:
//
//	nil             -> null (an empty CSV field loads as nil)
//	string          -> raw text as read from CSV
//	int64, float64  -> derived numbers
//	bool            -> derived flags
//	time.Time       -> parsed timestamps
//	decimal.Decimal -> money
//	[]string        -> list-valued columns (see EncodeList)
//
// Tables are created by one pipeline step and consumed by the next; they are
// never shared between goroutines.
package table

import (
	"errors"
	"fmt"
)

// ErrNoColumn is returned (wrapped) when a named column does not exist.
var ErrNoColumn = errors.New("no such column")

// Table is a column-named, row-major dataset.
type Table struct {
	Columns []string
	Rows    [][]any

	index map[string]int
}

// New returns an empty table with the given columns.
func New(columns []string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Col is like Index but returns a wrapped ErrNoColumn for unknown names.
func (t *Table) Col(name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("column %q: %w", name, ErrNoColumn)
	}
	return i, nil
}

// Append adds a row. Short rows are padded with nulls; long rows are an error.
func (t *Table) Append(row []any) error {
	if len(row) > len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	for len(row) < len(t.Columns) {
		row = append(row, nil)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Value returns the cell for column name in row r, or nil when the column is
// absent.
func (t *Table) Value(r int, name string) any {
	i := t.Index(name)
	if i < 0 || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return nil
	}
	return t.Rows[r][i]
}

// Set writes column name in every row using fn. A new column is appended when
// name does not exist yet; otherwise the existing column is overwritten in
// place. The first error returned by fn aborts the update and is returned
// with the offending row number (0-based).
func (t *Table) Set(name string, fn func(row []any) (any, error)) error {
	i := t.Index(name)
	if i < 0 {
		t.Columns = append(t.Columns, name)
		i = len(t.Columns) - 1
		t.index[name] = i
		for r := range t.Rows {
			t.Rows[r] = append(t.Rows[r], nil)
		}
	}
	for r, row := range t.Rows {
		v, err := fn(row)
		if err != nil {
			return fmt.Errorf("column %s, row %d: %w", name, r, err)
		}
		row[i] = v
	}
	return nil
}

// Project returns a new table containing only cols, in the given order. The
// row slices are freshly allocated; cell values are shared.
func (t *Table) Project(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for j, c := range cols {
		i, err := t.Col(c)
		if err != nil {
			return nil, err
		}
		idx[j] = i
	}
	out := New(cols)
	out.Rows = make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]any, len(cols))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out, nil
}
