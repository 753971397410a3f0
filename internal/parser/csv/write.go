package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"retailetl/internal/table"
)

// WriteTable writes t as CSV with a header row. Cells are rendered with
// table.Format; null cells become empty fields.
func WriteTable(ctx context.Context, w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(t.Columns))
	for r, row := range t.Rows {
		if r%logEveryN == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		for i := range rec {
			if i < len(row) {
				rec[i] = table.Format(row[i])
			} else {
				rec[i] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
