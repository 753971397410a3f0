// Package join implements the left join used to stitch raw extracts together.
package join

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"retailetl/internal/table"
)

// Suffixes applied to non-key columns that exist on both sides.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// keySep separates composite key parts before hashing. Probes re-check
// equality, so a collision only costs a comparison.
const keySep = "\x1f"

// Left returns left LEFT JOIN right ON keys.
//
// Every left row appears in the output at least once, in left order. A left
// row with several matches is repeated once per match, in right order. A
// left row without a match, or with a null key part, gets nulls for every
// right column. Key columns appear once, at their left position; other
// columns present on both sides are suffixed with LeftSuffix/RightSuffix.
func Left(left, right *table.Table, keys ...string) (*table.Table, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("join: no key columns")
	}
	lk, err := positions(left, keys)
	if err != nil {
		return nil, fmt.Errorf("join left side: %w", err)
	}
	rk, err := positions(right, keys)
	if err != nil {
		return nil, fmt.Errorf("join right side: %w", err)
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	// Right columns carried into the output, in right order.
	var rcols []int
	for i, c := range right.Columns {
		if !isKey[c] {
			rcols = append(rcols, i)
		}
	}

	cols := make([]string, 0, len(left.Columns)+len(rcols))
	for _, c := range left.Columns {
		if !isKey[c] && right.Has(c) {
			c += LeftSuffix
		}
		cols = append(cols, c)
	}
	for _, i := range rcols {
		c := right.Columns[i]
		if left.Has(c) {
			c += RightSuffix
		}
		cols = append(cols, c)
	}

	index := make(map[uint64][]int, len(right.Rows))
	for r, row := range right.Rows {
		h, ok := hashKey(row, rk)
		if !ok {
			continue
		}
		index[h] = append(index[h], r)
	}

	out := table.New(cols)
	out.Rows = make([][]any, 0, len(left.Rows))
	nl := len(left.Columns)
	for _, lrow := range left.Rows {
		matched := false
		if h, ok := hashKey(lrow, lk); ok {
			for _, r := range index[h] {
				rrow := right.Rows[r]
				if !keysEqual(lrow, lk, rrow, rk) {
					continue
				}
				matched = true
				nr := make([]any, len(cols))
				copy(nr, lrow)
				for j, i := range rcols {
					nr[nl+j] = rrow[i]
				}
				out.Rows = append(out.Rows, nr)
			}
		}
		if !matched {
			nr := make([]any, len(cols))
			copy(nr, lrow)
			out.Rows = append(out.Rows, nr)
		}
	}
	return out, nil
}

func positions(t *table.Table, keys []string) ([]int, error) {
	out := make([]int, len(keys))
	for j, k := range keys {
		i, err := t.Col(k)
		if err != nil {
			return nil, err
		}
		out[j] = i
	}
	return out, nil
}

// hashKey hashes the formatted key parts of row. ok is false when any part
// is null; null keys never match.
func hashKey(row []any, idx []int) (uint64, bool) {
	if len(idx) == 1 {
		v := cell(row, idx[0])
		if table.IsNull(v) {
			return 0, false
		}
		return xxh3.HashString(table.Format(v)), true
	}
	buf := make([]byte, 0, 64)
	for j, i := range idx {
		v := cell(row, i)
		if table.IsNull(v) {
			return 0, false
		}
		if j > 0 {
			buf = append(buf, keySep...)
		}
		buf = append(buf, table.Format(v)...)
	}
	return xxh3.Hash(buf), true
}

func keysEqual(a []any, ai []int, b []any, bi []int) bool {
	for j := range ai {
		if table.Format(cell(a, ai[j])) != table.Format(cell(b, bi[j])) {
			return false
		}
	}
	return true
}

func cell(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}
