package ddl

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"retailetl/internal/table"
)

// Infer derives a TableDef named fqn from the cells of t.
//
// Typed cells map directly (bool, int64, float64, decimal.Decimal,
// time.Time). Text cells are sniffed so a table read back from CSV keeps its
// types: integers, floats, "true"/"false" and TimeLayout timestamps are
// recognized. Digit strings with a leading zero stay text (zip prefixes).
// Mixed numeric kinds widen (int -> float -> decimal); any other mix, list
// cells and all-null columns are text. Every column is nullable.
func Infer(fqn string, t *table.Table) TableDef {
	kinds := make([]Kind, len(t.Columns))
	seen := make([]bool, len(t.Columns))
	for _, row := range t.Rows {
		for i := range t.Columns {
			if i >= len(row) || table.IsNull(row[i]) {
				continue
			}
			k := kindOf(row[i])
			if !seen[i] {
				kinds[i], seen[i] = k, true
				continue
			}
			kinds[i] = widen(kinds[i], k)
		}
	}

	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(t.Columns))}
	for i, c := range t.Columns {
		k := kinds[i]
		if !seen[i] {
			k = KindText
		}
		def.Columns[i] = ColumnDef{Name: c, Kind: k, Nullable: true}
	}
	return def
}

func kindOf(v any) Kind {
	switch x := v.(type) {
	case bool:
		return KindBool
	case int, int64:
		return KindInt
	case float64:
		return KindFloat
	case decimal.Decimal:
		return KindDecimal
	case time.Time:
		return KindTimestamp
	case string:
		return sniff(x)
	}
	return KindText
}

func sniff(s string) Kind {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return KindText
	case "true", "false":
		return KindBool
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return KindText
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return KindInt
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil && strings.IndexFunc(s, nonExpLetter) < 0 {
		return KindFloat
	}
	if _, err := time.Parse(table.TimeLayout, s); err == nil {
		return KindTimestamp
	}
	return KindText
}

// nonExpLetter rejects NaN, Inf and hex-float spellings that ParseFloat
// accepts.
func nonExpLetter(r rune) bool {
	return unicode.IsLetter(r) && r != 'e' && r != 'E'
}

var numericRank = map[Kind]int{KindInt: 1, KindFloat: 2, KindDecimal: 3}

func widen(a, b Kind) Kind {
	if a == b {
		return a
	}
	ra, okA := numericRank[a]
	rb, okB := numericRank[b]
	if okA && okB {
		if ra > rb {
			return a
		}
		return b
	}
	return KindText
}

// Value converts a cell to the Go value a driver should receive for a
// column of kind k. Nulls stay nil. Lists are written in their JSON text
// form; decimals are sent as float64 so every driver can bind them.
func Value(k Kind, v any) (any, error) {
	if table.IsNull(v) {
		return nil, nil
	}
	switch k {
	case KindInt:
		n, _, err := table.Int(v)
		return n, err
	case KindFloat, KindDecimal:
		f, _, err := table.Float(v)
		return f, err
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		default:
			return strconv.ParseBool(table.Format(v))
		}
	case KindTimestamp:
		tm, _, err := table.Time(v, []string{table.TimeLayout})
		return tm, err
	default:
		return table.Format(v), nil
	}
}
