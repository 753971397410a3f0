// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import gddl "retailetl/internal/ddl"

// MapType maps a logical column kind into a SQLite column type.
//
// SQLite types are affinities, so booleans are stored as INTEGER (0/1) and
// timestamps as TEXT in "2006-01-02 15:04:05" form, which date() and
// strftime() understand.
func MapType(k gddl.Kind) string {
	switch k {
	case gddl.KindInt, gddl.KindBool:
		return "INTEGER"
	case gddl.KindFloat:
		return "REAL"
	case gddl.KindDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
