// Package ddl contains DuckDB-specific helpers for generating DDL.
package ddl

import gddl "retailetl/internal/ddl"

// MapType maps a logical column kind into a DuckDB column type.
func MapType(k gddl.Kind) string {
	switch k {
	case gddl.KindInt:
		return "BIGINT"
	case gddl.KindFloat:
		return "DOUBLE"
	case gddl.KindDecimal:
		return "DECIMAL(18,2)"
	case gddl.KindBool:
		return "BOOLEAN"
	case gddl.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}
