// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import gddl "retailetl/internal/ddl"

// MapType maps a logical column kind into a Postgres SQL type.
//
//	int       -> BIGINT
//	float     -> DOUBLE PRECISION
//	decimal   -> NUMERIC(18,2)
//	bool      -> BOOLEAN
//	timestamp -> TIMESTAMP
//	text      -> TEXT
func MapType(k gddl.Kind) string {
	switch k {
	case gddl.KindInt:
		return "BIGINT"
	case gddl.KindFloat:
		return "DOUBLE PRECISION"
	case gddl.KindDecimal:
		return "NUMERIC(18,2)"
	case gddl.KindBool:
		return "BOOLEAN"
	case gddl.KindTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
