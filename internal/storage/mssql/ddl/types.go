// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import gddl "retailetl/internal/ddl"

// MapType maps a logical column kind into a SQL Server column type. Text
// falls back to NVARCHAR(MAX).
func MapType(k gddl.Kind) string {
	switch k {
	case gddl.KindInt:
		return "BIGINT"
	case gddl.KindFloat:
		return "FLOAT"
	case gddl.KindDecimal:
		return "DECIMAL(18, 2)"
	case gddl.KindBool:
		return "BIT"
	case gddl.KindTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}
