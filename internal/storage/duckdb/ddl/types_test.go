package ddl

import (
	"testing"

	gddl "retailetl/internal/ddl"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	want := map[gddl.Kind]string{
		gddl.KindInt:       "BIGINT",
		gddl.KindFloat:     "DOUBLE",
		gddl.KindDecimal:   "DECIMAL(18,2)",
		gddl.KindBool:      "BOOLEAN",
		gddl.KindTimestamp: "TIMESTAMP",
		gddl.KindText:      "VARCHAR",
	}
	for k, w := range want {
		if got := MapType(k); got != w {
			t.Errorf("MapType(%q) = %q, want %q", k, got, w)
		}
	}
}
