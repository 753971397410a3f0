package ddl

// Kind is the logical type of a column, inferred from its cells and mapped
// to a SQL type by each backend's MapType.
type Kind string

const (
	KindText      Kind = "text"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindDecimal   Kind = "decimal"
	KindBool      Kind = "bool"
	KindTimestamp Kind = "timestamp"
)

// ColumnDef describes a single column in a table definition.
//
//   - Name: column name (unquoted; quoting happens at render time)
//   - Kind: logical type; SQLType is derived from it via Resolve
//   - SQLType: dialect type (e.g., TEXT, BIGINT, TIMESTAMPTZ)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression
type ColumnDef struct {
	Name       string
	Kind       Kind
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name in dotted form ("schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Resolve returns a copy of t with every SQLType filled from mapType.
// Columns that already carry an SQLType keep it.
func Resolve(t TableDef, mapType func(Kind) string) TableDef {
	out := TableDef{FQN: t.FQN, Columns: make([]ColumnDef, len(t.Columns))}
	for i, c := range t.Columns {
		if c.SQLType == "" {
			c.SQLType = mapType(c.Kind)
		}
		out.Columns[i] = c
	}
	return out
}
