// Package builtin contains the column transformers used by the clean and
// transform steps.
package builtin

import (
	"fmt"

	"retailetl/internal/table"
)

// Equals sets Dst to whether Src equals Value. Null never equals.
type Equals struct {
	Src, Dst string
	Value    string
}

func (e Equals) String() string { return fmt.Sprintf("equals(%s=%q->%s)", e.Src, e.Value, e.Dst) }

// Apply implements transformer.Transformer.
func (e Equals) Apply(t *table.Table) error {
	i, err := t.Col(e.Src)
	if err != nil {
		return err
	}
	return t.Set(e.Dst, func(row []any) (any, error) {
		s, ok := table.Text(row[i])
		return ok && s == e.Value, nil
	})
}

// NotNull sets Dst to whether Src holds a value.
type NotNull struct {
	Src, Dst string
}

func (n NotNull) String() string { return fmt.Sprintf("notnull(%s->%s)", n.Src, n.Dst) }

// Apply implements transformer.Transformer.
func (n NotNull) Apply(t *table.Table) error {
	i, err := t.Col(n.Src)
	if err != nil {
		return err
	}
	return t.Set(n.Dst, func(row []any) (any, error) {
		return !table.IsNull(row[i]), nil
	})
}
