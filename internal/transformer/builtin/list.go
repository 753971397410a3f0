package builtin

import (
	"fmt"
	"slices"

	"retailetl/internal/table"
)

// DecodeList replaces the text encoding of a list column with []string.
// Cells that are not lists are left unchanged.
type DecodeList struct {
	Col string
}

func (d DecodeList) String() string { return fmt.Sprintf("decode_list(%s)", d.Col) }

// Apply implements transformer.Transformer.
func (d DecodeList) Apply(t *table.Table) error {
	i, err := t.Col(d.Col)
	if err != nil {
		return err
	}
	for _, row := range t.Rows {
		if l, ok := table.DecodeList(row[i]); ok {
			row[i] = l
		}
	}
	return nil
}

// ListLen sets Dst to the length of the list in Src, 0 when Src is not a
// list.
type ListLen struct {
	Src, Dst string
}

func (l ListLen) String() string { return fmt.Sprintf("list_len(%s->%s)", l.Src, l.Dst) }

// Apply implements transformer.Transformer.
func (l ListLen) Apply(t *table.Table) error {
	i, err := t.Col(l.Src)
	if err != nil {
		return err
	}
	return t.Set(l.Dst, func(row []any) (any, error) {
		items, _ := table.DecodeList(row[i])
		return int64(len(items)), nil
	})
}

// ListContains sets Dst to whether the list in Src contains Value. Never
// null: a cell that is not a list gives false.
type ListContains struct {
	Src, Dst string
	Value    string
}

func (l ListContains) String() string {
	return fmt.Sprintf("list_contains(%s∋%q->%s)", l.Src, l.Value, l.Dst)
}

// Apply implements transformer.Transformer.
func (l ListContains) Apply(t *table.Table) error {
	i, err := t.Col(l.Src)
	if err != nil {
		return err
	}
	return t.Set(l.Dst, func(row []any) (any, error) {
		items, _ := table.DecodeList(row[i])
		return slices.Contains(items, l.Value), nil
	})
}
