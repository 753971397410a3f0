package builtin

import (
	"fmt"

	"retailetl/internal/table"
)

// Round rounds Col in place to Places decimals using decimal arithmetic.
// Nulls stay null; non-numeric text is an error.
type Round struct {
	Col    string
	Places int32
}

func (r Round) String() string { return fmt.Sprintf("round(%s,%d)", r.Col, r.Places) }

// Apply implements transformer.Transformer.
func (r Round) Apply(t *table.Table) error {
	i, err := t.Col(r.Col)
	if err != nil {
		return err
	}
	return t.Set(r.Col, func(row []any) (any, error) {
		d, ok, err := table.Decimal(row[i])
		if err != nil || !ok {
			return nil, err
		}
		return d.Round(r.Places), nil
	})
}

// Sum sets Dst to the sum of Cols rounded to Places. Null if any operand is
// null.
type Sum struct {
	Cols   []string
	Dst    string
	Places int32
}

func (s Sum) String() string { return fmt.Sprintf("sum(%v->%s)", s.Cols, s.Dst) }

// Apply implements transformer.Transformer.
func (s Sum) Apply(t *table.Table) error {
	idx, err := cols(t, s.Cols)
	if err != nil {
		return err
	}
	return t.Set(s.Dst, func(row []any) (any, error) {
		d0, ok, err := table.Decimal(row[idx[0]])
		if err != nil || !ok {
			return nil, err
		}
		for _, i := range idx[1:] {
			d, ok, err := table.Decimal(row[i])
			if err != nil || !ok {
				return nil, err
			}
			d0 = d0.Add(d)
		}
		return d0.Round(s.Places), nil
	})
}

// Product sets Dst to the float product of Cols. Null if any operand is null.
type Product struct {
	Cols []string
	Dst  string
}

func (p Product) String() string { return fmt.Sprintf("product(%v->%s)", p.Cols, p.Dst) }

// Apply implements transformer.Transformer.
func (p Product) Apply(t *table.Table) error {
	idx, err := cols(t, p.Cols)
	if err != nil {
		return err
	}
	return t.Set(p.Dst, func(row []any) (any, error) {
		acc := 1.0
		for _, i := range idx {
			f, ok, err := table.Float(row[i])
			if err != nil || !ok {
				return nil, err
			}
			acc *= f
		}
		return acc, nil
	})
}

func cols(t *table.Table, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no operand columns")
	}
	out := make([]int, len(names))
	for j, n := range names {
		i, err := t.Col(n)
		if err != nil {
			return nil, err
		}
		out[j] = i
	}
	return out, nil
}
