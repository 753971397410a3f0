package builtin

import (
	"fmt"
	"math"

	"retailetl/internal/table"
)

// ParseTimes replaces text timestamps in Columns with time.Time values.
// Text that matches none of Layouts becomes null and is counted in Invalid.
type ParseTimes struct {
	Columns []string
	// Layouts are tried in order; table.DefaultTimeLayouts when empty.
	Layouts []string

	// Invalid counts nulled cells per column after Apply.
	Invalid map[string]int
}

func (p *ParseTimes) String() string { return fmt.Sprintf("parse_times%v", p.Columns) }

// Apply implements transformer.Transformer.
func (p *ParseTimes) Apply(t *table.Table) error {
	if p.Invalid == nil {
		p.Invalid = make(map[string]int, len(p.Columns))
	}
	for _, c := range p.Columns {
		i, err := t.Col(c)
		if err != nil {
			return err
		}
		for _, row := range t.Rows {
			tm, ok, err := table.Time(row[i], p.Layouts)
			switch {
			case err != nil:
				row[i] = nil
				p.Invalid[c]++
			case !ok:
				row[i] = nil
			default:
				row[i] = tm
			}
		}
	}
	return nil
}

// InvalidTotal sums Invalid.
func (p *ParseTimes) InvalidTotal() int {
	n := 0
	for _, v := range p.Invalid {
		n += v
	}
	return n
}

// DaysBetween sets Dst to the whole number of days from From to To, floored.
// Null when either side is null.
type DaysBetween struct {
	From, To, Dst string
	Layouts       []string
}

func (d DaysBetween) String() string { return fmt.Sprintf("days(%s..%s->%s)", d.From, d.To, d.Dst) }

// Apply implements transformer.Transformer. Text that is not a timestamp is
// an error here; ParseTimes has already nulled bad values upstream.
func (d DaysBetween) Apply(t *table.Table) error {
	fi, err := t.Col(d.From)
	if err != nil {
		return err
	}
	ti, err := t.Col(d.To)
	if err != nil {
		return err
	}
	return t.Set(d.Dst, func(row []any) (any, error) {
		from, ok1, err := table.Time(row[fi], d.Layouts)
		if err != nil {
			return nil, err
		}
		to, ok2, err := table.Time(row[ti], d.Layouts)
		if err != nil {
			return nil, err
		}
		if !ok1 || !ok2 {
			return nil, nil
		}
		return int64(math.Floor(to.Sub(from).Hours() / 24)), nil
	})
}
