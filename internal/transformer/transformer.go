// Package transformer composes column-level operations over a table.
//
// A Transformer mutates a *table.Table in place. Chain runs transformers in
// order and stops at the first error, which is returned wrapped with the
// failing transformer's position and name.
package transformer

import (
	"fmt"

	"retailetl/internal/table"
)

// Transformer mutates t in place.
type Transformer interface {
	Apply(t *table.Table) error
}

// Func adapts a plain function to Transformer.
type Func func(t *table.Table) error

// Apply calls f(t).
func (f Func) Apply(t *table.Table) error { return f(t) }

// Named attaches a label used in Chain errors and logs.
type Named struct {
	Name string
	Transformer
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order.
func (c Chain) Apply(t *table.Table) error {
	for i, tr := range c {
		if err := tr.Apply(t); err != nil {
			return fmt.Errorf("transform %d (%s): %w", i, nameOf(tr), err)
		}
	}
	return nil
}

func nameOf(tr Transformer) string {
	if n, ok := tr.(Named); ok && n.Name != "" {
		return n.Name
	}
	if s, ok := tr.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", tr)
}
