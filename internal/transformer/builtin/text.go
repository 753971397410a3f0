package builtin

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"retailetl/internal/table"
)

// FoldASCII trims and lowercases s, applies NFKD and drops every non-ASCII
// rune, so "  São Paulo " becomes "sao paulo". FoldASCII(FoldASCII(s)) ==
// FoldASCII(s).
func FoldASCII(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = asciiOnly(s)
	}
	// NFKD can surface uppercase letters and spaces (U+210C, U+00A0).
	return strings.ToLower(strings.TrimSpace(out))
}

func asciiOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] <= unicode.MaxASCII {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// FoldText writes FoldASCII(Src) into Dst. Nulls stay null.
type FoldText struct {
	Src, Dst string
}

func (f FoldText) String() string { return fmt.Sprintf("fold(%s->%s)", f.Src, f.Dst) }

// Apply implements transformer.Transformer.
func (f FoldText) Apply(t *table.Table) error {
	i, err := t.Col(f.Src)
	if err != nil {
		return err
	}
	return t.Set(f.Dst, func(row []any) (any, error) {
		s, ok := table.Text(row[i])
		if !ok {
			return nil, nil
		}
		return FoldASCII(s), nil
	})
}
