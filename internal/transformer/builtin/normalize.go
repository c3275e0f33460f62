package builtin

import (
	"strings"

	"agroetl/pkg/records"
)

// Normalize scrubs string cells of a decoded table in place: non-breaking
// spaces (including the mojibake "Â " left by Latin-1 round trips) become
// plain spaces and the value is trimmed. A trailing "Â" whose NBSP was
// already trimmed by the parser is dropped too. Non-string cells are
// untouched.
type Normalize struct{}

var nbspReplacer = strings.NewReplacer("\u00c2\u00a0", " ", "\u00a0", " ")

// Table applies the scrub to every cell of t and returns it.
func (Normalize) Table(t records.Table) records.Table {
	for _, row := range t.Rows {
		for j, v := range row {
			if s, ok := v.(string); ok {
				row[j] = scrub(s)
			}
		}
	}
	return t
}

// Header applies the scrub to column names.
func (Normalize) Header(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = scrub(c)
	}
	return out
}

func scrub(s string) string {
	s = strings.TrimSpace(nbspReplacer.Replace(s))
	return strings.TrimSpace(strings.TrimSuffix(s, "\u00c2"))
}
