package dataset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeLabel canonicalizes a free-text categorical value so that labels
// differing only in case or whitespace collapse to one: " electronics " and
// "ELECTRONICS" both become "Electronics". Only the first letter of each
// whitespace separated word is capitalized, so "home-garden" stays
// "Home-garden".
func NormalizeLabel(s string) string {
	// Casers keep state and must not be shared across the loader goroutines.
	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)

	fields := strings.Fields(lower.String(s))
	for i, f := range fields {
		_, size := utf8.DecodeRuneInString(f)
		fields[i] = upper.String(f[:size]) + f[size:]
	}
	return strings.Join(fields, " ")
}
