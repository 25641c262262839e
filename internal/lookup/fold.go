package lookup

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Key returns the exact-match key for a name: trimmed and lowercased.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Fold returns the loose-match form of a name: lowercased, accents
// stripped and inner whitespace collapsed. "Shangrilá " folds to "shangrila".
func Fold(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	space := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
