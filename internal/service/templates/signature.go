package templates

import (
	"sort"
	"strings"
)

const signatureSep = "|"

// headerEscaper keeps a literal separator inside a header from splitting it.
var headerEscaper = strings.NewReplacer(`\`, `\\`, signatureSep, `\`+signatureSep)

// normalizeHeader lowercases a header, collapses its whitespace and escapes
// the separator.
func normalizeHeader(h string) string {
	return headerEscaper.Replace(strings.Join(strings.Fields(strings.ToLower(h)), " "))
}

// Signature identifies a header layout in column order.
func Signature(headers []string) string {
	parts := make([]string, len(headers))
	for i, h := range headers {
		parts[i] = normalizeHeader(h)
	}
	return strings.Join(parts, signatureSep)
}

// sortedSignature identifies a header layout regardless of column order.
func sortedSignature(sig string) string {
	parts := splitSignature(sig)
	sort.Strings(parts)
	return strings.Join(parts, signatureSep)
}

// splitSignature cuts sig at unescaped separators. Parts stay escaped.
func splitSignature(sig string) []string {
	if sig == "" {
		return nil
	}
	var parts []string
	var b strings.Builder
	for i := 0; i < len(sig); i++ {
		switch c := sig[i]; {
		case c == '\\' && i+1 < len(sig):
			b.WriteByte(c)
			i++
			b.WriteByte(sig[i])
		case c == signatureSep[0]:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(parts, b.String())
}

// overlap is the Jaccard ratio of two header sets.
func overlap(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, h := range a {
		set[h] = true
	}
	union := len(set)
	shared := 0
	seen := make(map[string]bool, len(b))
	for _, h := range b {
		if seen[h] {
			continue
		}
		seen[h] = true
		if set[h] {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
