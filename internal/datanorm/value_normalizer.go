package datanorm

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignite/shipment-importer/internal/lookup"
)

// ApplyTransform runs a named transform over a raw cell. Unknown transform
// names behave like "trim". Output is always trimmed.
func ApplyTransform(raw, transform string) string {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(transform) {
	case "upper":
		return strings.ToUpper(v)
	case "lower":
		return strings.ToLower(v)
	case "title":
		return titleCase(v)
	case "digits":
		return normalizePhone(v)
	case "number":
		if n, ok := ParseNumber(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return ""
	case "boolean":
		if v == "" {
			return ""
		}
		return strconv.FormatBool(ParseBool(v))
	}
	return strings.Join(strings.Fields(v), " ")
}

// titleCase collapses whitespace and title-cases each word. Casers keep
// state, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Spanish).String(strings.Join(strings.Fields(s), " "))
}

func normalizePhone(raw string) string {
	// Keep only digits and leading +
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r == '+' && i == 0 {
			b.WriteRune(r)
		} else if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseNumber reads amounts written either way round: "1.250,50", "1,250.50",
// "$ 300", "2kg". A lone comma is a decimal separator.
func ParseNumber(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || strings.Count(s, "-") > 1 || strings.LastIndex(s, "-") > 0 {
		return 0, false
	}

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseBool is lenient; anything it does not recognize as true is false.
func ParseBool(raw string) bool {
	switch lookup.Fold(raw) {
	case "true", "1", "yes", "y", "t", "si", "s", "x", "paid", "pago", "pagado", "ok":
		return true
	}
	return false
}
