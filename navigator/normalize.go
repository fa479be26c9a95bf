package navigator

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization, drops control characters and
// collapses internal whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// symptomKey is the case-insensitive lookup key of a symptom.
func symptomKey(s string) string {
	return strings.ToLower(NormalizeText(s))
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}
