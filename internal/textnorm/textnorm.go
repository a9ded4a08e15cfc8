// Package textnorm folds free text into comparable ASCII form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes accents, drops every non-ASCII rune, lowercases and trims.
// "Não chegou!" becomes "nao chegou!".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// transformers keep state, so each call builds its own chain
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(fold, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// ContainsAny reports whether text contains any of the keywords as a substring.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Title capitalises the first letter of each word and lowercases the rest.
func Title(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(strings.TrimSpace(s))
}
