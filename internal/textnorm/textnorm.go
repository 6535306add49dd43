// Package textnorm normalizes free text before it is compared.
//
// Every match in the engine (column headers, concept prefixes, keyword groups,
// anchor keywords) goes through Normalize, so "Débito", "DEBITO" and
// "  debito " compare equal.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips diacritics and collapses whitespace.
// It is idempotent.
//
// Lowercasing runs before decomposition: some code points (U+0130) lowercase
// into a letter plus a combining mark, which the later pass then removes.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	// transform.Chain keeps state, so build it per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// HasPrefix reports whether the normalized form of s starts with the
// normalized form of prefix, ending on a word boundary: "saldo al" matches
// "Saldo al 31/03" but not "Saldo alquiler". An empty prefix never matches.
func HasPrefix(s, prefix string) bool {
	p := Normalize(prefix)
	n := Normalize(s)
	if p == "" || !strings.HasPrefix(n, p) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(n[len(p):])
	return len(n) == len(p) || !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

// Contains reports whether the normalized form of s contains the normalized
// form of substr. An empty substr never matches.
func Contains(s, substr string) bool {
	sub := Normalize(substr)
	return sub != "" && strings.Contains(Normalize(s), sub)
}
