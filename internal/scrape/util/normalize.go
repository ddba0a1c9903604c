package util

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// ContainsAny is a case-insensitive substring test against several needles.
func ContainsAny(text string, needles []string) bool {
	lt := strings.ToLower(text)
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" && strings.Contains(lt, n) {
			return true
		}
	}
	return false
}

// Slug lower-cases the query, strips diacritics and joins its words with sep.
// Each word is query-escaped so the result is safe in a path or a query string.
//
//	Slug("  Desenvolvedor  Júnior ", "-") == "desenvolvedor-junior"
func Slug(query, sep string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, query)
	if err != nil {
		s = query
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = url.QueryEscape(w)
	}
	return strings.Join(words, sep)
}
