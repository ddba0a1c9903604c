package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstText returns the cleaned text of the first selector in the chain that
// yields non-empty text inside sel.
func FirstText(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if t := CleanText(sel.Find(s).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// FirstAttr returns the first non-empty attribute value among the matches of
// selector, or the attribute of sel itself when selector is empty.
func FirstAttr(sel *goquery.Selection, selector, attr string) string {
	if attr == "" {
		attr = "href"
	}
	if selector == "" {
		v, _ := sel.Attr(attr)
		return strings.TrimSpace(v)
	}
	var out string
	sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(attr)
		out = strings.TrimSpace(v)
		return out == ""
	})
	return out
}
