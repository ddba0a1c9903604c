package util

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	absolutePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
	otherScheme    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+\-]*:`)
)

// NormalizeURL turns a scraped href into an absolute, canonical http(s) URL.
// Relative references are resolved against base; a scheme-relative or bare
// host reference gets https. Returns "" when raw cannot be made absolute.
// Normalizing an already normalized URL returns it unchanged.
func NormalizeURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return ""
	}

	switch {
	case absolutePrefix.MatchString(raw):
	case strings.HasPrefix(raw, "//"):
		raw = "https:" + raw
	case otherScheme.MatchString(raw):
		// mailto:, javascript:, tel: and friends
		return ""
	case base != "":
		b, err := url.Parse(NormalizeURL(base, ""))
		if err != nil || b.Host == "" {
			return ""
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		raw = b.ResolveReference(ref).String()
	case looksLikeHost(raw):
		raw = "https://" + raw
	default:
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	if u.Host == "" {
		return ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.ForceQuery = false
	u.RawQuery = cleanQuery(u.Query())
	return u.String()
}

// cleanQuery drops tracking parameters and encodes the rest in a stable order.
func cleanQuery(q url.Values) string {
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}
	for k := range q {
		sort.Strings(q[k])
	}
	return q.Encode()
}

func looksLikeHost(raw string) bool {
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, ".") {
		return false
	}
	host := raw
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return strings.Contains(host, ".") && !strings.HasSuffix(host, ".")
}
