package board

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	Programathor   = "programathor"
	WeWorkRemotely = "weworkremotely"
	RemoteOK       = "remoteok"

	RemoteMarker = "[Remote]"
)

var remoteWords = []string{"remoto", "remote"}

// Specs returns the built-in boards in merge priority order: earlier boards
// win when the same posting shows up on several of them.
func Specs() []Spec {
	return []Spec{
		{
			Name:             Programathor,
			BaseURL:          "https://programathor.com.br",
			ListingURL:       "https://programathor.com.br/jobs-{query}",
			QuerySeparator:   "-",
			CardSelector:     ".cell-list",
			TitleSelector:    ".cell-list-content h3",
			CompanySelectors: []string{".cell-list-content-icon span"},
			DetailSelectors:  []string{".line-height-2-4", ".wrapper-description", "article"},
			RemoteKeywords:   remoteWords,
			DefaultCompany:   "Programathor Job",
		},
		{
			Name:             WeWorkRemotely,
			BaseURL:          "https://weworkremotely.com",
			ListingURL:       "https://weworkremotely.com/remote-jobs/search?term={query}",
			QuerySeparator:   "+",
			CardSelector:     "section.jobs article ul li",
			TitleSelector:    "span.title",
			CompanySelectors: []string{"span.company"},
			LinkSelector:     "a[href*='/remote-jobs/']",
			DetailSelectors: []string{
				".lis-container__job__content__description",
				"#job-listing-show-container",
				".listing-container",
			},
			RemoteOnly:     true,
			DefaultCompany: "WeWorkRemotely Job",
		},
		{
			Name:             RemoteOK,
			BaseURL:          "https://remoteok.com",
			ListingURL:       "https://remoteok.com/remote-{query}-jobs",
			QuerySeparator:   "-",
			CardSelector:     "tr.job",
			TitleSelector:    "h2",
			CompanySelectors: []string{"h3[itemprop='name']", "h3"},
			LinkAttr:         "data-href",
			DetailSelectors:  []string{"div.description", "div.markdown", ".expandContents"},
			RemoteOnly:       true,
			DefaultCompany:   "RemoteOK Job",
		},
	}
}

// Lookup returns the named boards, still in priority order. An empty list
// selects every board.
func Lookup(names []string) ([]Spec, error) {
	all := Specs()
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		want[n] = true
	}
	var out []Spec
	for _, s := range all {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, eris.Errorf("unknown source(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// Names lists the built-in board names in priority order.
func Names() []string {
	specs := Specs()
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
