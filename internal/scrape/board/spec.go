package board

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Spec describes one job board declaratively. The same extraction algorithm
// runs for every board; only the data here changes.
type Spec struct {
	Name string

	// BaseURL resolves relative links found on listing pages.
	BaseURL string
	// ListingURL carries a {query} placeholder for the slugged search terms.
	ListingURL     string
	QuerySeparator string

	CardSelector     string
	TitleSelector    string
	CompanySelectors []string
	// LinkSelector picks the posting link inside a card. When empty the card's
	// own LinkAttr is used, then the first a[href].
	LinkSelector string
	LinkAttr     string

	DetailSelectors []string

	// RemoteOnly boards list remote postings exclusively; their titles get the
	// RemoteMarker prefix. Other boards are checked for RemoteKeywords.
	RemoteOnly     bool
	RemoteKeywords []string

	DefaultCompany string
}

const queryPlaceholder = "{query}"

// ListingFor fills the listing URL template with an already slugged query.
func (s Spec) ListingFor(slug string) string {
	return strings.ReplaceAll(s.ListingURL, queryPlaceholder, slug)
}

func (s Spec) validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return eris.New("board spec: name is required")
	case !strings.Contains(s.ListingURL, queryPlaceholder):
		return eris.Errorf("board spec %s: listing url must contain %s", s.Name, queryPlaceholder)
	case s.CardSelector == "":
		return eris.Errorf("board spec %s: card selector is required", s.Name)
	case s.TitleSelector == "":
		return eris.Errorf("board spec %s: title selector is required", s.Name)
	}
	return nil
}
