package scrape

import (
	"vagahunter-engine/internal/domain"
)

// KeepLead decides whether a scraped lead may leave the aggregator.
func KeepLead(l domain.Lead) (keep bool, reason string) {
	if l.URL == "" {
		return false, "missing_url"
	}
	if err := domain.Validate(l); err != nil {
		return false, "invalid"
	}
	return true, ""
}
