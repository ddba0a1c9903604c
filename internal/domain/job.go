package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

const (
	MaxTitleLen       = 200
	MaxCompanyLen     = 200
	MaxDescriptionLen = 5000
	MaxReasonLen      = 400

	UnknownTitle   = "Job Posting"
	UnknownCompany = "Unknown"

	DescriptionPlaceholder = "Could not fetch description."
)

var validate = validator.New()

// Lead is one job posting as scraped from a board. MatchScore and MatchReason
// stay nil until the lead has gone through scoring; a zero score is a real score.
type Lead struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Company     string  `json:"company" validate:"required,max=200"`
	URL         string  `json:"url" validate:"required,http_url"`
	Source      string  `json:"source" validate:"required"`
	IsRemote    bool    `json:"is_remote"`
	Description string  `json:"description" validate:"max=5000"`
	MatchScore  *int    `json:"match_score" validate:"omitempty,min=0,max=100"`
	MatchReason *string `json:"match_reason" validate:"omitempty,max=400"`
}

// Scored reports whether the lead has been through the scoring gate.
func (l Lead) Scored() bool { return l.MatchScore != nil }

// WithScore returns a copy of l carrying the given verdict.
func (l Lead) WithScore(score int, reason string) Lead {
	s := score
	r := reason
	l.MatchScore = &s
	l.MatchReason = &r
	return l
}

// Sanitize collapses whitespace, fills placeholders and enforces length caps.
func Sanitize(l Lead) Lead {
	l.Title = Truncate(squash(l.Title), MaxTitleLen)
	if l.Title == "" {
		l.Title = UnknownTitle
	}
	l.Company = Truncate(squash(l.Company), MaxCompanyLen)
	if l.Company == "" {
		l.Company = UnknownCompany
	}
	l.URL = strings.TrimSpace(l.URL)
	l.Source = strings.TrimSpace(l.Source)
	l.Description = Truncate(strings.TrimSpace(l.Description), MaxDescriptionLen)
	if l.MatchReason != nil {
		r := Truncate(strings.TrimSpace(*l.MatchReason), MaxReasonLen)
		l.MatchReason = &r
	}
	return l
}

// Validate checks the structural invariants of a lead.
func Validate(l Lead) error {
	if err := validate.Struct(l); err != nil {
		return eris.Wrapf(err, "invalid lead %q", l.URL)
	}
	return nil
}

// Truncate cuts s to at most n characters (runes, not bytes).
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func squash(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
