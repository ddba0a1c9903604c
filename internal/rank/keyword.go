package rank

import (
	"context"
	"strings"

	"vagahunter-engine/internal/config"
)

// queryWeight is the share of the score earned by covering every query term.
const queryWeight = 60

// KeywordScorer rates descriptions offline from configured rules. It is the
// fallback when no model is wanted.
type KeywordScorer struct {
	Rules     []config.Rule
	Penalties []config.Penalty
}

func NewKeywordScorer(cfg config.AIConfig) KeywordScorer {
	return KeywordScorer{Rules: cfg.KeywordRules, Penalties: cfg.Penalties}
}

func (s KeywordScorer) Score(_ context.Context, description, query string) (RawVerdict, error) {
	text := strings.ToLower(description)

	score := 0
	var tags, penalties []string

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) > 0 {
		hit := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				hit++
				tags = append(tags, t)
			}
		}
		score += queryWeight * hit / len(terms)
	}

	for _, r := range s.Rules {
		for _, needle := range r.Any {
			if strings.Contains(text, strings.ToLower(needle)) {
				score += r.Weight
				tags = append(tags, r.Tag)
				break
			}
		}
	}

	for _, p := range s.Penalties {
		for _, needle := range p.Any {
			if strings.Contains(text, strings.ToLower(needle)) {
				score += p.Weight
				penalties = append(penalties, p.Reason)
				break
			}
		}
	}

	var reason []string
	if tags = uniq(tags); len(tags) > 0 {
		reason = append(reason, "matched: "+strings.Join(tags, ", "))
	} else {
		reason = append(reason, "no keywords matched")
	}
	if penalties = uniq(penalties); len(penalties) > 0 {
		reason = append(reason, "penalties: "+strings.Join(penalties, ", "))
	}

	return RawVerdict{Score: score, Reason: strings.Join(reason, "; ")}, nil
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
