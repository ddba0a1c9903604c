package rank

import (
	_ "embed"
	"strings"

	"vagahunter-engine/internal/domain"
)

// maxPromptDescription keeps prompts small; long postings repeat themselves.
const maxPromptDescription = 4000

//go:embed prompts/score.md
var scorePrompt string

// BuildPrompt fills the scoring prompt for one description.
func BuildPrompt(description, query string) string {
	r := strings.NewReplacer(
		"{{query}}", strings.TrimSpace(query),
		"{{description}}", domain.Truncate(strings.TrimSpace(description), maxPromptDescription),
	)
	return r.Replace(scorePrompt)
}
