package rank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"vagahunter-engine/internal/domain"
)

// ErrMalformedVerdict marks collaborator output that could not be decoded.
var ErrMalformedVerdict = errors.New("malformed verdict")

// RawVerdict is a collaborator's answer before it has been sanity-checked.
// Score may be a number, a numeric string or garbage.
type RawVerdict struct {
	Score  any `json:"score"`
	Reason any `json:"reason"`
}

// Scorer rates how well a job description matches a search.
type Scorer interface {
	Score(ctx context.Context, description, query string) (RawVerdict, error)
}

// ClampScore coerces a raw score to an integer in [0,100]. Numeric values are
// rounded to the nearest integer; anything non-numeric becomes 0.
func ClampScore(v any) int {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Round(f)
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f)
}

// CleanReason renders a raw reason as trimmed single-line text of at most
// MaxReasonLen characters.
func CleanReason(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	s = strings.Join(strings.Fields(s), " ")
	return domain.Truncate(s, domain.MaxReasonLen)
}

// ParseVerdict decodes a model reply. Markdown code fences and any prose
// around the JSON object are ignored.
func ParseVerdict(text string) (RawVerdict, error) {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return RawVerdict{}, eris.Wrapf(ErrMalformedVerdict, "no json object in %q", domain.Truncate(text, 80))
	}

	dec := json.NewDecoder(strings.NewReader(body[start : end+1]))
	dec.UseNumber()
	var v RawVerdict
	if err := dec.Decode(&v); err != nil {
		return RawVerdict{}, eris.Wrapf(ErrMalformedVerdict, "decode: %v", err)
	}
	return v, nil
}
