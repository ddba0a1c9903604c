package rank

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vagahunter-engine/internal/config"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{95.7, 96},
		{"95.7", 96},
		{" 42 ", 42},
		{json.Number("88"), 88},
		{json.Number("abc"), 0},
		{int64(101), 100},
		{float32(-0.4), 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{"ninety", 0},
		{true, 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampScore(tt.in), "%#v", tt.in)
	}
}

func TestCleanReason(t *testing.T) {
	assert.Equal(t, "", CleanReason(nil))
	assert.Equal(t, "good fit for go", CleanReason("  good\n fit\tfor go "))
	assert.Equal(t, "12", CleanReason(12))
	assert.Len(t, []rune(CleanReason(strings.Repeat("é", 1000))), 400)
}

func TestParseVerdict(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		v, err := ParseVerdict(`{"score": 72, "reason": "solid"}`)
		require.NoError(t, err)
		assert.Equal(t, 72, ClampScore(v.Score))
		assert.Equal(t, "solid", v.Reason)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		v, err := ParseVerdict("Here you go:\n```json\n{\"score\": \"95.7\", \"reason\": \"x\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, 96, ClampScore(v.Score))
	})

	t.Run("no object", func(t *testing.T) {
		_, err := ParseVerdict("I cannot rate this")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedVerdict))
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := ParseVerdict(`{"score": 7,,}`)
		assert.True(t, errors.Is(err, ErrMalformedVerdict))
	})
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(strings.Repeat("a", 5000), "  golang remoto ")

	assert.Contains(t, p, "golang remoto")
	assert.NotContains(t, p, "{{query}}")
	assert.NotContains(t, p, "{{description}}")
	assert.NotContains(t, p, strings.Repeat("a", maxPromptDescription+1))
}

func TestKeywordScorer(t *testing.T) {
	s := NewKeywordScorer(config.AIConfig{
		KeywordRules: []config.Rule{{Tag: "backend", Weight: 30, Any: []string{"API", "microservices"}}},
		Penalties:    []config.Penalty{{Reason: "senior only", Weight: -40, Any: []string{"10+ years"}}},
	})

	v, err := s.Score(context.Background(), "Build APIs in Go. Remote.", "go remote")
	require.NoError(t, err)
	assert.Equal(t, 90, ClampScore(v.Score))
	assert.Equal(t, "matched: go, remote, backend", v.Reason)

	v, err = s.Score(context.Background(), "Java role, 10+ years required", "go")
	require.NoError(t, err)
	assert.Equal(t, 0, ClampScore(v.Score))
	assert.Equal(t, "no keywords matched; penalties: senior only", v.Reason)
}

func TestNewScorer(t *testing.T) {
	ctx := context.Background()

	s, err := NewScorer(ctx, config.AIConfig{Provider: "gemini"}, "")
	require.NoError(t, err)
	assert.Equal(t, StaticScorer{Reason: ReasonNotConfigured}, s)

	s, err = NewScorer(ctx, config.AIConfig{Provider: "none"}, "k")
	require.NoError(t, err)
	assert.Equal(t, StaticScorer{Reason: ReasonDisabled}, s)

	s, err = NewScorer(ctx, config.AIConfig{Provider: "keyword"}, "")
	require.NoError(t, err)
	assert.IsType(t, KeywordScorer{}, s)

	s, err = NewScorer(ctx, config.AIConfig{Provider: "anthropic", Model: "gemini-2.0-flash"}, "k")
	require.NoError(t, err)
	require.IsType(t, &AnthropicScorer{}, s)
	assert.Equal(t, DefaultAnthropicModel, s.(*AnthropicScorer).model)

	_, err = NewScorer(ctx, config.AIConfig{Provider: "openai"}, "k")
	assert.Error(t, err)
}

func TestStaticScorer_ThroughGate(t *testing.T) {
	g := NewGate(StaticScorer{Reason: ReasonNotConfigured}, 3, 0)
	got := g.ScoreOne(context.Background(), lead("https://a.example/1", "desc"), "go")
	assert.Equal(t, 0, *got.MatchScore)
	assert.Equal(t, ReasonNotConfigured, *got.MatchReason)
}
