package rank

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"vagahunter-engine/internal/config"
)

const (
	ReasonNotConfigured = "API key not configured"
	ReasonDisabled      = "scoring disabled"
)

// StaticScorer answers every request with the same verdict.
type StaticScorer struct {
	Reason string
}

func (s StaticScorer) Score(context.Context, string, string) (RawVerdict, error) {
	return RawVerdict{Score: 0, Reason: s.Reason}, nil
}

// NewScorer builds the collaborator named by cfg.Provider. A model provider
// without a key degrades to a StaticScorer so searches still complete.
func NewScorer(ctx context.Context, cfg config.AIConfig, apiKey string) (Scorer, error) {
	switch cfg.Provider {
	case "gemini", "anthropic":
		if apiKey == "" {
			zap.L().Warn("no api key for scoring provider", zap.String("provider", cfg.Provider))
			return StaticScorer{Reason: ReasonNotConfigured}, nil
		}
	}

	switch cfg.Provider {
	case "gemini":
		return NewGeminiScorer(ctx, apiKey, cfg.Model, cfg.BaseURL)
	case "anthropic":
		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		model := cfg.Model
		if model == config.Default().AI.Model {
			// the default model name belongs to gemini
			model = DefaultAnthropicModel
		}
		return NewAnthropicScorer(apiKey, model, opts...)
	case "keyword":
		return NewKeywordScorer(cfg), nil
	case "none", "":
		return StaticScorer{Reason: ReasonDisabled}, nil
	default:
		return nil, eris.Errorf("rank: unknown provider %q", cfg.Provider)
	}
}
