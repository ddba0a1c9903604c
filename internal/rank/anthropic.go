package rank

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const (
	DefaultAnthropicModel = "claude-haiku-4-5-20251001"

	anthropicMaxTokens = 300
)

// AnthropicScorer asks a Claude model for a verdict.
type AnthropicScorer struct {
	client sdk.Client
	model  string
}

func NewAnthropicScorer(apiKey, model string, opts ...option.RequestOption) (*AnthropicScorer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("anthropic: api key is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicScorer{client: sdk.NewClient(opts...), model: model}, nil
}

func (s *AnthropicScorer) Score(ctx context.Context, description, query string) (RawVerdict, error) {
	msg, err := s.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(s.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: sdk.Float(0),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(BuildPrompt(description, query))),
		},
	})
	if err != nil {
		return RawVerdict{}, eris.Wrap(err, "anthropic: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return RawVerdict{}, eris.Wrap(ErrMalformedVerdict, "anthropic: no text blocks")
	}
	return ParseVerdict(b.String())
}
