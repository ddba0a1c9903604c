package rank

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiScorer asks a Gemini model for a verdict.
type GeminiScorer struct {
	client *genai.Client
	model  string
}

// NewGeminiScorer builds a scorer on the Gemini API. baseURL is only set in
// tests or behind a proxy.
func NewGeminiScorer(ctx context.Context, apiKey, model, baseURL string) (*GeminiScorer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("gemini: api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: new client")
	}
	return &GeminiScorer{client: client, model: model}, nil
}

func (s *GeminiScorer) Score(ctx context.Context, description, query string) (RawVerdict, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(BuildPrompt(description, query)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		return RawVerdict{}, eris.Wrap(err, "gemini: generate content")
	}
	text, err := geminiText(resp)
	if err != nil {
		return RawVerdict{}, err
	}
	return ParseVerdict(text)
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", eris.Wrap(ErrMalformedVerdict, "gemini: no candidates")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", eris.Wrap(ErrMalformedVerdict, "gemini: empty content")
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", eris.Wrapf(ErrMalformedVerdict, "gemini: no text (finish reason %s)", c.FinishReason)
	}
	return b.String(), nil
}
