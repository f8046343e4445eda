package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/pkg/gemini"
)

// GeminiOracle classifies tiers through the Gemini generateContent API.
type GeminiOracle struct {
	client gemini.Client
	model  string
}

// NewGemini wraps a Gemini client as a tier oracle. An empty model defers
// to the client's default.
func NewGemini(client gemini.Client, model string) *GeminiOracle {
	return &GeminiOracle{client: client, model: model}
}

func (o *GeminiOracle) Name() string { return "gemini" }

func (o *GeminiOracle) ClassifyTier(ctx context.Context, req consensus.Request) (*consensus.Opinion, error) {
	maxTokens := classifyMaxTokens
	resp, err := o.client.GenerateContent(ctx, gemini.GenerateContentRequest{
		Model: o.model,
		SystemInstruction: &gemini.Content{
			Parts: []gemini.Part{{Text: systemPrompt}},
		},
		Contents: []gemini.Content{
			{Role: "user", Parts: []gemini.Part{{Text: userPrompt(req)}}},
		},
		GenerationConfig: &gemini.GenerationConfig{
			MaxOutputTokens: &maxTokens,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: gemini classify")
	}
	text := resp.Text()
	if text == "" {
		return nil, eris.New("oracle: gemini returned no candidates")
	}
	return parseOpinion(text)
}
