package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/pkg/openai"
)

// OpenAIOracle classifies tiers through the OpenAI chat completions API.
type OpenAIOracle struct {
	client openai.Client
	model  string
}

// NewOpenAI wraps an OpenAI client as a tier oracle. An empty model defers
// to the client's default.
func NewOpenAI(client openai.Client, model string) *OpenAIOracle {
	return &OpenAIOracle{client: client, model: model}
}

func (o *OpenAIOracle) Name() string { return "openai" }

func (o *OpenAIOracle) ClassifyTier(ctx context.Context, req consensus.Request) (*consensus.Opinion, error) {
	maxTokens := classifyMaxTokens
	resp, err := o.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: openai classify")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("oracle: openai returned no choices")
	}
	return parseOpinion(resp.Choices[0].Message.Content)
}
