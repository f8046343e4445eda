package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/pkg/anthropic"
)

const (
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
	classifyMaxTokens     = 256
)

// AnthropicOracle classifies tiers through the Anthropic Messages API.
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

// NewAnthropic wraps an Anthropic client as a tier oracle.
func NewAnthropic(client anthropic.Client, model string) *AnthropicOracle {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicOracle{client: client, model: model}
}

func (o *AnthropicOracle) Name() string { return "claude" }

func (o *AnthropicOracle) ClassifyTier(ctx context.Context, req consensus.Request) (*consensus.Opinion, error) {
	resp, err := o.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     o.model,
		MaxTokens: classifyMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: userPrompt(req)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: claude classify")
	}
	resp.Usage.LogCost(o.model, "classify")
	return parseOpinion(resp.Text())
}
