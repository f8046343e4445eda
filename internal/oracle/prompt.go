// Package oracle adapts the LLM provider clients to the classifier's
// Oracle interface. All providers share one prompt and one response
// contract so their votes are comparable.
package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/consensus"
)

// systemPrompt is shared verbatim across every provider. Keeping it
// identical is what makes cross-provider votes meaningful.
const systemPrompt = `You are a pricing analyst for collectibles. Classify this event's significance for selling this item.

TIERS:
- MINOR (5% increase): Loosely related awareness days, minor celebrity mentions, tangential connections
- MEDIUM (15% increase): Artist/subject birthdays, album release anniversaries, related cultural events
- MAJOR (25% increase): Death anniversaries, significant milestones (25th, 40th), documentary releases
- PEAK (35% increase): Once-in-lifetime (50th anniversaries), major auction house sales, viral cultural moments

Respond with ONLY a JSON object:
{"tier": "MINOR|MEDIUM|MAJOR|PEAK", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`

// userPrompt renders the per-item portion of the prompt.
func userPrompt(req consensus.Request) string {
	return fmt.Sprintf("ITEM: %s\nCATEGORY: %s\nEVENT: %s\nEVENT DATE: %s",
		req.ItemLabel, req.Category, req.EventName, req.EventDate)
}

// tierJSON is the response contract every provider must honor.
type tierJSON struct {
	Tier       string   `json:"tier"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// extractJSON strips a markdown code fence when the model wraps its answer
// in one, returning the inner payload otherwise untouched.
func extractJSON(s string) string {
	if !strings.Contains(s, "```") {
		return strings.TrimSpace(s)
	}
	parts := strings.Split(s, "```")
	if len(parts) < 2 {
		return strings.TrimSpace(s)
	}
	inner := strings.TrimPrefix(strings.TrimSpace(parts[1]), "json")
	return strings.TrimSpace(inner)
}

// parseOpinion decodes a provider's raw completion into an Opinion.
func parseOpinion(raw string) (*consensus.Opinion, error) {
	var out tierJSON
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return nil, eris.Wrap(err, "oracle: decode tier response")
	}
	if out.Tier == "" {
		return nil, eris.New("oracle: response missing tier")
	}
	return &consensus.Opinion{
		Tier:       out.Tier,
		Confidence: out.Confidence,
		Rationale:  out.Reasoning,
	}, nil
}
