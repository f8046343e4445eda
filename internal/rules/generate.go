package rules

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/catalog"
	"github.com/dateradar/pricing-cli/internal/consensus"
	"github.com/dateradar/pricing-cli/internal/model"
	"github.com/dateradar/pricing-cli/internal/window"
)

// classifier is the consensus surface the generator needs.
type classifier interface {
	Classify(ctx context.Context, req consensus.Request) model.Consensus
}

// GeneratedRule pairs a pricing rule with the consensus evidence behind it.
type GeneratedRule struct {
	Rule      model.PricingRule
	BasePrice float64
	NewPrice  float64
	Consensus model.Consensus
}

// Generate builds pricing rules for every event/item pairing in the
// catalog. Each pairing is classified by the oracle panel, then the
// window is computed from the consensus tier. Pairings whose event date
// cannot be parsed are skipped with a warning.
func Generate(ctx context.Context, cat *catalog.Catalog, cls classifier, now time.Time) []GeneratedRule {
	var out []GeneratedRule
	for _, event := range cat.Events {
		for _, item := range cat.Items {
			if !item.MatchesEvent(event) {
				continue
			}

			cons := cls.Classify(ctx, consensus.Request{
				ItemLabel: item.Name,
				Category:  item.Category,
				EventName: event.Name,
				EventDate: event.Date,
			})

			win, ok := window.Compute(event.Date, cons.Tier, now)
			if !ok {
				zap.L().Warn("rules: skipping pairing with unparseable event date",
					zap.String("event", event.Name),
					zap.String("date", event.Date),
				)
				continue
			}

			policy := cons.Tier.Policy()
			basePrice := cat.BasePrice(item.Category)

			out = append(out, GeneratedRule{
				Rule: model.PricingRule{
					ItemLabel:       item.Name,
					Keywords:        item.Keywords,
					Category:        item.Category,
					EventName:       event.Name,
					Tier:            cons.Tier,
					IncreasePercent: policy.IncreasePercent,
					Window:          win,
					Enabled:         true,
				},
				BasePrice: basePrice,
				NewPrice:  roundCents(basePrice * (1 + float64(policy.IncreasePercent)/100)),
				Consensus: cons,
			})

			zap.L().Info("rules: generated",
				zap.String("item", item.Name),
				zap.String("event", event.Name),
				zap.String("tier", string(cons.Tier)),
				zap.Bool("has_majority", cons.HasMajority),
				zap.Float64("confidence", cons.Confidence),
			)
		}
	}
	return out
}

// ExportCSV renders generated rules as a repricer-tool import file:
// one header row, then rule name, pipe-joined keywords, percent change,
// and window bounds.
func ExportCSV(generated []GeneratedRule) string {
	lines := []string{"Rule Name,Keywords,Price Change,Start Date,End Date"}
	for _, g := range generated {
		name := fmt.Sprintf("%s - %s", truncate(g.Rule.EventName, 30), truncate(g.Rule.ItemLabel, 20))
		lines = append(lines, fmt.Sprintf(`"%s","%s","+%d%%","%s","%s"`,
			name,
			strings.Join(g.Rule.Keywords, "|"),
			g.Rule.IncreasePercent,
			g.Rule.Window.PriceStart.Format(model.DateOnly),
			g.Rule.Window.PriceEnd.Format(model.DateOnly),
		))
	}
	return strings.Join(lines, "\n")
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
