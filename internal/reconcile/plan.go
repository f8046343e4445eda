// Package reconcile matches live listings against active pricing rules
// and produces update plans.
package reconcile

import (
	"math"
	"strings"

	"github.com/dateradar/pricing-cli/internal/model"
)

// BuildPlan matches each listing to at most one active rule and proposes
// a price change. Rules are tried in their given order and the first
// keyword hit wins, with no scoring or best-match search. An entry is
// emitted only when the new price is strictly higher than the current
// one, which is what makes repeated runs idempotent: an already-elevated
// price fails the check next time. Deterministic for fixed inputs.
func BuildPlan(listings []model.Listing, activeRules []model.PricingRule) []model.UpdatePlanEntry {
	var plan []model.UpdatePlanEntry

	for _, listing := range listings {
		rule, ok := matchRule(listing.Title, activeRules)
		if !ok {
			continue
		}

		newPrice := roundCents(listing.CurrentPrice * (1 + float64(rule.IncreasePercent)/100))
		if newPrice <= listing.CurrentPrice {
			continue
		}

		plan = append(plan, model.UpdatePlanEntry{
			ListingID: listing.ID,
			Title:     listing.Title,
			OldPrice:  listing.CurrentPrice,
			NewPrice:  newPrice,
			RuleLabel: rule.ItemLabel,
			EventName: rule.EventName,
			Tier:      rule.Tier,
		})
	}

	return plan
}

// matchRule returns the first rule with a keyword contained in the title,
// case-insensitively.
func matchRule(title string, rules []model.PricingRule) (model.PricingRule, bool) {
	titleLower := strings.ToLower(title)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(titleLower, strings.ToLower(kw)) {
				return rule, true
			}
		}
	}
	return model.PricingRule{}, false
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
