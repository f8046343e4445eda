package reconcile

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/dateradar/pricing-cli/internal/model"
)

// AdjustmentType selects how a bulk adjustment computes the new price.
type AdjustmentType string

const (
	PercentIncrease AdjustmentType = "percent_increase"
	PercentDecrease AdjustmentType = "percent_decrease"
	FixedIncrease   AdjustmentType = "fixed_increase"
	FixedDecrease   AdjustmentType = "fixed_decrease"
	SetPrice        AdjustmentType = "set_price"
)

// minPrice is the marketplace floor; bulk adjustments never go below it.
const minPrice = 0.99

// Adjustment is a category-wide price change independent of rules.
type Adjustment struct {
	Type  AdjustmentType `json:"type"`
	Value float64        `json:"value"`
}

// Apply computes the adjusted price before clamping.
func (a Adjustment) Apply(old float64) (float64, error) {
	switch a.Type {
	case PercentIncrease:
		return old * (1 + a.Value/100), nil
	case PercentDecrease:
		return old * (1 - a.Value/100), nil
	case FixedIncrease:
		return old + a.Value, nil
	case FixedDecrease:
		return old - a.Value, nil
	case SetPrice:
		return a.Value, nil
	default:
		return 0, eris.Errorf("reconcile: unknown adjustment type %q", a.Type)
	}
}

// BuildBulkPlan applies one adjustment to an explicit set of listing ids.
// New prices are clamped to the 0.99 floor and entries whose price would
// move by less than a cent are skipped as no-ops. Unknown ids are ignored:
// the snapshot simply no longer contains them.
func BuildBulkPlan(listings []model.Listing, ids []string, adj Adjustment) ([]model.UpdatePlanEntry, error) {
	byID := make(map[string]model.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
	}

	var plan []model.UpdatePlanEntry
	for _, id := range ids {
		listing, ok := byID[id]
		if !ok {
			continue
		}

		adjusted, err := adj.Apply(listing.CurrentPrice)
		if err != nil {
			return nil, err
		}
		newPrice := math.Max(minPrice, roundCents(adjusted))

		if math.Abs(newPrice-listing.CurrentPrice) < 0.01 {
			continue
		}

		plan = append(plan, model.UpdatePlanEntry{
			ListingID: listing.ID,
			Title:     listing.Title,
			OldPrice:  listing.CurrentPrice,
			NewPrice:  newPrice,
		})
	}
	return plan, nil
}
