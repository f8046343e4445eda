// Package rules loads pricing rules from the configured primary source
// with a persisted local fallback.
package rules

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/model"
)

// RawRule is one unvalidated row from a rule source, in the spreadsheet's
// column shape. Normalization turns it into a model.PricingRule or
// rejects it.
type RawRule struct {
	ItemLabel       string
	Keywords        string // comma-joined
	EventName       string
	Category        string
	TierStr         string
	IncreasePercent string
	StartDate       string // YYYY-MM-DD
	EndDate         string // YYYY-MM-DD
	EnabledFlag     string
}

// Source supplies candidate pricing rules from an external system.
type Source interface {
	Fetch(ctx context.Context) ([]RawRule, error)
}

// Normalize validates and coerces a raw row. A row missing its item label,
// keywords, or window dates is unusable and dropped (ok=false). Malformed
// numeric fields are coerced to the tier's policy default so one bad cell
// cannot break the whole load.
func Normalize(raw RawRule) (model.PricingRule, bool) {
	item := strings.TrimSpace(raw.ItemLabel)
	keywords := splitKeywords(raw.Keywords)
	if item == "" || len(keywords) == 0 {
		return model.PricingRule{}, false
	}

	start, err1 := time.Parse(model.DateOnly, strings.TrimSpace(raw.StartDate))
	end, err2 := time.Parse(model.DateOnly, strings.TrimSpace(raw.EndDate))
	if err1 != nil || err2 != nil || end.Before(start) {
		return model.PricingRule{}, false
	}

	tier, ok := model.ParseTier(raw.TierStr)
	if !ok {
		tier = model.TierMedium
	}

	increase, err := strconv.Atoi(strings.TrimSpace(raw.IncreasePercent))
	if err != nil || increase < 0 {
		increase = tier.Policy().IncreasePercent
		zap.L().Warn("rules: coerced malformed increase percent",
			zap.String("item", item),
			zap.String("raw", raw.IncreasePercent),
			zap.Int("coerced", increase),
		)
	}

	return model.PricingRule{
		ItemLabel:       item,
		Keywords:        keywords,
		Category:        strings.TrimSpace(raw.Category),
		EventName:       strings.TrimSpace(raw.EventName),
		Tier:            tier,
		IncreasePercent: increase,
		Window: model.PricingWindow{
			// Sheet rows carry only the window; the anchor event date is
			// the window end minus the fixed grace period.
			EventDate:  end.AddDate(0, 0, -model.GracePeriodDays),
			PriceStart: start,
			PriceEnd:   end,
			Tier:       tier,
		},
		Enabled: parseEnabled(raw.EnabledFlag),
	}, true
}

func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// parseEnabled treats an absent flag as enabled, matching the sheet
// convention where only an explicit N/false/0 disables a rule.
func parseEnabled(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NO", "FALSE", "0":
		return false
	default:
		return true
	}
}
