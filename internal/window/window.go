// Package window derives concrete pricing windows from free-text event
// dates and a tier policy.
package window

import (
	"time"

	"github.com/dateradar/pricing-cli/internal/model"
)

// Compute resolves an event date expression against now and derives the
// pricing window for the tier. An event date already past this calendar
// year rolls forward exactly one year; the decision is baked into the
// returned window and never re-evaluated. Returns ok=false when the date
// expression cannot be parsed; the caller skips the rule.
func Compute(eventDateStr string, tier model.Tier, now time.Time) (model.PricingWindow, bool) {
	eventDate, ok := ParseEventDate(eventDateStr, now.Year())
	if !ok {
		return model.PricingWindow{}, false
	}

	// Annual recurrence: at most one rollover.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if eventDate.Before(today) {
		eventDate = eventDate.AddDate(1, 0, 0)
	}

	policy := tier.Policy()
	return model.PricingWindow{
		EventDate:  eventDate,
		PriceStart: eventDate.AddDate(0, 0, -policy.WindowDays),
		PriceEnd:   eventDate.AddDate(0, 0, model.GracePeriodDays),
		Tier:       tier,
	}, true
}
