package model

import "time"

// DateOnly is the wire format for all calendar dates in rules and logs.
const DateOnly = "2006-01-02"

// PricingWindow is the concrete date range during which an elevated price
// applies. price_start = event_date - window_days(tier);
// price_end = event_date + 2 days. price_start <= event_date <= price_end
// always holds.
type PricingWindow struct {
	EventDate  time.Time `json:"event_date"`
	PriceStart time.Time `json:"price_start"`
	PriceEnd   time.Time `json:"price_end"`
	Tier       Tier      `json:"tier"`
}

// Contains reports whether day falls inside the window, inclusive on both
// ends. Comparison is by calendar date, not instant.
func (w PricingWindow) Contains(day time.Time) bool {
	d := truncateToDay(day)
	return !d.Before(truncateToDay(w.PriceStart)) && !d.After(truncateToDay(w.PriceEnd))
}

// Expired reports whether today is strictly past the window's end.
func (w PricingWindow) Expired(today time.Time) bool {
	return truncateToDay(today).After(truncateToDay(w.PriceEnd))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// PricingRule is a durable pricing record: when a listing matching Keywords
// is live inside Window, its price is raised by IncreasePercent. Rules are
// replaced wholesale by re-running classification, never partially edited.
// An expired rule is excluded from matching by date but retained for audit.
type PricingRule struct {
	ItemLabel       string        `json:"item"`
	Keywords        []string      `json:"keywords"`
	Category        string        `json:"category,omitempty"`
	EventName       string        `json:"event"`
	Tier            Tier          `json:"tier"`
	IncreasePercent int           `json:"increase_percent"`
	Window          PricingWindow `json:"window"`
	Enabled         bool          `json:"enabled"`
}

// Active reports whether the rule should be matched today: enabled and
// window containing today. The enabled flag is deliberately not reconciled
// with expiry; see the repository docs.
func (r PricingRule) Active(today time.Time) bool {
	return r.Enabled && r.Window.Contains(today)
}
