package model

import "time"

// Listing mirrors a live marketplace listing. The marketplace owns this
// state; we only read it and propose writes.
type Listing struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	CurrentPrice float64 `json:"current_price"`
	Quantity     int     `json:"quantity,omitempty"`
}

// UpdateOutcome describes how one plan entry fared during execution.
type UpdateOutcome string

const (
	OutcomePlanned UpdateOutcome = "planned" // dry run, not applied
	OutcomeApplied UpdateOutcome = "applied"
	OutcomeFailed  UpdateOutcome = "failed"
)

// UpdatePlanEntry is one proposed price change. Entries are created by the
// reconciler, consumed once by the executor, then only live on in the log.
type UpdatePlanEntry struct {
	ListingID   string        `json:"listing_id"`
	Title       string        `json:"title"`
	OldPrice    float64       `json:"old_price"`
	NewPrice    float64       `json:"new_price"`
	RuleLabel   string        `json:"rule,omitempty"`
	EventName   string        `json:"event,omitempty"`
	Tier        Tier          `json:"tier,omitempty"`
	Outcome     UpdateOutcome `json:"outcome,omitempty"`
	FailureInfo string        `json:"failure,omitempty"`
}

// UpdateLog is the write-once record of one executor run. The most recent
// log is the sole input to reversal.
type UpdateLog struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	DryRun          bool              `json:"dry_run"`
	ListingCount    int               `json:"listing_count"`
	ActiveRuleCount int               `json:"active_rule_count"`
	Entries         []UpdatePlanEntry `json:"entries"`
}

// Succeeded returns the entries that were actually applied. These are the
// only entries a reversal replays.
func (l UpdateLog) Succeeded() []UpdatePlanEntry {
	var out []UpdatePlanEntry
	for _, e := range l.Entries {
		if e.Outcome == OutcomeApplied {
			out = append(out, e)
		}
	}
	return out
}
