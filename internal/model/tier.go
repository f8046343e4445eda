package model

import "strings"

// Tier is one of four ordered severity levels for an event's sales impact.
type Tier string

const (
	TierMinor  Tier = "MINOR"
	TierMedium Tier = "MEDIUM"
	TierMajor  Tier = "MAJOR"
	TierPeak   Tier = "PEAK"
)

// TierPolicy holds the fixed pricing policy for one tier.
type TierPolicy struct {
	IncreasePercent int `json:"increase_percent"`
	WindowDays      int `json:"window_days"`
}

// tierPolicies is the canonical tier → policy table. Window days count
// backward from the event date; the 2-day post-event grace period is the
// same for every tier.
var tierPolicies = map[Tier]TierPolicy{
	TierMinor:  {IncreasePercent: 5, WindowDays: 7},
	TierMedium: {IncreasePercent: 15, WindowDays: 10},
	TierMajor:  {IncreasePercent: 25, WindowDays: 14},
	TierPeak:   {IncreasePercent: 35, WindowDays: 14},
}

// GracePeriodDays is how long the elevated price holds after the event.
const GracePeriodDays = 2

// tierSeverity orders tiers for tie-breaking. Higher wins.
var tierSeverity = map[Tier]int{
	TierMinor:  0,
	TierMedium: 1,
	TierMajor:  2,
	TierPeak:   3,
}

// ParseTier normalizes a raw tier string to a Tier. Returns false for
// anything outside the four-tier enum.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := tierPolicies[t]
	return t, ok
}

// Policy returns the pricing policy for the tier. Unknown tiers fall back
// to the MEDIUM policy so a bad row can never zero out a window.
func (t Tier) Policy() TierPolicy {
	if p, ok := tierPolicies[t]; ok {
		return p
	}
	return tierPolicies[TierMedium]
}

// Severity returns the tier's ordinal rank (MINOR lowest, PEAK highest).
func (t Tier) Severity() int {
	return tierSeverity[t]
}

// Valid reports whether the tier is one of the four known levels.
func (t Tier) Valid() bool {
	_, ok := tierPolicies[t]
	return ok
}
