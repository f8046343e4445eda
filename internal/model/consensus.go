package model

// Event is a named occasion with a free-text date expression, e.g.
// "December 8", "first Monday in May", "early December". Produced by an
// oracle or static catalog; never mutated after creation.
type Event struct {
	Name    string `json:"name" yaml:"name"`
	DateStr string `json:"date" yaml:"date"`
}

// TierVote is a single oracle's opinion on an item/event pair. Votes are
// ephemeral; only the aggregated Consensus is persisted.
type TierVote struct {
	Source     string  `json:"source"`
	Tier       Tier    `json:"tier"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Consensus aggregates tier votes for one item/event pair.
type Consensus struct {
	Tier        Tier         `json:"tier"`
	Confidence  float64      `json:"confidence"`
	HasMajority bool         `json:"has_majority"`
	Votes       map[Tier]int `json:"votes"`
	Rationales  []string     `json:"rationales,omitempty"`
	OracleCount int          `json:"oracle_count"`
}

// FallbackConsensus is returned when no oracle responds at all. Total
// oracle unavailability is not an error.
func FallbackConsensus() Consensus {
	return Consensus{
		Tier:        TierMedium,
		Confidence:  0.5,
		HasMajority: false,
		Votes:       map[Tier]int{},
	}
}
