package game

// RuleSet describes the gameplay variant in use. It is defined by the server;
// the client only uses it to decide what to gray out and which modals to open.
type RuleSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`

	WildRanks       []Rank `json:"wild_ranks,omitempty"`        // Always playable.
	SuitChoiceRanks []Rank `json:"suit_choice_ranks,omitempty"` // Player declares a suit after playing.
	TargetRanks     []Rank `json:"target_ranks,omitempty"`      // Player picks an opponent after playing.

	AnnounceThreshold int  `json:"announce_threshold,omitempty"` // Max hand size for "one card".
	DrawBeforePass    bool `json:"draw_before_pass,omitempty"`   // Passing requires a draw first.
}

// DefaultRules is used when the server did not describe the rule set.
func DefaultRules() RuleSet {
	return RuleSet{
		ID:                "standard-rules",
		Name:              "Standard Rules",
		AnnounceThreshold: DefaultAnnounceThreshold,
	}
}

// IsWild reports whether cards of rank r are always playable.
func (r RuleSet) IsWild(rank Rank) bool {
	return hasRank(r.WildRanks, rank)
}

// RequiresSuitChoice reports whether playing rank requires declaring a suit.
func (r RuleSet) RequiresSuitChoice(rank Rank) bool {
	return hasRank(r.SuitChoiceRanks, rank)
}

// RequiresTarget reports whether playing rank requires selecting an opponent.
func (r RuleSet) RequiresTarget(rank Rank) bool {
	return hasRank(r.TargetRanks, rank)
}

// Threshold returns the announce threshold, never below 1.
func (r RuleSet) Threshold() int {
	if r.AnnounceThreshold < 1 {
		return DefaultAnnounceThreshold
	}
	return r.AnnounceThreshold
}

func hasRank(ranks []Rank, rank Rank) bool {
	for _, r := range ranks {
		if r == rank {
			return true
		}
	}
	return false
}
