// Package lobby holds the game-setup wizard and the invite search, free of
// any UI code.
package lobby

import (
	"errors"
	"slices"
)

// Game types offered by the setup form.
var GameTypes = []string{"standard", "quick", "tournament"}

// MaxPlayersOptions are the table sizes offered by the setup form.
var MaxPlayersOptions = []int{2, 3, 4, 6}

// MaxTimeLimit in minutes. 0 means no limit.
const MaxTimeLimit = 60

var (
	ErrNoRuleSet         = errors.New("please select a rule set for the game")
	ErrInvalidGameType   = errors.New("unknown game type")
	ErrInvalidMaxPlayers = errors.New("unsupported number of players")
	ErrInvalidTimeLimit  = errors.New("time limit must be between 0 and 60 minutes")
)

// Settings of a game to create.
type Settings struct {
	GameType   string
	MaxPlayers int
	TimeLimit  int // Minutes, 0 for no limit.
	UseAI      bool
	RuleSetID  string
}

// DefaultSettings returns the form's initial values. RuleSetID is filled in
// once rule sets are loaded.
func DefaultSettings() Settings {
	return Settings{GameType: "standard", MaxPlayers: 4, TimeLimit: 0}
}

// Validate checks the settings before a game is created.
func (s Settings) Validate() error {
	if !slices.Contains(GameTypes, s.GameType) {
		return ErrInvalidGameType
	}
	if !slices.Contains(MaxPlayersOptions, s.MaxPlayers) {
		return ErrInvalidMaxPlayers
	}
	if s.TimeLimit < 0 || s.TimeLimit > MaxTimeLimit {
		return ErrInvalidTimeLimit
	}
	if s.RuleSetID == "" {
		return ErrNoRuleSet
	}
	return nil
}
