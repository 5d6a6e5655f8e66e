package game_test

import (
	"testing"

	"github.com/cardtable/webclient/internal/game"
	"github.com/stretchr/testify/require"
)

func TestIsPlayable(t *testing.T) {
	wild := &game.RuleSet{ID: "wild-eights", WildRanks: []game.Rank{"8"}}
	scenarios := []struct {
		description    string
		mutate         func(s *game.GameState)
		player         string
		candidate      game.Card
		expectedResult bool
	}{
		{
			description:    "same_suit",
			player:         "p1",
			candidate:      card("K", game.Hearts),
			expectedResult: true,
		},
		{
			description:    "same_value_as_top",
			player:         "p1",
			candidate:      card("7", game.Clubs),
			expectedResult: true,
		},
		{
			description:    "different_suit_and_value",
			player:         "p1",
			candidate:      card("5", game.Diamonds),
			expectedResult: false,
		},
		{
			description:    "no_suit_in_force",
			mutate:         func(s *game.GameState) { s.CurrentSuit = "" },
			player:         "p1",
			candidate:      card("5", game.Diamonds),
			expectedResult: true,
		},
		{
			description:    "wild_rank_from_rule_set",
			mutate:         func(s *game.GameState) { s.Rules = wild },
			player:         "p1",
			candidate:      card("8", game.Spades),
			expectedResult: true,
		},
		{
			description:    "eight_is_not_wild_by_default",
			player:         "p1",
			candidate:      card("8", game.Spades),
			expectedResult: false,
		},
		{
			description:    "not_players_turn",
			player:         "p2",
			candidate:      card("K", game.Hearts),
			expectedResult: false,
		},
		{
			description:    "game_over",
			mutate:         func(s *game.GameState) { s.GameOver = true; s.WinnerID = "p2" },
			player:         "p1",
			candidate:      card("K", game.Hearts),
			expectedResult: false,
		},
		{
			description:    "wild_not_playable_out_of_turn",
			mutate:         func(s *game.GameState) { s.Rules = wild },
			player:         "p3",
			candidate:      card("8", game.Spades),
			expectedResult: false,
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			s := threePlayers()
			if scenario.mutate != nil {
				scenario.mutate(s)
			}
			require.Equal(t, scenario.expectedResult, s.IsPlayable(scenario.candidate, scenario.player))
			// No hidden state: asking again gives the same answer.
			require.Equal(t, scenario.expectedResult, s.IsPlayable(scenario.candidate, scenario.player))
		})
	}
}

func TestAnnotateHand(t *testing.T) {
	s := threePlayers()
	hand := s.AnnotateHand("p1")
	require.Len(t, hand, 2)
	require.True(t, hand[0].Playable)
	require.False(t, hand[1].Playable)
	// The state itself is not annotated.
	require.False(t, s.PlayerStates["p1"].Hand[0].Playable)
	require.Nil(t, s.AnnotateHand("nobody"))
}
