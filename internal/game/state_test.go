package game_test

import (
	"testing"

	"github.com/cardtable/webclient/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotate(t *testing.T) {
	s := threePlayers()
	assert.Equal(t, "p2", s.Rotate("p1", game.Clockwise, 1))
	assert.Equal(t, "p3", s.Rotate("p1", game.Clockwise, 2))
	assert.Equal(t, "p1", s.Rotate("p1", game.Clockwise, 3))
	assert.Equal(t, "p3", s.Rotate("p1", game.Counterclockwise, 1))
	assert.Equal(t, "p2", s.Rotate("p1", game.Counterclockwise, 2))
	assert.Equal(t, "p1", s.Rotate("ghost", game.Clockwise, 1))
}

func TestSeatingOrderDefaultsToSortedIDs(t *testing.T) {
	s := threePlayers()
	s.Players = nil
	s.PlayerStates["a0"] = &game.PlayerState{}
	assert.Equal(t, []string{"a0", "p1", "p2", "p3"}, s.SeatingOrder())
	assert.Equal(t, []string{"a0", "p2", "p3"}, s.Opponents("p1"))

	var empty *game.GameState
	assert.Nil(t, empty.SeatingOrder())
	assert.Equal(t, "", empty.Rotate("p1", game.Clockwise, 1))
}

func TestParseCard(t *testing.T) {
	for input, want := range map[string]game.Card{
		"8h":  card("8", game.Hearts),
		"10S": card("10", game.Spades),
		"qd":  card("Q", game.Diamonds),
		"Ac":  card("A", game.Clubs),
	} {
		got, err := game.ParseCard(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}
	for _, input := range []string{"", "h", "1h", "8x", "11c"} {
		_, err := game.ParseCard(input)
		assert.Error(t, err, input)
	}

	suit, err := game.ParseSuit("S")
	require.NoError(t, err)
	assert.Equal(t, game.Spades, suit)
	_, err = game.ParseSuit("stars")
	assert.Error(t, err)
}

func TestSortHand(t *testing.T) {
	hand := []game.Card{
		card("K", game.Spades), card("2", game.Hearts), card("10", game.Clubs),
		card("A", game.Hearts), card("2", game.Spades), card("9", game.Hearts),
	}
	original := append([]game.Card(nil), hand...)

	assert.Equal(t, []game.Card{
		card("2", game.Hearts), card("9", game.Hearts), card("A", game.Hearts),
		card("10", game.Clubs),
		card("2", game.Spades), card("K", game.Spades),
	}, game.SortHand(hand, game.BySuit))
	assert.Equal(t, []game.Card{
		card("2", game.Hearts), card("2", game.Spades), card("9", game.Hearts),
		card("10", game.Clubs), card("K", game.Spades), card("A", game.Hearts),
	}, game.SortHand(hand, game.ByValue))
	assert.Equal(t, original, hand, "input is not reordered")
	assert.Empty(t, game.SortHand(nil, game.BySuit))

	order, err := game.ParseSortOrder(" Value ")
	require.NoError(t, err)
	assert.Equal(t, game.ByValue, order)
	_, err = game.ParseSortOrder("color")
	assert.Error(t, err)
}

func TestLocalPending(t *testing.T) {
	l := game.Local{Game: threePlayers(), Self: "p1"}
	assert.True(t, l.MyTurn())
	assert.Equal(t, 2, l.Me().Size())
	assert.False(t, l.IsPending(card("8", game.Hearts)))

	l.Pending = &game.PendingAction{Action: game.PlayCard{Card: card("8", game.Hearts)}}
	assert.True(t, l.IsPending(card("8", game.Hearts)))
	assert.False(t, l.IsPending(card("5", game.Diamonds)))
}
