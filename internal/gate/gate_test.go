package gate_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cardtable/webclient/internal/connection"
	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/gate"
	"github.com/cardtable/webclient/internal/interaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spySender records actions instead of sending them.
type spySender struct {
	sent []game.Action
	err  error
}

func (s *spySender) Send(_ context.Context, a game.Action) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, a)
	return nil
}

type source struct{ local game.Local }

func (s *source) Local() game.Local { return s.local }

func hearts(v game.Rank) game.Card { return game.Card{Suit: game.Hearts, Value: v} }

// basicState: p1 to play 8♥ on 7♥.
func basicState() *game.GameState {
	return &game.GameState{
		CurrentPlayerID: "p1",
		NextPlayerID:    "p2",
		Direction:       game.Clockwise,
		Players:         []string{"p1", "p2"},
		PlayerStates: map[string]*game.PlayerState{
			"p1": {Hand: []game.Card{hearts("8")}},
			"p2": {CardCount: 4},
		},
		DiscardPile: []game.Card{hearts("7")},
	}
}

func newGate(l game.Local) (*gate.Gate, *spySender, *source, *interaction.Machine) {
	spy := &spySender{}
	src := &source{local: l}
	modes := interaction.NewMachine()
	return &gate.Gate{Sender: spy, Source: src, Modes: modes}, spy, src, modes
}

func TestBasicPlay(t *testing.T) {
	g, spy, _, _ := newGate(game.Local{Game: basicState(), Self: "p1"})
	var sent []game.Action
	g.OnSent = func(a game.Action) { sent = append(sent, a) }

	require.NoError(t, g.PlayCard(context.Background(), hearts("8")))
	require.Len(t, spy.sent, 1)
	assert.Equal(t, spy.sent, sent)

	env, err := game.Encode(spy.sent[0])
	require.NoError(t, err)
	wire, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"play_card","data":{"card":{"suit":"hearts","value":"8"}}}`, string(wire))
}

func TestIllegalPlayNeverReachesTransport(t *testing.T) {
	g, spy, _, _ := newGate(game.Local{Game: basicState(), Self: "p2"})
	for _, c := range []game.Card{hearts("8"), hearts("K"), {Suit: game.Spades, Value: "2"}} {
		require.ErrorIs(t, g.PlayCard(context.Background(), c), gate.ErrNotYourTurn)
	}
	require.ErrorIs(t, g.DrawCard(context.Background()), gate.ErrNotYourTurn)
	require.ErrorIs(t, g.PassTurn(context.Background()), gate.ErrNotYourTurn)
	assert.Empty(t, spy.sent)
}

func TestPlayChecks(t *testing.T) {
	s := basicState()
	s.CurrentSuit = game.Hearts
	s.PlayerStates["p1"].Hand = []game.Card{hearts("8"), {Suit: game.Clubs, Value: "7"}, {Suit: game.Clubs, Value: "3"}}

	scenarios := []struct {
		description string
		local       game.Local
		card        game.Card
		expected    error
	}{
		{"same suit", game.Local{Game: s, Self: "p1"}, hearts("8"), nil},
		{"same value", game.Local{Game: s, Self: "p1"}, game.Card{Suit: game.Clubs, Value: "7"}, nil},
		{"no match", game.Local{Game: s, Self: "p1"}, game.Card{Suit: game.Clubs, Value: "3"}, gate.ErrCardNotPlayable},
		{"not in hand", game.Local{Game: s, Self: "p1"}, hearts("K"), gate.ErrCardNotPlayable},
		{"no game yet", game.Local{Self: "p1"}, hearts("8"), gate.ErrNoGame},
		{
			"pending",
			game.Local{Game: s, Self: "p1", Pending: &game.PendingAction{Action: game.PlayCard{Card: hearts("8")}}},
			hearts("8"),
			gate.ErrCardNotPlayable,
		},
	}
	for _, sc := range scenarios {
		t.Run(sc.description, func(t *testing.T) {
			err := gate.CheckPlay(sc.local, sc.card)
			if sc.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, sc.expected)
			}
		})
	}
}

func TestGameOverFreezesActions(t *testing.T) {
	r := game.Reducer{Self: "p1"}
	over := r.Apply(basicState(), game.GameEnded{WinnerID: "p2", Scores: map[string]int{"p1": 8}})
	g, spy, _, _ := newGate(game.Local{Game: over, Self: "p1"})

	require.ErrorIs(t, g.PlayCard(context.Background(), hearts("8")), gate.ErrGameOver)
	require.ErrorIs(t, g.DrawCard(context.Background()), gate.ErrGameOver)
	require.ErrorIs(t, g.PassTurn(context.Background()), gate.ErrGameOver)
	require.ErrorIs(t, g.AnnounceOneCard(context.Background()), gate.ErrGameOver)
	require.ErrorIs(t, g.ChooseSuit(context.Background(), game.Spades), gate.ErrGameOver)
	assert.Empty(t, spy.sent)
}

func TestPassRequiresDraw(t *testing.T) {
	s := basicState()
	s.Rules = &game.RuleSet{ID: "strict", DrawBeforePass: true}
	g, spy, src, _ := newGate(game.Local{Game: s, Self: "p1"})

	require.ErrorIs(t, g.PassTurn(context.Background()), gate.ErrNothingDrawnYet)
	require.NoError(t, g.DrawCard(context.Background()))
	src.local.DrewThisTurn = true
	require.NoError(t, g.PassTurn(context.Background()))
	assert.Equal(t, []game.Action{game.DrawCard{}, game.PassTurn{}}, spy.sent)

	// Without the rule, passing needs no draw.
	s2 := basicState()
	require.NoError(t, gate.CheckPass(game.Local{Game: s2, Self: "p1"}))
}

func TestAnnounceOneCard(t *testing.T) {
	twoCards := basicState()
	twoCards.PlayerStates["p1"].Hand = append(twoCards.PlayerStates["p1"].Hand, hearts("9"))
	announced := basicState()
	announced.PlayerStates["p1"].AnnouncedOneCard = true
	lenient := basicState()
	lenient.Rules = &game.RuleSet{ID: "lenient", AnnounceThreshold: 2}
	lenient.PlayerStates["p1"].Hand = append(lenient.PlayerStates["p1"].Hand, hearts("9"))
	empty := basicState()
	empty.PlayerStates["p1"].Hand = nil

	scenarios := []struct {
		description string
		state       *game.GameState
		expected    error
	}{
		{"one card", basicState(), nil},
		{"two cards", twoCards, gate.ErrHandSizeInvalid},
		{"already announced", announced, gate.ErrAlreadyAnnounced},
		{"threshold from rule set", lenient, nil},
		{"empty hand", empty, gate.ErrHandSizeInvalid},
	}
	for _, sc := range scenarios {
		t.Run(sc.description, func(t *testing.T) {
			g, spy, _, _ := newGate(game.Local{Game: sc.state, Self: "p1"})
			err := g.AnnounceOneCard(context.Background())
			if sc.expected == nil {
				require.NoError(t, err)
				assert.Equal(t, []game.Action{game.AnnounceOneCard{}}, spy.sent)
			} else {
				require.ErrorIs(t, err, sc.expected)
				assert.Empty(t, spy.sent)
			}
		})
	}

	// Announcing is allowed out of turn.
	s := basicState()
	s.CurrentPlayerID = "p2"
	require.NoError(t, gate.CheckAnnounce(game.Local{Game: s, Self: "p1"}))
}

func TestChoicesNeedTheirMode(t *testing.T) {
	g, spy, _, modes := newGate(game.Local{Game: basicState(), Self: "p1"})
	ctx := context.Background()

	require.ErrorIs(t, g.ChooseSuit(ctx, game.Spades), gate.ErrWrongMode)
	require.ErrorIs(t, g.ChooseTarget(ctx, "p2"), gate.ErrWrongMode)
	require.ErrorIs(t, g.ChooseCounterAction(ctx, game.Accept), gate.ErrWrongMode)

	modes.Demand(interaction.AwaitingSuitChoice{})
	modes.Demand(interaction.AwaitingTargetChoice{Players: []string{"p2"}})
	modes.Demand(interaction.AwaitingCounterChoice{Card: hearts("2")})

	require.ErrorIs(t, g.ChooseTarget(ctx, "p2"), gate.ErrWrongMode, "target is queued, not active")
	require.ErrorIs(t, g.ChooseSuit(ctx, "stars"), gate.ErrInvalidChoice)
	require.NoError(t, g.ChooseSuit(ctx, game.Spades))
	assert.Equal(t, interaction.KindTarget, modes.Current().Kind())

	require.ErrorIs(t, g.ChooseTarget(ctx, "p1"), gate.ErrInvalidChoice)
	require.NoError(t, g.ChooseTarget(ctx, "p2"))
	assert.Equal(t, interaction.KindCounter, modes.Current().Kind())

	require.ErrorIs(t, g.ChooseCounterAction(ctx, "maybe"), gate.ErrInvalidChoice)
	require.NoError(t, g.ChooseCounterAction(ctx, game.Counter))
	assert.Equal(t, interaction.KindIdle, modes.Current().Kind())

	assert.Equal(t, []game.Action{
		game.ChooseSuit{Suit: game.Spades},
		game.ChooseTarget{PlayerID: "p2"},
		game.CounterAction{Action: game.Counter},
	}, spy.sent)
}

func TestTransportErrorKeepsMode(t *testing.T) {
	g, spy, _, modes := newGate(game.Local{Game: basicState(), Self: "p1"})
	spy.err = connection.ErrNotConnected
	called := false
	g.OnSent = func(game.Action) { called = true }

	require.ErrorIs(t, g.PlayCard(context.Background(), hearts("8")), connection.ErrNotConnected)

	modes.Demand(interaction.AwaitingSuitChoice{})
	require.ErrorIs(t, g.ChooseSuit(context.Background(), game.Clubs), connection.ErrNotConnected)
	assert.Equal(t, interaction.KindSuit, modes.Current().Kind(), "choice can be retried")
	assert.False(t, called)
}

func TestErrorCodes(t *testing.T) {
	var err error = gate.ErrNotYourTurn
	var ge *gate.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "NOTYOURTURN", ge.ErrorCode())
	assert.Equal(t, "it's not your turn", err.Error())
}
