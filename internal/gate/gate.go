// Package gate turns local gestures into outbound actions, rejecting illegal
// ones before anything reaches the transport.
package gate

import (
	"context"

	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/interaction"
	"k8s.io/klog/v2"
)

// Sender transmits an action. *connection.Manager implements it.
type Sender interface {
	Send(ctx context.Context, a game.Action) error
}

// Source gives the current local view of the game.
type Source interface {
	Local() game.Local
}

// Modes is the interaction-mode machine. *interaction.Machine implements it.
type Modes interface {
	Current() interaction.Mode
	Resolve(kind interaction.Kind) bool
}

// Gate validates and sends the local player's actions.
//
// Every operation either fails with an *Error without calling the Sender, or
// calls the Sender exactly once. Transport errors are returned unchanged.
type Gate struct {
	Sender Sender
	Source Source
	Modes  Modes

	// OnSent, if set, is called after every successful send.
	OnSent func(a game.Action)
}

func (g *Gate) send(ctx context.Context, a game.Action) error {
	if err := g.Sender.Send(ctx, a); err != nil {
		klog.Warningf("Gate.send: %s not sent: %v", a.Type(), err)
		return err
	}
	if g.OnSent != nil {
		g.OnSent(a)
	}
	return nil
}

func (g *Gate) mode() interaction.Mode {
	if g.Modes == nil {
		return interaction.Idle{}
	}
	return g.Modes.Current()
}

// PlayCard plays c from the local hand.
func (g *Gate) PlayCard(ctx context.Context, c game.Card) error {
	if err := CheckPlay(g.Source.Local(), c); err != nil {
		return err
	}
	return g.send(ctx, game.PlayCard{Card: game.Card{Suit: c.Suit, Value: c.Value}})
}

func (g *Gate) DrawCard(ctx context.Context) error {
	if err := CheckDraw(g.Source.Local()); err != nil {
		return err
	}
	return g.send(ctx, game.DrawCard{})
}

func (g *Gate) PassTurn(ctx context.Context) error {
	if err := CheckPass(g.Source.Local()); err != nil {
		return err
	}
	return g.send(ctx, game.PassTurn{})
}

func (g *Gate) AnnounceOneCard(ctx context.Context) error {
	if err := CheckAnnounce(g.Source.Local()); err != nil {
		return err
	}
	return g.send(ctx, game.AnnounceOneCard{})
}

// ChooseSuit answers AwaitingSuitChoice and returns the machine to its next
// mode.
func (g *Gate) ChooseSuit(ctx context.Context, suit game.Suit) error {
	if err := CheckChooseSuit(g.Source.Local(), g.mode(), suit); err != nil {
		return err
	}
	return g.choose(ctx, game.ChooseSuit{Suit: suit}, interaction.KindSuit)
}

// ChooseTarget answers AwaitingTargetChoice.
func (g *Gate) ChooseTarget(ctx context.Context, playerID string) error {
	if err := CheckChooseTarget(g.Source.Local(), g.mode(), playerID); err != nil {
		return err
	}
	return g.choose(ctx, game.ChooseTarget{PlayerID: playerID}, interaction.KindTarget)
}

// ChooseCounterAction answers AwaitingCounterChoice.
func (g *Gate) ChooseCounterAction(ctx context.Context, choice game.CounterChoice) error {
	if err := CheckCounter(g.Source.Local(), g.mode(), choice); err != nil {
		return err
	}
	return g.choose(ctx, game.CounterAction{Action: choice}, interaction.KindCounter)
}

func (g *Gate) choose(ctx context.Context, a game.Action, kind interaction.Kind) error {
	if err := g.send(ctx, a); err != nil {
		return err
	}
	g.Modes.Resolve(kind)
	return nil
}
