// Package interaction tracks which special choice, if any, the player must
// make before normal play continues.
package interaction

import (
	"fmt"
	"slices"

	"github.com/cardtable/webclient/internal/game"
)

// Kind of interaction mode.
type Kind string

const (
	KindIdle    Kind = "idle"
	KindSuit    Kind = "suit-selection"
	KindTarget  Kind = "target-player"
	KindCounter Kind = "counter-action"
)

// Mode is one of Idle, AwaitingSuitChoice, AwaitingTargetChoice or
// AwaitingCounterChoice.
type Mode interface {
	Kind() Kind
	mode()
}

type Idle struct{}

type AwaitingSuitChoice struct{}

// AwaitingTargetChoice carries the players that may be targeted.
type AwaitingTargetChoice struct {
	Players []string
}

// AwaitingCounterChoice carries the card being countered.
type AwaitingCounterChoice struct {
	Card game.Card
}

func (Idle) Kind() Kind                  { return KindIdle }
func (AwaitingSuitChoice) Kind() Kind    { return KindSuit }
func (AwaitingTargetChoice) Kind() Kind  { return KindTarget }
func (AwaitingCounterChoice) Kind() Kind { return KindCounter }

func (Idle) mode()                  {}
func (AwaitingSuitChoice) mode()    {}
func (AwaitingTargetChoice) mode()  {}
func (AwaitingCounterChoice) mode() {}

func (m AwaitingTargetChoice) String() string {
	return fmt.Sprintf("%s%v", KindTarget, m.Players)
}

func (m AwaitingCounterChoice) String() string {
	return fmt.Sprintf("%s(%s)", KindCounter, m.Card)
}

// Offers reports whether playerID may be chosen.
func (m AwaitingTargetChoice) Offers(playerID string) bool {
	return slices.Contains(m.Players, playerID)
}
