package gate

import (
	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/interaction"
)

func checkGame(l game.Local) error {
	if l.Game == nil {
		return ErrNoGame
	}
	if l.Game.GameOver {
		return ErrGameOver
	}
	return nil
}

func checkTurn(l game.Local) error {
	if err := checkGame(l); err != nil {
		return err
	}
	if !l.MyTurn() {
		return ErrNotYourTurn
	}
	return nil
}

// CheckPlay validates playing c. Views use it to gray out cards.
func CheckPlay(l game.Local, c game.Card) error {
	if err := checkTurn(l); err != nil {
		return err
	}
	me := l.Me()
	if me == nil || !containsCard(me.Hand, c) || l.IsPending(c) {
		return ErrCardNotPlayable
	}
	if !l.Game.IsPlayable(c, l.Self) {
		return ErrCardNotPlayable
	}
	return nil
}

// CheckDraw validates drawing a card.
func CheckDraw(l game.Local) error {
	return checkTurn(l)
}

// CheckPass validates passing the turn.
func CheckPass(l game.Local) error {
	if err := checkTurn(l); err != nil {
		return err
	}
	if l.Game.RuleSet().DrawBeforePass && !l.DrewThisTurn {
		return ErrNothingDrawnYet
	}
	return nil
}

// CheckAnnounce validates announcing "one card". The hand must hold at least
// one card and no more than the rule set's announce threshold.
func CheckAnnounce(l game.Local) error {
	if err := checkGame(l); err != nil {
		return err
	}
	me := l.Me()
	if me == nil {
		return ErrHandSizeInvalid
	}
	if me.AnnouncedOneCard {
		return ErrAlreadyAnnounced
	}
	if n := me.Size(); n < 1 || n > l.Game.RuleSet().Threshold() {
		return ErrHandSizeInvalid
	}
	return nil
}

// CheckChooseSuit validates a suit declaration.
func CheckChooseSuit(l game.Local, mode interaction.Mode, suit game.Suit) error {
	if err := checkChoice(l, mode, interaction.KindSuit); err != nil {
		return err
	}
	if !suit.Valid() {
		return ErrInvalidChoice
	}
	return nil
}

// CheckChooseTarget validates picking playerID as target.
func CheckChooseTarget(l game.Local, mode interaction.Mode, playerID string) error {
	if err := checkChoice(l, mode, interaction.KindTarget); err != nil {
		return err
	}
	if target, ok := mode.(interaction.AwaitingTargetChoice); !ok || !target.Offers(playerID) {
		return ErrInvalidChoice
	}
	return nil
}

// CheckCounter validates answering a counterable action.
func CheckCounter(l game.Local, mode interaction.Mode, choice game.CounterChoice) error {
	if err := checkChoice(l, mode, interaction.KindCounter); err != nil {
		return err
	}
	if choice != game.Accept && choice != game.Counter {
		return ErrInvalidChoice
	}
	return nil
}

func checkChoice(l game.Local, mode interaction.Mode, kind interaction.Kind) error {
	if l.Game != nil && l.Game.GameOver {
		return ErrGameOver
	}
	if mode == nil || mode.Kind() != kind {
		return ErrWrongMode
	}
	return nil
}

func containsCard(hand []game.Card, c game.Card) bool {
	for _, h := range hand {
		if h.Equal(c) {
			return true
		}
	}
	return false
}
