package console

import (
	"fmt"
	"strings"

	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/gate"
	"github.com/cardtable/webclient/internal/interaction"
	"github.com/fatih/color"
)

var (
	red     = color.New(color.FgHiRed).SprintFunc()
	black   = color.New(color.FgHiWhite).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	alert   = color.New(color.FgHiYellow, color.Bold).SprintFunc()
	success = color.New(color.FgHiGreen).SprintFunc()
)

// FormatCard paints a card in its suit color. Cards that cannot be played
// are dimmed.
func FormatCard(c game.Card, playable bool) string {
	s := c.String()
	if c.Suit.Red() {
		s = red(s)
	} else {
		s = black(s)
	}
	if !playable {
		return dim(s)
	}
	return s
}

func label(l game.Local, id string) string {
	if id == l.Self {
		return "you"
	}
	return id
}

// FormatState describes the table, the hand in the given order and the
// pending choice.
func FormatState(l game.Local, mode interaction.Mode, order game.SortOrder) string {
	s := l.Game
	if s == nil {
		return "waiting for the game state...\n"
	}
	var sb strings.Builder
	if s.GameOver {
		fmt.Fprintf(&sb, "%s winner: %s\n", bold("Game over,"), label(l, s.WinnerID))
		for _, id := range s.SeatingOrder() {
			if score, ok := s.Scores[id]; ok {
				fmt.Fprintf(&sb, "  %-12s %d\n", label(l, id), score)
			}
		}
		return sb.String()
	}

	top := "-"
	if c, ok := s.TopCard(); ok {
		top = FormatCard(c, true)
	}
	suit := "any"
	if s.CurrentSuit != "" {
		suit = s.CurrentSuit.Symbol()
	}
	fmt.Fprintf(&sb, "Top: %s  Suit: %s  Direction: %s\n", top, suit, s.Direction)

	for _, id := range s.SeatingOrder() {
		ps := s.PlayerStates[id]
		marker := "  "
		if id == s.CurrentPlayerID {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-12s %2d card(s)", marker, label(l, id), ps.Size())
		if ps.AnnouncedOneCard {
			line += " " + alert("one card!")
		}
		if ps.Penalties > 0 {
			line += fmt.Sprintf(" penalties: %d", ps.Penalties)
		}
		if id == s.CurrentPlayerID {
			line = bold(line)
		}
		sb.WriteString(line + "\n")
	}

	hand := game.SortHand(s.AnnotateHand(l.Self), order)
	cards := make([]string, 0, len(hand))
	for _, c := range hand {
		text := FormatCard(c, gate.CheckPlay(l, c) == nil)
		if l.IsPending(c) {
			text += "*"
		}
		cards = append(cards, text)
	}
	fmt.Fprintf(&sb, "Hand: %s\n", strings.Join(cards, " "))
	if l.MyTurn() {
		sb.WriteString(success("Your turn") + "\n")
	}
	if prompt := FormatMode(mode); prompt != "" {
		sb.WriteString(alert(prompt) + "\n")
	}
	return sb.String()
}

// FormatMode tells the player which choice is expected, or "".
func FormatMode(mode interaction.Mode) string {
	switch m := mode.(type) {
	case interaction.AwaitingSuitChoice:
		return "Choose a suit: suit hearts|diamonds|clubs|spades"
	case interaction.AwaitingTargetChoice:
		return fmt.Sprintf("Choose a target: target %s", strings.Join(m.Players, "|"))
	case interaction.AwaitingCounterChoice:
		return fmt.Sprintf("%s was played against you: counter accept|counter", m.Card)
	}
	return ""
}

// Prompt is the readline prompt for the current state.
func Prompt(l game.Local, mode interaction.Mode) string {
	switch {
	case l.Game == nil:
		return "… » "
	case l.Game.GameOver:
		return "over » "
	case mode != nil && mode.Kind() != interaction.KindIdle:
		return alert(string(mode.Kind())) + " » "
	case l.MyTurn():
		return success("your turn") + " » "
	}
	return "waiting » "
}
