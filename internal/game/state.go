package game

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Direction of play around the table.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	Counterclockwise Direction = "counterclockwise"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Counterclockwise {
		return Clockwise
	}
	return Counterclockwise
}

func (d Direction) step() int {
	if d == Counterclockwise {
		return -1
	}
	return 1
}

// PlayerState is the per-player part of the game state.
type PlayerState struct {
	Hand             []Card `json:"hand"`
	AnnouncedOneCard bool   `json:"announcedOneCard"`
	Penalties        int    `json:"penalties"`
	CardCount        int    `json:"cardCount,omitempty"` // Size of a hand the client cannot see.
}

// Size is the number of cards held, whether or not they are known.
func (p *PlayerState) Size() int {
	if len(p.Hand) > 0 {
		return len(p.Hand)
	}
	return p.CardCount
}

func (p *PlayerState) clone() *PlayerState {
	c := *p
	c.Hand = slices.Clone(p.Hand)
	return &c
}

// GameState is the client's copy of the authoritative game state.
//
// Values are treated as immutable: the Reducer returns a new GameState for
// every change, and nobody else mutates one after it was published.
type GameState struct {
	CurrentPlayerID string                  `json:"currentPlayer"`
	NextPlayerID    string                  `json:"nextPlayer"`
	Direction       Direction               `json:"direction"`
	Players         []string                `json:"players,omitempty"` // Seating order.
	PlayerStates    map[string]*PlayerState `json:"playerStates"`
	DiscardPile     []Card                  `json:"discardPile"` // Top card at index 0.
	CurrentSuit     Suit                    `json:"currentSuit,omitempty"`
	Started         bool                    `json:"started,omitempty"`
	GameOver        bool                    `json:"gameOver"`
	WinnerID        string                  `json:"winnerId,omitempty"`
	Scores          map[string]int          `json:"scores,omitempty"`
	Rules           *RuleSet                `json:"rules,omitempty"`
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = slices.Clone(s.Players)
	c.DiscardPile = slices.Clone(s.DiscardPile)
	c.Scores = maps.Clone(s.Scores)
	if s.PlayerStates != nil {
		c.PlayerStates = make(map[string]*PlayerState, len(s.PlayerStates))
		for id, ps := range s.PlayerStates {
			if ps != nil {
				c.PlayerStates[id] = ps.clone()
			}
		}
	}
	if s.Rules != nil {
		rules := *s.Rules
		c.Rules = &rules
	}
	return &c
}

// RuleSet returns the active rule set, or DefaultRules if the server sent none.
func (s *GameState) RuleSet() RuleSet {
	if s == nil || s.Rules == nil {
		return DefaultRules()
	}
	return *s.Rules
}

// Player returns the state of the given player, or nil.
func (s *GameState) Player(id string) *PlayerState {
	if s == nil {
		return nil
	}
	return s.PlayerStates[id]
}

// TopCard returns the top of the discard pile.
func (s *GameState) TopCard() (Card, bool) {
	if s == nil || len(s.DiscardPile) == 0 {
		return Card{}, false
	}
	return s.DiscardPile[0], true
}

// SeatingOrder returns the players in seating order. If the server did not
// send an explicit order, player ids are sorted.
func (s *GameState) SeatingOrder() []string {
	if s == nil {
		return nil
	}
	if len(s.Players) > 0 {
		order := make([]string, 0, len(s.Players))
		for _, id := range s.Players {
			if _, ok := s.PlayerStates[id]; ok {
				order = append(order, id)
			}
		}
		if len(order) > 0 {
			return order
		}
	}
	order := make([]string, 0, len(s.PlayerStates))
	for id := range s.PlayerStates {
		order = append(order, id)
	}
	sort.Strings(order)
	return order
}

// Rotate returns the player steps seats away from `from` in direction dir.
// If `from` is not seated, rotation starts from the first seat.
func (s *GameState) Rotate(from string, dir Direction, steps int) string {
	order := s.SeatingOrder()
	if len(order) == 0 {
		return ""
	}
	idx := slices.Index(order, from)
	if idx < 0 {
		idx = 0
		steps--
	}
	n := len(order)
	pos := ((idx+dir.step()*steps)%n + n) % n
	return order[pos]
}

// Opponents returns the seated players other than self, in seating order.
func (s *GameState) Opponents(self string) []string {
	var ids []string
	for _, id := range s.SeatingOrder() {
		if id != self {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *GameState) String() string {
	if s == nil {
		return "GameState<nil>"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "GameState: current=%s, next=%s, direction=%s, suit=%s, over=%t",
		s.CurrentPlayerID, s.NextPlayerID, s.Direction, s.CurrentSuit, s.GameOver)
	if top, ok := s.TopCard(); ok {
		fmt.Fprintf(&sb, ", top=%s", top)
	}
	sb.WriteString(", players: ")
	for _, id := range s.SeatingOrder() {
		ps := s.PlayerStates[id]
		fmt.Fprintf(&sb, "%s (%d cards), ", id, ps.Size())
	}
	return sb.String()
}

// PendingAction is an action sent to the server whose outcome was not
// confirmed yet.
type PendingAction struct {
	ID     uuid.UUID
	SentAt time.Time
	Action Action
}

// Local wraps the GameState with what only this client knows.
type Local struct {
	Game         *GameState
	Self         string
	Pending      *PendingAction
	DrewThisTurn bool
}

// MyTurn reports whether the local player is the current player.
func (l Local) MyTurn() bool {
	return l.Game != nil && l.Self != "" && l.Game.CurrentPlayerID == l.Self
}

// Me returns the local player's state, or nil.
func (l Local) Me() *PlayerState {
	return l.Game.Player(l.Self)
}

// IsPending reports whether c was just played and not yet confirmed.
func (l Local) IsPending(c Card) bool {
	if l.Pending == nil {
		return false
	}
	play, ok := l.Pending.Action.(PlayCard)
	return ok && play.Card.Equal(c)
}
