package game

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Suit of a card.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists all suits in display order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Symbol returns the unicode symbol of the suit.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// Red is true for hearts and diamonds.
func (s Suit) Red() bool {
	return s == Hearts || s == Diamonds
}

// Rank is the face value of a card: "2" to "10", "J", "Q", "K" or "A".
type Rank string

// Ranks lists all ranks in ascending order.
var Ranks = []Rank{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Valid reports whether r is a known rank.
func (r Rank) Valid() bool {
	for _, known := range Ranks {
		if r == known {
			return true
		}
	}
	return false
}

// Card is an immutable playing card.
//
// Playable is a client-side annotation (see GameState.AnnotateHand) and is
// not part of the card identity.
type Card struct {
	Suit     Suit `json:"suit"`
	Value    Rank `json:"value"`
	Playable bool `json:"playable,omitempty"`
}

// UnmarshalJSON accepts both card shapes sent by the server: {suit, value}
// with the rank as a string, and {suit, rank, value} where value is the
// numeric rank (11 to 14 for J, Q, K, A).
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw struct {
		Suit     Suit            `json:"suit"`
		Rank     Rank            `json:"rank"`
		Value    json.RawMessage `json:"value"`
		Playable bool            `json:"playable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rank := Rank(strings.ToUpper(string(raw.Rank)))
	if rank == "" && len(raw.Value) > 0 && string(raw.Value) != "null" {
		var name string
		if err := json.Unmarshal(raw.Value, &name); err == nil {
			rank = Rank(strings.ToUpper(name))
		} else {
			var n int
			if err := json.Unmarshal(raw.Value, &n); err != nil {
				return fmt.Errorf("invalid card value %s", raw.Value)
			}
			if rank, err = rankOf(n); err != nil {
				return err
			}
		}
	}
	*c = Card{Suit: raw.Suit, Value: rank, Playable: raw.Playable}
	return nil
}

func rankOf(n int) (Rank, error) {
	switch {
	case n >= 2 && n <= 10:
		return Rank(strconv.Itoa(n)), nil
	case n == 11:
		return "J", nil
	case n == 12:
		return "Q", nil
	case n == 13:
		return "K", nil
	case n == 1 || n == 14:
		return "A", nil
	}
	return "", fmt.Errorf("invalid card value %d", n)
}

// Equal compares suit and value only.
func (c Card) Equal(other Card) bool {
	return c.Suit == other.Suit && c.Value == other.Value
}

// Valid reports whether both suit and value are known.
func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Value.Valid()
}

func (c Card) String() string {
	return string(c.Value) + c.Suit.Symbol()
}

// ParseCard parses the short notation used by the terminal client: the value
// followed by the first letter of the suit, e.g. "8h", "10s", "QD".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	value := Rank(strings.ToUpper(s[:len(s)-1]))
	var suit Suit
	switch strings.ToLower(s[len(s)-1:]) {
	case "h":
		suit = Hearts
	case "d":
		suit = Diamonds
	case "c":
		suit = Clubs
	case "s":
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}
	c := Card{Suit: suit, Value: value}
	if !c.Valid() {
		return Card{}, fmt.Errorf("invalid value in card %q", s)
	}
	return c, nil
}

// ParseSuit accepts a suit name or its first letter.
func ParseSuit(s string) (Suit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suit := range Suits {
		if s == string(suit) || (len(s) == 1 && s[0] == string(suit)[0]) {
			return suit, nil
		}
	}
	return "", fmt.Errorf("invalid suit %q", s)
}

func containsCard(cards []Card, c Card) int {
	for i, candidate := range cards {
		if candidate.Equal(c) {
			return i
		}
	}
	return -1
}

// SortOrder of a displayed hand.
type SortOrder string

const (
	BySuit  SortOrder = "suit"  // Grouped by suit, ascending rank within a suit.
	ByValue SortOrder = "value" // Ascending rank, suits in Suits order on ties.
)

// ParseSortOrder accepts "suit" or "value".
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case BySuit, ByValue:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort order %q", s)
}

// SortHand returns a sorted copy of hand. Unknown suits and ranks go last.
func SortHand(hand []Card, order SortOrder) []Card {
	sorted := slices.Clone(hand)
	bySuit := func(a, b Card) int { return cmp.Compare(suitIndex(a.Suit), suitIndex(b.Suit)) }
	byRank := func(a, b Card) int { return cmp.Compare(rankIndex(a.Value), rankIndex(b.Value)) }
	slices.SortStableFunc(sorted, func(a, b Card) int {
		if order == ByValue {
			return cmp.Or(byRank(a, b), bySuit(a, b))
		}
		return cmp.Or(bySuit(a, b), byRank(a, b))
	})
	return sorted
}

func suitIndex(s Suit) int {
	if i := slices.Index(Suits, s); i >= 0 {
		return i
	}
	return len(Suits)
}

func rankIndex(r Rank) int {
	if i := slices.Index(Ranks, r); i >= 0 {
		return i
	}
	return len(Ranks)
}
