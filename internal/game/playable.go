package game

// IsPlayable reports whether player may play c in state s.
//
// A card is playable iff the game is not over, it is player's turn, and
// either no suit is in force, the suit matches, the value matches the top of
// the discard pile, or the rank is wild in the active rule set.
func (s *GameState) IsPlayable(c Card, player string) bool {
	if s == nil || s.GameOver || player == "" || s.CurrentPlayerID != player {
		return false
	}
	if s.RuleSet().IsWild(c.Value) {
		return true
	}
	if s.CurrentSuit == "" || c.Suit == s.CurrentSuit {
		return true
	}
	top, ok := s.TopCard()
	return ok && c.Value == top.Value
}

// AnnotateHand returns a copy of player's hand with Playable set.
func (s *GameState) AnnotateHand(player string) []Card {
	ps := s.Player(player)
	if ps == nil {
		return nil
	}
	hand := make([]Card, len(ps.Hand))
	for i, c := range ps.Hand {
		c.Playable = s.IsPlayable(c, player)
		hand[i] = c
	}
	return hand
}
