package game

import (
	"slices"

	"k8s.io/klog/v2"
)

// Reducer folds server events into a GameState.
//
// Apply is a pure function of its arguments: it never modifies the given
// state and returns a new value whenever something changed. Self is the
// local player id, needed to tell this client's own hand from the hands it
// can only count.
type Reducer struct {
	Self string
}

// Apply returns the state after ev.
//
// A snapshot always replaces the state. Deltas on a nil state are dropped, as
// are deltas after the game ended.
func (r Reducer) Apply(s *GameState, ev Event) *GameState {
	if snapshot, ok := ev.(GameStateEvent); ok {
		return snapshot.State.Clone()
	}
	if s == nil {
		klog.V(1).Infof("Reducer.Apply: dropping %s before first snapshot", ev.Type())
		return nil
	}
	if s.GameOver {
		klog.V(1).Infof("Reducer.Apply: game over, ignoring %s", ev.Type())
		return s
	}

	switch e := ev.(type) {
	case CardPlayed:
		return r.cardPlayed(s, e)
	case CardDrawn:
		return r.cardDrawn(s, e)
	case TurnChanged:
		return turnChanged(s, e)
	case GameStarted:
		return gameStarted(s, e)
	case GameEnded:
		return gameEnded(s, e)
	case PlayerJoined:
		return playerJoined(s, e)
	case PlayerLeft:
		return playerLeft(s, e)
	case ConnectionEstablished, ChoiceRequired:
		return s
	case Unknown:
		klog.Warningf("Reducer.Apply: ignoring unknown event type %q", e.Kind)
		return s
	}
	klog.Errorf("Reducer.Apply: unhandled event %T", ev)
	return s
}

func (r Reducer) cardPlayed(s *GameState, e CardPlayed) *GameState {
	next := s.Clone()
	card := Card{Suit: e.Card.Suit, Value: e.Card.Value}
	next.DiscardPile = append([]Card{card}, next.DiscardPile...)

	if actor := next.PlayerStates[e.PlayerID]; actor != nil {
		if idx := containsCard(actor.Hand, card); idx >= 0 {
			actor.Hand = slices.Delete(actor.Hand, idx, idx+1)
			actor.CardCount = 0 // The hand is known, the snapshot count is stale.
		} else if actor.CardCount > 0 {
			actor.CardCount--
		}
	}

	rules := next.RuleSet()
	switch {
	case e.Effects.ChosenSuit.Valid():
		next.CurrentSuit = e.Effects.ChosenSuit
	case e.Effects.RequiresSuit || rules.RequiresSuitChoice(card.Value):
		next.CurrentSuit = ""
	default:
		next.CurrentSuit = card.Suit
	}

	previousNext := next.NextPlayerID
	if next.Direction == "" {
		next.Direction = Clockwise
	}
	if e.Effects.DirectionChanged {
		next.Direction = next.Direction.Reverse()
	}

	if e.Effects.CardsDrawn > 0 {
		victim := e.Effects.TargetPlayer
		if victim == "" {
			victim = next.Rotate(e.PlayerID, next.Direction, 1)
		}
		// The local player's real cards arrive as card_drawn events.
		if ps := next.PlayerStates[victim]; ps != nil && victim != r.Self {
			ps.CardCount = ps.Size() + e.Effects.CardsDrawn
			ps.Hand = nil
		}
	}

	switch {
	case e.Effects.NextPlayer != "":
		next.CurrentPlayerID = e.Effects.NextPlayer
	case !e.Effects.Skipped && !e.Effects.DirectionChanged && previousNext != "" && next.PlayerStates[previousNext] != nil:
		next.CurrentPlayerID = previousNext
	default:
		steps := 1
		if e.Effects.Skipped {
			steps++
		}
		next.CurrentPlayerID = next.Rotate(e.PlayerID, next.Direction, steps)
	}
	next.NextPlayerID = next.Rotate(next.CurrentPlayerID, next.Direction, 1)

	clearAnnouncements(next)
	return next
}

func (r Reducer) cardDrawn(s *GameState, e CardDrawn) *GameState {
	next := s.Clone()
	ps := next.PlayerStates[e.PlayerID]
	if ps == nil {
		klog.Warningf("Reducer.cardDrawn: unknown player %q", e.PlayerID)
		return s
	}
	count := e.Count
	if count < 1 {
		count = 1
	}
	if e.PlayerID == r.Self && e.Card != nil {
		ps.Hand = append(ps.Hand, Card{Suit: e.Card.Suit, Value: e.Card.Value})
		count--
	}
	if count > 0 {
		if e.PlayerID == r.Self {
			// Identities unknown: wait for the next snapshot to show them.
			klog.V(1).Infof("Reducer.cardDrawn: %d card(s) drawn without identity", count)
		} else {
			ps.CardCount = ps.Size() + count
			ps.Hand = nil
		}
	}
	clearAnnouncements(next)
	return next
}

func turnChanged(s *GameState, e TurnChanged) *GameState {
	if _, ok := s.PlayerStates[e.PlayerID]; !ok {
		klog.Warningf("turnChanged: unknown player %q", e.PlayerID)
		return s
	}
	next := s.Clone()
	next.CurrentPlayerID = e.PlayerID
	if _, ok := next.PlayerStates[e.NextPlayer]; ok {
		next.NextPlayerID = e.NextPlayer
	} else {
		next.NextPlayerID = next.Rotate(e.PlayerID, next.Direction, 1)
	}
	return next
}

func gameStarted(s *GameState, e GameStarted) *GameState {
	next := s.Clone()
	next.Started = true
	if len(e.Players) > 0 {
		next.Players = slices.Clone(e.Players)
		for _, id := range e.Players {
			if next.PlayerStates[id] == nil {
				next.PlayerStates[id] = &PlayerState{}
			}
		}
	}
	if _, ok := next.PlayerStates[e.CurrentPlayer]; ok {
		next.CurrentPlayerID = e.CurrentPlayer
		next.NextPlayerID = next.Rotate(e.CurrentPlayer, next.Direction, 1)
	}
	return next
}

func gameEnded(s *GameState, e GameEnded) *GameState {
	next := s.Clone()
	next.GameOver = true
	next.WinnerID = e.WinnerID
	next.Scores = e.Scores
	if next.WinnerID == "" {
		next.WinnerID = emptyHanded(next)
		klog.Warningf("Reducer.gameEnded: game_ended without winner_id, using %q", next.WinnerID)
	}
	return next
}

// emptyHanded returns the only player without cards, or "".
func emptyHanded(s *GameState) string {
	var winner string
	for id, ps := range s.PlayerStates {
		if ps.Size() != 0 {
			continue
		}
		if winner != "" {
			return ""
		}
		winner = id
	}
	return winner
}

func playerJoined(s *GameState, e PlayerJoined) *GameState {
	if e.PlayerID == "" || s.PlayerStates[e.PlayerID] != nil {
		return s
	}
	next := s.Clone()
	if next.PlayerStates == nil {
		next.PlayerStates = make(map[string]*PlayerState)
	}
	next.PlayerStates[e.PlayerID] = &PlayerState{}
	if len(next.Players) > 0 {
		next.Players = append(next.Players, e.PlayerID)
	}
	if next.CurrentPlayerID == "" {
		next.CurrentPlayerID = e.PlayerID
	}
	next.NextPlayerID = next.Rotate(next.CurrentPlayerID, next.Direction, 1)
	return next
}

func playerLeft(s *GameState, e PlayerLeft) *GameState {
	if s.PlayerStates[e.PlayerID] == nil {
		return s
	}
	next := s.Clone()
	// Resolve the successor while the leaving player is still seated.
	successor := next.Rotate(e.PlayerID, next.Direction, 1)
	delete(next.PlayerStates, e.PlayerID)
	next.Players = slices.DeleteFunc(next.Players, func(id string) bool { return id == e.PlayerID })
	if len(next.PlayerStates) == 0 {
		next.CurrentPlayerID, next.NextPlayerID = "", ""
		return next
	}
	if next.CurrentPlayerID == e.PlayerID {
		next.CurrentPlayerID = successor
	}
	next.NextPlayerID = next.Rotate(next.CurrentPlayerID, next.Direction, 1)
	return next
}

// clearAnnouncements drops "one card" flags of hands that grew past the
// announce threshold.
func clearAnnouncements(s *GameState) {
	threshold := s.RuleSet().Threshold()
	for _, ps := range s.PlayerStates {
		if ps.AnnouncedOneCard && ps.Size() > threshold {
			ps.AnnouncedOneCard = false
		}
	}
}
