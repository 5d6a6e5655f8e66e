package game

import (
	"encoding/json"
	"fmt"
)

// MessageType for WebSocket communication between client and server.
type MessageType string

const (
	// Server to client.
	MsgGameState             MessageType = "game_state"             // Full snapshot
	MsgCardPlayed            MessageType = "card_played"            // A player played a card
	MsgCardDrawn             MessageType = "card_drawn"             // A player drew card(s)
	MsgTurnChanged           MessageType = "turn_changed"           // Turn moved to another player
	MsgGameStarted           MessageType = "game_started"           // Game left the lobby
	MsgGameEnded             MessageType = "game_ended"             // Game is over
	MsgPlayerJoined          MessageType = "player_joined"          // A player joined the table
	MsgPlayerLeft            MessageType = "player_left"            // A player left the table
	MsgConnectionEstablished MessageType = "connection_established" // Greeting after the handshake
	MsgChoiceRequired        MessageType = "choice_required"        // Server (re)opens a pending choice

	// Client to server.
	MsgPlayCard        MessageType = "play_card"
	MsgDrawCard        MessageType = "draw_card"
	MsgPassTurn        MessageType = "pass_turn"
	MsgAnnounceOneCard MessageType = "announce_one_card"
	MsgChooseSuit      MessageType = "choose_suit"
	MsgChooseTarget    MessageType = "choose_target"
	MsgCounterAction   MessageType = "counter_action"
	MsgRequestState    MessageType = "request_state"
)

// Envelope is the frame sent in both directions.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is anything that can be framed in an Envelope.
type Message interface {
	Type() MessageType
}

// NewEnvelope creates an Envelope with a marshaled payload.
func NewEnvelope(msgType MessageType, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Data: data}, nil
}

// Encode frames a message.
func Encode(m Message) (Envelope, error) {
	if snapshot, ok := m.(GameStateEvent); ok {
		return NewEnvelope(m.Type(), snapshot.State)
	}
	return NewEnvelope(m.Type(), m)
}

// Event is a message pushed by the server. The set of events is closed:
// every implementation lives in this file.
type Event interface {
	Message
	event()
}

// GameStateEvent carries a full snapshot. Its data is the GameState itself.
type GameStateEvent struct {
	State *GameState
}

// Effects of a played card, as computed by the server.
type Effects struct {
	NextPlayer       string `json:"next_player,omitempty"`
	DirectionChanged bool   `json:"direction_changed,omitempty"`
	CardsDrawn       int    `json:"cards_drawn,omitempty"`
	Skipped          bool   `json:"skipped,omitempty"`
	TargetPlayer     string `json:"target_player,omitempty"`
	RequiresSuit     bool   `json:"requires_suit,omitempty"`
	RequiresTarget   bool   `json:"requires_target,omitempty"`
	Counterable      bool   `json:"counterable,omitempty"`
	ChosenSuit       Suit   `json:"chosen_suit,omitempty"`
}

// CardPlayed is broadcast after a card was accepted by the server.
type CardPlayed struct {
	PlayerID string  `json:"player_id"`
	Card     Card    `json:"card"`
	Effects  Effects `json:"effects"`
}

// CardDrawn tells a player drew cards. Card is only set for the player who
// drew it.
type CardDrawn struct {
	PlayerID string `json:"player_id"`
	Card     *Card  `json:"card,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// TurnChanged moves the turn. Forced is set when the server advanced the turn
// on its own (e.g. timeout), cancelling pending choices.
type TurnChanged struct {
	PlayerID   string `json:"player_id"`
	NextPlayer string `json:"next_player,omitempty"`
	Forced     bool   `json:"forced,omitempty"`
}

type GameStarted struct {
	Players       []string `json:"players,omitempty"`
	CurrentPlayer string   `json:"current_player,omitempty"`
}

type GameEnded struct {
	WinnerID string         `json:"winner_id"`
	Scores   map[string]int `json:"scores,omitempty"`
}

type PlayerJoined struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
}

type PlayerLeft struct {
	PlayerID string `json:"player_id"`
}

type ConnectionEstablished struct {
	Message string `json:"message,omitempty"`
}

// ChoiceKind identifies which choice the server is waiting for.
type ChoiceKind string

const (
	ChoiceSuit    ChoiceKind = "suit"
	ChoiceTarget  ChoiceKind = "target"
	ChoiceCounter ChoiceKind = "counter"
)

// ChoiceRequired asks the local player for a choice, e.g. after the server
// rejected the previous one.
type ChoiceRequired struct {
	Kind    ChoiceKind `json:"kind"`
	Players []string   `json:"players,omitempty"`
	Card    *Card      `json:"card,omitempty"`
}

// Unknown is an event type this client does not understand. It is kept so
// the reducer can treat it as a no-op.
type Unknown struct {
	Kind MessageType
	Data json.RawMessage
}

func (GameStateEvent) Type() MessageType        { return MsgGameState }
func (CardPlayed) Type() MessageType            { return MsgCardPlayed }
func (CardDrawn) Type() MessageType             { return MsgCardDrawn }
func (TurnChanged) Type() MessageType           { return MsgTurnChanged }
func (GameStarted) Type() MessageType           { return MsgGameStarted }
func (GameEnded) Type() MessageType             { return MsgGameEnded }
func (PlayerJoined) Type() MessageType          { return MsgPlayerJoined }
func (PlayerLeft) Type() MessageType            { return MsgPlayerLeft }
func (ConnectionEstablished) Type() MessageType { return MsgConnectionEstablished }
func (ChoiceRequired) Type() MessageType        { return MsgChoiceRequired }
func (u Unknown) Type() MessageType             { return u.Kind }

func (GameStateEvent) event()        {}
func (CardPlayed) event()            {}
func (CardDrawn) event()             {}
func (TurnChanged) event()           {}
func (GameStarted) event()           {}
func (GameEnded) event()             {}
func (PlayerJoined) event()          {}
func (PlayerLeft) event()            {}
func (ConnectionEstablished) event() {}
func (ChoiceRequired) event()        {}
func (Unknown) event()               {}

// ParseEvent decodes an inbound envelope. Unknown types are returned as
// Unknown without error; malformed payloads return an error.
func ParseEvent(env Envelope) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch env.Type {
	case MsgGameState:
		state := &GameState{}
		if len(env.Data) == 0 {
			return nil, fmt.Errorf("%s without data", env.Type)
		}
		err = json.Unmarshal(env.Data, state)
		ev = GameStateEvent{State: state}
	case MsgCardPlayed:
		ev, err = decode[CardPlayed](env.Data)
	case MsgCardDrawn:
		ev, err = decode[CardDrawn](env.Data)
	case MsgTurnChanged:
		ev, err = decode[TurnChanged](env.Data)
	case MsgGameStarted:
		ev, err = decode[GameStarted](env.Data)
	case MsgGameEnded:
		ev, err = decode[GameEnded](env.Data)
	case MsgPlayerJoined:
		ev, err = decode[PlayerJoined](env.Data)
	case MsgPlayerLeft:
		ev, err = decode[PlayerLeft](env.Data)
	case MsgConnectionEstablished:
		ev, err = decode[ConnectionEstablished](env.Data)
	case MsgChoiceRequired:
		ev, err = decode[ChoiceRequired](env.Data)
	default:
		return Unknown{Kind: env.Type, Data: env.Data}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
	}
	return ev, nil
}

func decode[T Event](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(data, &v)
	return v, err
}

// Action is a message sent by the client. The set of actions is closed.
type Action interface {
	Message
	action()
}

type PlayCard struct {
	Card Card `json:"card"`
}

type DrawCard struct{}

type PassTurn struct{}

type AnnounceOneCard struct{}

type ChooseSuit struct {
	Suit Suit `json:"suit"`
}

type ChooseTarget struct {
	PlayerID string `json:"player_id"`
}

// CounterChoice answers a counterable action.
type CounterChoice string

const (
	Accept  CounterChoice = "accept"
	Counter CounterChoice = "counter"
)

type CounterAction struct {
	Action CounterChoice `json:"action"`
}

// RequestState asks the server for a fresh snapshot, sent after reconnecting.
type RequestState struct{}

func (PlayCard) Type() MessageType        { return MsgPlayCard }
func (DrawCard) Type() MessageType        { return MsgDrawCard }
func (PassTurn) Type() MessageType        { return MsgPassTurn }
func (AnnounceOneCard) Type() MessageType { return MsgAnnounceOneCard }
func (ChooseSuit) Type() MessageType      { return MsgChooseSuit }
func (ChooseTarget) Type() MessageType    { return MsgChooseTarget }
func (CounterAction) Type() MessageType   { return MsgCounterAction }
func (RequestState) Type() MessageType    { return MsgRequestState }

func (PlayCard) action()        {}
func (DrawCard) action()        {}
func (PassTurn) action()        {}
func (AnnounceOneCard) action() {}
func (ChooseSuit) action()      {}
func (ChooseTarget) action()    {}
func (CounterAction) action()   {}
func (RequestState) action()    {}

// ParseAction decodes an outbound envelope. It is used by test servers and
// by the host server's logging.
func ParseAction(env Envelope) (Action, error) {
	var (
		a   Action
		err error
	)
	switch env.Type {
	case MsgPlayCard:
		a, err = decodeAction[PlayCard](env.Data)
	case MsgDrawCard:
		a, err = decodeAction[DrawCard](env.Data)
	case MsgPassTurn:
		a, err = decodeAction[PassTurn](env.Data)
	case MsgAnnounceOneCard:
		a, err = decodeAction[AnnounceOneCard](env.Data)
	case MsgChooseSuit:
		a, err = decodeAction[ChooseSuit](env.Data)
	case MsgChooseTarget:
		a, err = decodeAction[ChooseTarget](env.Data)
	case MsgCounterAction:
		a, err = decodeAction[CounterAction](env.Data)
	case MsgRequestState:
		a, err = decodeAction[RequestState](env.Data)
	default:
		return nil, fmt.Errorf("unknown action type: %s", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", env.Type, err)
	}
	return a, nil
}

func decodeAction[T Action](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(data, &v)
	return v, err
}
