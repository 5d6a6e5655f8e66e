package gate

// Error is a local validation failure. It is never sent to the server and
// leaves the game state untouched.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) ErrorCode() string { return e.Code }
func (e *Error) Error() string     { return e.Msg }

var (
	// ErrNoGame means no snapshot was received yet
	ErrNoGame = &Error{"NOGAME", "game not loaded yet"}
	// ErrGameOver is returned for any action after the game ended
	ErrGameOver = &Error{"GAMEOVER", "the game is over"}
	// ErrNotYourTurn means someone else is the current player
	ErrNotYourTurn = &Error{"NOTYOURTURN", "it's not your turn"}
	// ErrCardNotPlayable is for cards not in hand, not matching, or still pending
	ErrCardNotPlayable = &Error{"CARDNOTPLAYABLE", "you cannot play that card"}
	// ErrAlreadyAnnounced means "one card" was already called for this hand
	ErrAlreadyAnnounced = &Error{"ALREADYANNOUNCED", "you already announced"}
	// ErrHandSizeInvalid means the hand is too large to announce
	ErrHandSizeInvalid = &Error{"HANDSIZEINVALID", "too many cards to announce"}
	// ErrNothingDrawnYet means the rule set requires drawing before passing
	ErrNothingDrawnYet = &Error{"NOTHINGDRAWNYET", "draw a card before passing"}
	// ErrWrongMode is a choice made while no such choice is pending
	ErrWrongMode = &Error{"WRONGMODE", "no such choice is pending"}
	// ErrInvalidChoice is a suit, target or counter answer that was not offered
	ErrInvalidChoice = &Error{"INVALIDCHOICE", "invalid choice"}
)
