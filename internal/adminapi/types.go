package adminapi

// Tokens returned by a successful login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Tokens Tokens `json:"tokens"`
}

// RegisterRequest holds the registration form. Optional fields are omitted
// when empty.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	DateOfBirth     string `json:"date_of_birth,omitempty"`
	Callsign        string `json:"callsign,omitempty"`
}

type registerResponse struct {
	Message string `json:"message"`
}

// CreateGameRequest is the body of POST /api/games/.
type CreateGameRequest struct {
	GameType   string `json:"game_type"`
	MaxPlayers int    `json:"max_players"`
	TimeLimit  int    `json:"time_limit"`
	UseAI      bool   `json:"use_ai"`
	RuleSetID  string `json:"rule_set_id"`
}

type createGameResponse struct {
	GameUID string `json:"game_uid"`
	GameID  string `json:"game_id"` // Older servers.
}

type inviteRequest struct {
	PlayerUID string `json:"player_uid"`
}

// Invitation is the server's answer to an invite.
type Invitation struct {
	Username string `json:"username"`
	Status   string `json:"status"`
}

type startResponse struct {
	Started bool `json:"started"`
}

// RuleSetSummary describes a rule set available for new games.
type RuleSetSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// PlayerSummary is one player search result.
type PlayerSummary struct {
	UserUID     string `json:"user_uid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// Name returns the display name, falling back to the username.
func (p PlayerSummary) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}
