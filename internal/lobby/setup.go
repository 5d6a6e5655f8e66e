package lobby

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/cardtable/webclient/internal/game"
	"k8s.io/klog/v2"
)

var (
	ErrNoGame         = errors.New("please create a game first")
	ErrAlreadyCreated = errors.New("game already created")
	ErrNoSlots        = errors.New("no invite slots left")
	ErrAlreadyInvited = errors.New("player already invited")
	ErrNotStarted     = errors.New("the server did not start the game")
)

// API is the part of the admin service the wizard needs. *adminapi.Client
// implements it.
type API interface {
	RuleSets(ctx context.Context) ([]adminapi.RuleSetSummary, error)
	CreateGame(ctx context.Context, req adminapi.CreateGameRequest) (string, error)
	Invite(ctx context.Context, gameID, playerUID string) (adminapi.Invitation, error)
	StartGame(ctx context.Context, gameID string) (bool, error)
}

// Invited is a player invited to the game being set up.
type Invited struct {
	PlayerUID string
	Username  string
	Status    string
}

// Setup walks through creating a game, inviting players and starting it.
type Setup struct {
	api API

	mu       sync.Mutex
	settings Settings
	ruleSets []adminapi.RuleSetSummary
	gameID   string
	invited  []Invited
	started  bool
}

// NewSetup returns a wizard with DefaultSettings.
func NewSetup(api API) *Setup {
	return &Setup{api: api, settings: DefaultSettings()}
}

// fallbackRuleSets is offered when the service lists none.
func fallbackRuleSets() []adminapi.RuleSetSummary {
	def := game.DefaultRules()
	return []adminapi.RuleSetSummary{{
		ID:          def.ID,
		Name:        def.Name,
		Description: "The classic card game rules with basic actions.",
		Version:     "1.0",
	}}
}

// LoadRuleSets fetches the available rule sets and selects the first one if
// none is selected. If the service fails or lists nothing, the standard rules
// are offered instead; the error is still returned for logging.
func (s *Setup) LoadRuleSets(ctx context.Context) ([]adminapi.RuleSetSummary, error) {
	ruleSets, err := s.api.RuleSets(ctx)
	if err != nil || len(ruleSets) == 0 {
		klog.Warningf("Setup.LoadRuleSets: using fallback rule sets (err=%v)", err)
		ruleSets = fallbackRuleSets()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ruleSets = ruleSets
	if s.settings.RuleSetID == "" {
		s.settings.RuleSetID = ruleSets[0].ID
	}
	return slices.Clone(ruleSets), err
}

// RuleSets returns the loaded rule sets.
func (s *Setup) RuleSets() []adminapi.RuleSetSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ruleSets)
}

func (s *Setup) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update changes the settings. It has no effect once the game is created.
func (s *Setup) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gameID != "" {
		return
	}
	fn(&s.settings)
}

func (s *Setup) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

func (s *Setup) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Invited returns the players invited so far.
func (s *Setup) Invited() []Invited {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.invited)
}

// InvitedIDs returns the ids of the invited players, to exclude them from
// search results.
func (s *Setup) InvitedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.invited))
	for i, inv := range s.invited {
		ids[i] = inv.PlayerUID
	}
	return ids
}

// RemainingSlots is the number of players that can still be invited: the
// creator takes one seat.
func (s *Setup) RemainingSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingSlots()
}

func (s *Setup) remainingSlots() int {
	return max(s.settings.MaxPlayers-1-len(s.invited), 0)
}

// Create validates the settings and creates the game.
func (s *Setup) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	settings, created := s.settings, s.gameID != ""
	s.mu.Unlock()
	if created {
		return "", ErrAlreadyCreated
	}
	if err := settings.Validate(); err != nil {
		return "", err
	}
	id, err := s.api.CreateGame(ctx, adminapi.CreateGameRequest{
		GameType:   settings.GameType,
		MaxPlayers: settings.MaxPlayers,
		TimeLimit:  settings.TimeLimit,
		UseAI:      settings.UseAI,
		RuleSetID:  settings.RuleSetID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	klog.Infof("Setup.Create: created game %s", id)
	s.mu.Lock()
	s.gameID = id
	s.mu.Unlock()
	return id, nil
}

// Invite invites player to the created game.
func (s *Setup) Invite(ctx context.Context, player adminapi.PlayerSummary) error {
	s.mu.Lock()
	gameID := s.gameID
	var err error
	switch {
	case gameID == "":
		err = ErrNoGame
	case s.remainingSlots() == 0:
		err = ErrNoSlots
	case slices.ContainsFunc(s.invited, func(inv Invited) bool { return inv.PlayerUID == player.UserUID }):
		err = ErrAlreadyInvited
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	inv, err := s.api.Invite(ctx, gameID, player.UserUID)
	if err != nil {
		return fmt.Errorf("failed to invite player: %w", err)
	}
	entry := Invited{PlayerUID: player.UserUID, Username: inv.Username, Status: inv.Status}
	if entry.Username == "" {
		entry.Username = player.Name()
	}
	if entry.Status == "" {
		entry.Status = "pending"
	}
	klog.Infof("Setup.Invite: invited %s (%s) to %s", entry.Username, entry.Status, gameID)
	s.mu.Lock()
	s.invited = append(s.invited, entry)
	s.mu.Unlock()
	return nil
}

// Start starts the created game.
func (s *Setup) Start(ctx context.Context) error {
	gameID := s.GameID()
	if gameID == "" {
		return ErrNoGame
	}
	started, err := s.api.StartGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	if !started {
		return ErrNotStarted
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return nil
}
