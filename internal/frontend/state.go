package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/cardtable/webclient/internal/adminapi"
	"github.com/cardtable/webclient/internal/connection"
	"github.com/cardtable/webclient/internal/lobby"
	"github.com/cardtable/webclient/internal/session"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

const (
	tokenCookie    = "cardtable_token"
	usernameCookie = "cardtable_user"
	cookieDays     = 7
)

// RequestTimeout bounds admin requests issued by the pages.
var RequestTimeout = 15 * time.Second

// GlobalClientState holds the logged in player, the game on screen and the
// setup wizard. Pages read it on render and subscribe through Listeners.
type GlobalClientState struct {
	API      *adminapi.Client
	PlayerID string
	Username string
	Error    string

	Session *session.Session
	Setup   *lobby.Setup
	Search  *lobby.Search

	// Listeners for state updates, keyed by page.
	Listeners map[string]func()
}

var State *GlobalClientState

// InitState creates the global state once. In the browser it also restores
// the login from the cookies.
func InitState() {
	if State != nil {
		klog.V(1).Infof("InitState: state already exists")
		return
	}
	klog.V(1).Infof("InitState: creating new state")
	base := ""
	if app.IsClient {
		u := *app.Window().URL()
		base = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}
	State = &GlobalClientState{
		API:       adminapi.New(base),
		Listeners: make(map[string]func()),
	}
	if app.IsClient {
		State.restore(getCookie(tokenCookie), getCookie(usernameCookie))
	}
}

// LoggedIn reports whether a usable access token is known.
func (s *GlobalClientState) LoggedIn() bool {
	return s.PlayerID != "" && s.API.Token() != ""
}

func (s *GlobalClientState) restore(token, username string) {
	if token == "" {
		return
	}
	id, err := adminapi.PlayerIDFromToken(token)
	if err != nil {
		klog.Warningf("GlobalClientState.restore: discarding stored token: %v", err)
		clearCookie(tokenCookie)
		return
	}
	s.signIn(token, id, username)
}

func (s *GlobalClientState) signIn(token, playerID, username string) {
	s.API.SetToken(token)
	s.PlayerID = playerID
	s.Username = username
	s.Session = session.New(session.DefaultConfig(connection.WebsocketOrigin(app.Window().URL())), playerID)
	s.Session.Listen("frontend", s.Notify)
	klog.Infof("GlobalClientState.signIn: signed in as %s (%s)", username, playerID)
}

// Login authenticates against the admin service and starts a session for
// the player named in the access token.
func (s *GlobalClientState) Login(ctx context.Context, username, password string) error {
	tokens, err := s.API.Login(ctx, username, password)
	if err != nil {
		return err
	}
	id, err := adminapi.PlayerIDFromToken(tokens.Access)
	if err != nil {
		s.API.SetToken("")
		return fmt.Errorf("unusable access token: %w", err)
	}
	s.Logout()
	s.signIn(tokens.Access, id, username)
	setCookie(tokenCookie, tokens.Access, cookieDays)
	setCookie(usernameCookie, username, cookieDays)
	s.Notify()
	return nil
}

// Logout leaves the current game and forgets the credentials.
func (s *GlobalClientState) Logout() {
	s.CloseSetup()
	if s.Session != nil {
		s.Session.Forget("frontend")
		s.Session.Leave()
		s.Session = nil
	}
	s.API.SetToken("")
	s.PlayerID, s.Username, s.Error = "", "", ""
	clearCookie(tokenCookie)
	clearCookie(usernameCookie)
}

// JoinGame connects the session to gameID unless it is already there.
func (s *GlobalClientState) JoinGame(gameID string) error {
	if s.Session == nil {
		return fmt.Errorf("not logged in")
	}
	if s.Session.GameID() == gameID {
		if st, _ := s.Session.Status(); st != connection.StatusDisconnected {
			return nil
		}
	}
	// The dial is bounded by the connection's own timeout.
	return s.Session.Join(context.Background(), gameID, s.API.Token())
}

// LeaveGame closes the game connection, if any.
func (s *GlobalClientState) LeaveGame() {
	if s.Session != nil {
		s.Session.Leave()
	}
}

// NewSetup starts a fresh setup wizard with its invite search.
func (s *GlobalClientState) NewSetup() {
	s.CloseSetup()
	s.Setup = lobby.NewSetup(s.API)
	s.Search = lobby.NewSearch(s.API, lobby.DefaultSearchDelay, func(lobby.Results) { s.Notify() })
}

// CloseSetup stops the pending search timers.
func (s *GlobalClientState) CloseSetup() {
	if s.Search != nil {
		s.Search.Stop()
	}
	s.Setup, s.Search = nil, nil
}

// Notify calls all listeners. It may be called from any goroutine; listeners
// are expected to dispatch to the UI goroutine.
func (s *GlobalClientState) Notify() {
	klog.V(2).Infof("GlobalClientState: Notifying %d listeners", len(s.Listeners))
	for _, l := range s.Listeners {
		if l != nil {
			l()
		}
	}
}
