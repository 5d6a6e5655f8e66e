// Package session ties the connection, the reducer, the interaction machine
// and the action gate together for the game currently on screen.
package session

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cardtable/webclient/internal/connection"
	"github.com/cardtable/webclient/internal/game"
	"github.com/cardtable/webclient/internal/gate"
	"github.com/cardtable/webclient/internal/interaction"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Transport is the connection to the game server. *connection.Manager
// implements it.
type Transport interface {
	Connect(ctx context.Context, gameID, token string) error
	Send(ctx context.Context, a game.Action) error
	Close()
}

// Config of a Session.
type Config struct {
	Connection connection.Config

	// PendingTimeout is how long an unconfirmed action stays pending before
	// its optimistic effects are reverted.
	PendingTimeout time.Duration

	// NewTransport creates the transport for a game. It defaults to a
	// connection.Manager built from Connection.
	NewTransport func(onEvent func(game.Event), onStatus func(connection.Status, error)) Transport
}

// DefaultConfig returns the configuration used by the clients.
func DefaultConfig(baseURL string) Config {
	return Config{
		Connection:     connection.DefaultConfig(baseURL),
		PendingTimeout: 5 * time.Second,
	}
}

// Session is the client side of one game. All its methods are safe for
// concurrent use; events are applied one at a time in arrival order.
type Session struct {
	cfg   Config
	modes *interaction.Machine
	gate  *gate.Gate

	mu           sync.Mutex
	local        game.Local
	gameID       string
	transport    Transport
	generation   int // Bumped on every Join and Leave; stale callbacks are dropped.
	status       connection.Status
	statusErr    error
	pendingTimer *time.Timer
	listeners    map[string]func()
}

// New creates a Session for the local player self.
func New(cfg Config, self string) *Session {
	if cfg.NewTransport == nil {
		connCfg := cfg.Connection
		cfg.NewTransport = func(onEvent func(game.Event), onStatus func(connection.Status, error)) Transport {
			return connection.NewManager(connCfg, onEvent, onStatus)
		}
	}
	s := &Session{
		cfg:       cfg,
		modes:     interaction.NewMachine(),
		local:     game.Local{Self: self},
		listeners: make(map[string]func()),
	}
	s.gate = &gate.Gate{Sender: s, Source: s, Modes: s.modes, OnSent: s.recordPending}
	return s
}

// Join connects to gameID. A previous game is left first.
func (s *Session) Join(ctx context.Context, gameID, token string) error {
	s.Leave()
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	onEvent := func(ev game.Event) {
		if s.current(gen) {
			s.HandleEvent(ev)
		}
	}
	onStatus := func(st connection.Status, err error) {
		if s.current(gen) {
			s.handleStatus(st, err)
		}
	}
	t := s.cfg.NewTransport(onEvent, onStatus)
	s.mu.Lock()
	s.gameID = gameID
	s.transport = t
	s.mu.Unlock()
	klog.Infof("Session.Join: joining game %s as %s", gameID, s.Self())
	if err := t.Connect(ctx, gameID, token); err != nil {
		klog.Errorf("Session.Join: %v", err)
		return err
	}
	return nil
}

// Leave closes the connection and resets the session to its empty state.
func (s *Session) Leave() {
	s.mu.Lock()
	t := s.transport
	s.transport = nil
	s.generation++
	s.gameID = ""
	s.local = game.Local{Self: s.local.Self}
	s.status, s.statusErr = connection.StatusIdle, nil
	s.stopPendingTimer()
	s.mu.Unlock()
	s.modes.Cancel()
	if t != nil {
		klog.Infof("Session.Leave: leaving game")
		t.Close()
		s.Notify()
	}
}

// Self returns the local player id.
func (s *Session) Self() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Self
}

// GameID returns the joined game, or "".
func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

// Local returns the current local view. The GameState must not be modified.
func (s *Session) Local() game.Local {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// Mode returns the active interaction mode.
func (s *Session) Mode() interaction.Mode {
	return s.modes.Current()
}

// Status returns the connection status and the error that caused it, if any.
func (s *Session) Status() (connection.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusErr
}

// Gate returns the action gate bound to this session.
func (s *Session) Gate() *gate.Gate {
	return s.gate
}

// Send implements gate.Sender over the current transport.
func (s *Session) Send(ctx context.Context, a game.Action) error {
	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t == nil {
		return connection.ErrNotConnected
	}
	return t.Send(ctx, a)
}

// Listen registers fn to be called after every change. It replaces any
// listener registered with the same key.
func (s *Session) Listen(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[key] = fn
}

// Forget removes the listener registered with key.
func (s *Session) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, key)
}

// Notify calls every listener, outside the session lock.
func (s *Session) Notify() {
	s.mu.Lock()
	keys := slices.Sorted(maps.Keys(s.listeners))
	fns := make([]func(), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.listeners[k])
	}
	s.mu.Unlock()
	klog.V(1).Infof("Session.Notify: notifying %d listeners", len(fns))
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

// HandleEvent folds ev into the session. The transport calls it for every
// inbound event, in order.
func (s *Session) HandleEvent(ev game.Event) {
	s.mu.Lock()
	self := s.local.Self
	prev := s.local.Game
	next := game.Reducer{Self: self}.Apply(prev, ev)
	s.local.Game = next
	s.trackDraw(prev, next, ev)
	s.settlePending(ev)
	s.mu.Unlock()

	s.modes.Observe(ev, next, self)
	s.Notify()
}

func (s *Session) current(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

func (s *Session) handleStatus(st connection.Status, err error) {
	s.mu.Lock()
	s.status, s.statusErr = st, err
	s.mu.Unlock()
	if st == connection.StatusDisconnected {
		klog.Errorf("Session.handleStatus: disconnected, please reload: %v", err)
	}
	s.Notify()
}

// trackDraw maintains DrewThisTurn. Caller holds s.mu.
func (s *Session) trackDraw(prev, next *game.GameState, ev game.Event) {
	switch e := ev.(type) {
	case game.GameStateEvent:
		s.local.DrewThisTurn = false
		return
	case game.CardDrawn:
		if e.PlayerID == s.local.Self && next != nil && next.CurrentPlayerID == s.local.Self {
			s.local.DrewThisTurn = true
			return
		}
	}
	if prev != nil && next != nil && prev.CurrentPlayerID != next.CurrentPlayerID {
		s.local.DrewThisTurn = false
	}
}

// settlePending clears the pending action once the server reflected it.
// Caller holds s.mu.
func (s *Session) settlePending(ev game.Event) {
	p := s.local.Pending
	if p == nil {
		return
	}
	self := s.local.Self
	settled := false
	switch e := ev.(type) {
	case game.GameStateEvent, game.GameEnded:
		settled = true
	case game.CardPlayed:
		play, ok := p.Action.(game.PlayCard)
		settled = ok && e.PlayerID == self && play.Card.Equal(e.Card)
	case game.CardDrawn:
		_, ok := p.Action.(game.DrawCard)
		settled = ok && e.PlayerID == self
	case game.TurnChanged:
		settled = e.PlayerID != self
	}
	if settled {
		klog.V(1).Infof("Session.settlePending: %s %s confirmed by %s", p.Action.Type(), p.ID, ev.Type())
		s.local.Pending = nil
		s.stopPendingTimer()
	}
}

// recordPending is called by the gate after each successful send.
func (s *Session) recordPending(a game.Action) {
	s.mu.Lock()
	s.stopPendingTimer()
	id := uuid.New()
	s.local.Pending = &game.PendingAction{ID: id, SentAt: time.Now(), Action: a}
	if s.cfg.PendingTimeout > 0 {
		s.pendingTimer = time.AfterFunc(s.cfg.PendingTimeout, func() { s.expirePending(id) })
	}
	s.mu.Unlock()
	s.Notify()
}

func (s *Session) expirePending(id uuid.UUID) {
	s.mu.Lock()
	p := s.local.Pending
	if p == nil || p.ID != id {
		s.mu.Unlock()
		return
	}
	klog.Warningf("Session.expirePending: %s %s not confirmed after %s, reverting", p.Action.Type(), id, s.cfg.PendingTimeout)
	s.local.Pending = nil
	s.pendingTimer = nil
	s.mu.Unlock()
	s.Notify()
}

// Caller holds s.mu.
func (s *Session) stopPendingTimer() {
	if s.pendingTimer != nil {
		s.pendingTimer.Stop()
		s.pendingTimer = nil
	}
}
