package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cardtable/webclient/internal/game"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"k8s.io/klog/v2"
)

// Manager owns the websocket of one game.
//
// Inbound events are delivered to the event handler one at a time, in the
// order they were received, from a single goroutine. After every (re)connect
// the only events let through are game_state and connection_established, until
// the first snapshot arrives.
type Manager struct {
	cfg      Config
	onEvent  func(game.Event)
	onStatus func(Status, error)

	mu     sync.Mutex
	conn   *websocket.Conn
	status Status
	gated  bool
	live   context.Context // Context of the current run, nil once closed.
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a Manager. onStatus may be nil.
func NewManager(cfg Config, onEvent func(game.Event), onStatus func(Status, error)) *Manager {
	if cfg.Dial == nil {
		cfg.Dial = websocket.Dial
	}
	return &Manager{cfg: cfg, onEvent: onEvent, onStatus: onStatus}
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// AwaitingSnapshot reports whether deltas are currently being dropped.
func (m *Manager) AwaitingSnapshot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gated
}

// Done is closed when the read loop stopped for good.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return m.done
}

// Connect dials the game's websocket and starts reading from it in the
// background. ctx only bounds the first handshake: the connection lives until
// Close, or until reconnection is abandoned.
func (m *Manager) Connect(ctx context.Context, gameID, token string) error {
	if gameID == "" {
		return errors.New("Connect: missing game id")
	}
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.live, m.cancel, m.done = runCtx, cancel, done
	m.mu.Unlock()

	m.setStatus(StatusConnecting, nil)
	u := m.cfg.URL(gameID, token)
	klog.Infof("Connect: connecting to game %s", gameID)
	conn, err := m.dial(ctx, u, token)
	if err != nil {
		klog.Errorf("Connect: dial failed: %v", err)
		m.stop(runCtx)
		close(done)
		m.setStatus(StatusDisconnected, err)
		return fmt.Errorf("dial failed: %w", err)
	}
	if !m.attach(runCtx, conn) {
		close(done)
		return ErrNotConnected
	}
	go m.run(runCtx, done, conn, u, token)
	return nil
}

// Send frames and writes an action. It fails with ErrNotConnected when no
// channel is open, and while the snapshot that follows a (re)connect has not
// arrived yet: intents validated against the previous state are not sent.
func (m *Manager) Send(ctx context.Context, a game.Action) error {
	m.mu.Lock()
	conn, status, gated := m.conn, m.status, m.gated
	m.mu.Unlock()
	if conn == nil || status != StatusConnected {
		return ErrNotConnected
	}
	if gated {
		klog.V(1).Infof("Send: refusing %s while awaiting snapshot", a.Type())
		return fmt.Errorf("%w: awaiting game state", ErrNotConnected)
	}
	return m.write(ctx, conn, a)
}

func (m *Manager) write(ctx context.Context, conn *websocket.Conn, a game.Action) error {
	env, err := game.Encode(a)
	if err != nil {
		return err
	}
	if m.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.WriteTimeout)
		defer cancel()
	}
	if err := wsjson.Write(ctx, conn, env); err != nil {
		klog.Errorf("Send: failed to write %s: %v", env.Type, err)
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	klog.V(1).Infof("Send: sent %s", env.Type)
	return nil
}

// Close releases the channel and stops any reconnection attempt.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel, conn := m.cancel, m.conn
	m.live, m.cancel, m.conn = nil, nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	klog.Infof("Close: closing connection")
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "leaving game")
	}
	cancel()
	m.setStatus(StatusClosed, nil)
}

func (m *Manager) dial(ctx context.Context, u, token string) (*websocket.Conn, error) {
	if m.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.DialTimeout)
		defer cancel()
	}
	conn, _, err := m.cfg.Dial(ctx, u, dialOptions(token))
	return conn, err
}

// attach makes conn the active connection. It returns false, and closes
// conn, if the manager was closed in the meantime.
func (m *Manager) attach(ctx context.Context, conn *websocket.Conn) bool {
	m.mu.Lock()
	if m.live != ctx || ctx.Err() != nil {
		m.mu.Unlock()
		_ = conn.CloseNow()
		return false
	}
	m.conn = conn
	m.gated = true
	m.mu.Unlock()
	m.setStatus(StatusConnected, nil)
	return true
}

func (m *Manager) detach(conn *websocket.Conn) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.mu.Unlock()
	_ = conn.CloseNow()
}

// stop ends the run of ctx, unless Close already did. It returns false in
// that case.
func (m *Manager) stop(ctx context.Context) bool {
	m.mu.Lock()
	if m.live != ctx {
		m.mu.Unlock()
		return false
	}
	cancel := m.cancel
	m.live, m.cancel = nil, nil
	m.mu.Unlock()
	cancel()
	return true
}

func (m *Manager) isLive(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live == ctx && ctx.Err() == nil
}

func (m *Manager) setStatus(s Status, err error) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if err != nil {
		klog.V(1).Infof("setStatus: %s (%v)", s, err)
	} else {
		klog.V(1).Infof("setStatus: %s", s)
	}
	if m.onStatus != nil {
		m.onStatus(s, err)
	}
}

func (m *Manager) run(ctx context.Context, done chan struct{}, conn *websocket.Conn, u, token string) {
	defer close(done)
	for {
		err := m.readLoop(ctx, conn)
		m.detach(conn)
		if !m.isLive(ctx) {
			return
		}
		klog.Warningf("run: connection lost: %v", err)
		m.setStatus(StatusReconnecting, fmt.Errorf("%w: %w", ErrConnectionLost, err))

		conn = m.reconnect(ctx, u, token)
		if conn == nil {
			if !m.stop(ctx) {
				return
			}
			klog.Errorf("run: giving up after %d attempts", m.cfg.MaxAttempts)
			m.setStatus(StatusDisconnected, ErrConnectionLost)
			return
		}
		if err := m.write(ctx, conn, game.RequestState{}); err != nil {
			klog.Warningf("run: failed to request state after reconnect: %v", err)
		}
	}
}

func (m *Manager) reconnect(ctx context.Context, u, token string) *websocket.Conn {
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		if wait := m.cfg.Backoff(attempt); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
		conn, err := m.dial(ctx, u, token)
		if err != nil {
			klog.Warningf("reconnect: attempt %d/%d failed: %v", attempt, m.cfg.MaxAttempts, err)
			if !m.isLive(ctx) {
				return nil
			}
			continue
		}
		if !m.attach(ctx, conn) {
			return nil
		}
		klog.Infof("reconnect: reconnected after %d attempt(s)", attempt)
		return conn
	}
	return nil
}

func (m *Manager) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var env game.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			klog.Errorf("readLoop: dropping malformed frame: %v", err)
			continue
		}
		ev, err := game.ParseEvent(env)
		if err != nil {
			klog.Errorf("readLoop: dropping %s: %v", env.Type, err)
			continue
		}
		if !m.admit(ev) {
			klog.V(1).Infof("readLoop: dropping %s while awaiting snapshot", env.Type)
			continue
		}
		m.onEvent(ev)
	}
}

func (m *Manager) admit(ev game.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev.(type) {
	case game.GameStateEvent:
		m.gated = false
		return true
	case game.ConnectionEstablished:
		return true
	}
	return !m.gated
}
