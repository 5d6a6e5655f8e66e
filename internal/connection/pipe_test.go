package connection_test

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cardtable/webclient/internal/connection"
	"github.com/cardtable/webclient/internal/game"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/require"
)

// pipeListener serves HTTP connections over net.Pipe
type pipeListener struct {
	ch   chan net.Conn
	done chan struct{}
}

func (l *pipeListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *pipeListener) Close() error {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	return nil
}

func (l *pipeListener) Addr() net.Addr { return &net.TCPAddr{} }

// gameServer plays the server side of the game websocket.
type gameServer struct {
	t        *testing.T
	listener *pipeListener
	srv      *http.Server
	conns    chan *websocket.Conn
	requests chan *http.Request
	reject   atomic.Bool
	dials    atomic.Int32

	mu       sync.Mutex
	accepted []*websocket.Conn
}

func newGameServer(t *testing.T) *gameServer {
	g := &gameServer{
		t:        t,
		listener: &pipeListener{ch: make(chan net.Conn, 16), done: make(chan struct{})},
		conns:    make(chan *websocket.Conn, 16),
		requests: make(chan *http.Request, 16),
	}
	g.srv = &http.Server{Handler: http.HandlerFunc(g.handle)}
	go g.srv.Serve(g.listener)
	return g
}

func (g *gameServer) handle(w http.ResponseWriter, r *http.Request) {
	g.dials.Add(1)
	if g.reject.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.t.Errorf("Accept failed: %v", err)
		return
	}
	g.mu.Lock()
	g.accepted = append(g.accepted, conn)
	g.mu.Unlock()
	g.requests <- r
	g.conns <- conn
}

// dial connects the client through the pipe listener.
func (g *gameServer) dial(ctx context.Context, u string, opts *websocket.DialOptions) (*websocket.Conn, *http.Response, error) {
	opts.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DisableKeepAlives: true,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				cli, srv := net.Pipe()
				g.listener.ch <- srv
				return cli, nil
			},
		},
	}
	return websocket.Dial(ctx, u, opts)
}

func (g *gameServer) Close() {
	g.mu.Lock()
	for _, c := range g.accepted {
		_ = c.CloseNow()
	}
	g.mu.Unlock()
	_ = g.srv.Close()
	_ = g.listener.Close()
}

func push(t *testing.T, conn *websocket.Conn, ev game.Event) {
	t.Helper()
	env, err := game.Encode(ev)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(context.Background(), conn, env))
}

func pushRaw(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte(raw)))
}

func receive(t *testing.T, conn *websocket.Conn) game.Action {
	t.Helper()
	var env game.Envelope
	require.NoError(t, wsjson.Read(context.Background(), conn, &env))
	a, err := game.ParseAction(env)
	require.NoError(t, err)
	return a
}

// receiveAsync reads the next action in the background. Writes over net.Pipe
// block until the other end reads.
func receiveAsync(t *testing.T, conn *websocket.Conn) <-chan game.Action {
	got := make(chan game.Action, 1)
	go func() {
		defer close(got)
		var env game.Envelope
		if err := wsjson.Read(context.Background(), conn, &env); err != nil {
			t.Errorf("read failed: %v", err)
			return
		}
		a, err := game.ParseAction(env)
		if err != nil {
			t.Errorf("parse failed: %v", err)
			return
		}
		got <- a
	}()
	return got
}

// recorder collects what the manager reports.
type recorder struct {
	events   chan game.Event
	mu       sync.Mutex
	statuses []connection.Status
}

func newRecorder() *recorder {
	return &recorder{events: make(chan game.Event, 64)}
}

func (r *recorder) onEvent(ev game.Event) { r.events <- ev }

func (r *recorder) onStatus(s connection.Status, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) Statuses() []connection.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]connection.Status(nil), r.statuses...)
}

// Drain returns the events received so far.
func (r *recorder) Drain() []game.Event {
	var evs []game.Event
	for {
		select {
		case ev := <-r.events:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func types(evs []game.Event) []game.MessageType {
	out := make([]game.MessageType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type()
	}
	return out
}

func snapshot() *game.GameState {
	return &game.GameState{
		CurrentPlayerID: "p1",
		NextPlayerID:    "p2",
		Direction:       game.Clockwise,
		Players:         []string{"p1", "p2"},
		PlayerStates: map[string]*game.PlayerState{
			"p1": {Hand: []game.Card{{Suit: game.Hearts, Value: "8"}}},
			"p2": {CardCount: 3},
		},
		DiscardPile: []game.Card{{Suit: game.Hearts, Value: "7"}},
	}
}

