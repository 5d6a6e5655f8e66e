package interaction

import (
	"sync"

	"github.com/cardtable/webclient/internal/game"
	"k8s.io/klog/v2"
)

// Machine holds the active interaction mode plus the demands that arrived
// while another choice was still open. Only one Awaiting* mode is active at a
// time; the others wait in FIFO order.
//
// Machine is safe for concurrent use.
type Machine struct {
	mu      sync.Mutex
	current Mode
	queue   []Mode
}

// NewMachine returns a machine in Idle.
func NewMachine() *Machine {
	return &Machine{current: Idle{}}
}

// Current returns the active mode.
func (m *Machine) Current() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Queued returns how many demands wait behind the active one.
func (m *Machine) Queued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Demand activates mode, or queues it if a choice is already open.
func (m *Machine) Demand(mode Mode) {
	if mode == nil || mode.Kind() == KindIdle {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Kind() == KindIdle {
		klog.V(1).Infof("Machine.Demand: entering %v", mode)
		m.current = mode
		return
	}
	klog.V(1).Infof("Machine.Demand: %v queued behind %v", mode, m.current)
	m.queue = append(m.queue, mode)
}

// Resolve closes the active mode if it is of the given kind, and activates the
// next queued one. It returns false if the active mode is of another kind.
func (m *Machine) Resolve(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == KindIdle || m.current.Kind() != kind {
		return false
	}
	m.advance()
	return true
}

// Cancel drops the active mode and everything queued.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Kind() != KindIdle || len(m.queue) > 0 {
		klog.V(1).Infof("Machine.Cancel: dropping %v and %d queued", m.current, len(m.queue))
	}
	m.current = Idle{}
	m.queue = nil
}

func (m *Machine) advance() {
	if len(m.queue) == 0 {
		m.current = Idle{}
		return
	}
	m.current = m.queue[0]
	m.queue = m.queue[1:]
}

// Observe updates the machine after ev was applied; s is the resulting state
// and self the local player.
func (m *Machine) Observe(ev game.Event, s *game.GameState, self string) {
	switch e := ev.(type) {
	case game.GameStateEvent, game.GameEnded:
		m.Cancel()
	case game.TurnChanged:
		if e.Forced {
			m.Cancel()
		}
	case game.CardPlayed:
		if s == nil || s.GameOver {
			return
		}
		rules := s.RuleSet()
		if e.PlayerID == self {
			if e.Effects.RequiresSuit || (rules.RequiresSuitChoice(e.Card.Value) && !e.Effects.ChosenSuit.Valid()) {
				m.Demand(AwaitingSuitChoice{})
			}
			if e.Effects.RequiresTarget || (rules.RequiresTarget(e.Card.Value) && e.Effects.TargetPlayer == "") {
				m.Demand(AwaitingTargetChoice{Players: s.Opponents(self)})
			}
		} else if e.Effects.Counterable && e.Effects.TargetPlayer == self {
			m.Demand(AwaitingCounterChoice{Card: game.Card{Suit: e.Card.Suit, Value: e.Card.Value}})
		}
	case game.ChoiceRequired:
		switch e.Kind {
		case game.ChoiceSuit:
			m.Demand(AwaitingSuitChoice{})
		case game.ChoiceTarget:
			players := e.Players
			if len(players) == 0 {
				players = s.Opponents(self)
			}
			m.Demand(AwaitingTargetChoice{Players: players})
		case game.ChoiceCounter:
			var c game.Card
			if e.Card != nil {
				c = *e.Card
			} else if top, ok := s.TopCard(); ok {
				c = top
			}
			m.Demand(AwaitingCounterChoice{Card: c})
		default:
			klog.Warningf("Machine.Observe: unknown choice kind %q", e.Kind)
		}
	}
}
