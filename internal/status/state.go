// Package status tracks the lifecycle of the WhatsApp link so the
// backend can wait for a usable connection before handing it out.
package status

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/chatterm/internal/bus"
)

// State represents a link state.
type State string

const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Connecting   State = "CONNECTING"
	Syncing      State = "SYNCING"
	Ready        State = "READY"
	Reconnecting State = "RECONNECTING"
	LoggedOut    State = "LOGGED_OUT"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:      {AuthRequired, Connecting},
	AuthRequired: {Connecting, LoggedOut},
	Connecting:   {Syncing, AuthRequired, Reconnecting, LoggedOut},
	Syncing:      {Ready, Reconnecting, LoggedOut},
	Ready:        {Reconnecting, LoggedOut},
	Reconnecting: {Connecting, Syncing, LoggedOut},
	LoggedOut:    {},
}

// Usable reports whether requests may be sent in state s.
func (s State) Usable() bool {
	return s == Syncing || s == Ready
}

// Machine tracks and enforces link state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	changed chan struct{}
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		changed: make(chan struct{}),
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	close(m.changed)
	m.changed = make(chan struct{})
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Emit(bus.KindSessionStatus, StatusChange{From: from, To: to})
	}
	return nil
}

// WaitFor blocks until the machine is in one of targets and returns that
// state, or returns ctx.Err().
func (m *Machine) WaitFor(ctx context.Context, targets ...State) (State, error) {
	for {
		m.mu.RLock()
		cur, changed := m.current, m.changed
		m.mu.RUnlock()

		if slices.Contains(targets, cur) {
			return cur, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return cur, ctx.Err()
		}
	}
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
