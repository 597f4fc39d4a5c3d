// state/machine.go
package state

import (
	"fmt"
	"time"

	"github.com/wfunc/impostor/errs"
)

// ErrTransitionNotAllowed is returned when the table has no edge for a change.
var ErrTransitionNotAllowed = fmt.Errorf("%w: state transition not allowed", errs.ErrState)

// State 是单个阶段的行为
type State interface {
	Phase() Phase
	OnEnter(from Phase)
	OnExit(to Phase)
	OnUpdate(now time.Time)
}

// BaseState gives a phase no-op hooks.
type BaseState struct {
	ID Phase
}

func (s *BaseState) Phase() Phase       { return s.ID }
func (s *BaseState) OnEnter(Phase)      {}
func (s *BaseState) OnExit(Phase)       {}
func (s *BaseState) OnUpdate(time.Time) {}

// Listener is called after the phase switches and before the new phase's
// entry hook runs.
type Listener func(from, to Phase)

// Machine is driven from a single goroutine and holds no lock. Hooks may call
// ChangeState again.
type Machine struct {
	current     Phase
	states      map[Phase]State
	transitions map[Phase]map[Phase]bool // from -> to
	listeners   []Listener
}

func NewMachine(initial Phase) *Machine {
	m := &Machine{
		current:     initial,
		states:      make(map[Phase]State),
		transitions: make(map[Phase]map[Phase]bool),
	}
	for from, tos := range DefaultTransitions() {
		for _, to := range tos {
			m.AddTransition(from, to)
		}
	}
	return m
}

// Register installs the hooks for s.Phase(), replacing any earlier ones.
func (m *Machine) Register(s State) {
	m.states[s.Phase()] = s
}

func (m *Machine) AddTransition(from, to Phase) {
	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[Phase]bool)
	}
	m.transitions[from][to] = true
}

func (m *Machine) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *Machine) Current() Phase {
	return m.current
}

func (m *Machine) CanTransition(from, to Phase) bool {
	return m.transitions[from][to]
}

// ChangeState moves to p. Asking for the current phase is a no-op with no
// notification.
func (m *Machine) ChangeState(p Phase) error {
	if p == m.current {
		return nil
	}
	if !m.CanTransition(m.current, p) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, m.current, p)
	}
	m.switchTo(p)
	return nil
}

// Sync moves to p without consulting the transition table. Clients use it to
// mirror the host, whose history they may have joined halfway through.
func (m *Machine) Sync(p Phase) {
	if p == m.current {
		return
	}
	m.switchTo(p)
}

func (m *Machine) switchTo(p Phase) {
	from := m.current
	if s, ok := m.states[from]; ok {
		s.OnExit(p)
	}
	m.current = p
	for _, l := range m.listeners {
		l(from, p)
	}
	if s, ok := m.states[p]; ok {
		s.OnEnter(from)
	}
}

// Update runs the current phase's per-tick hook.
func (m *Machine) Update(now time.Time) {
	if s, ok := m.states[m.current]; ok {
		s.OnUpdate(now)
	}
}
