// Package fsm implements a finite state machine with an explicit table of allowable transitions
package fsm

import (
	"fmt"
)

// FSM is an interface that defines the operation of different types of
// state machines over a comparable state type.
type FSM[S comparable] interface {
	State() S
	Allowable(from, to S) bool
	Transition(to S) error
}

var _ FSM[string] = &Machine[string]{}

// Machine is a basic finite state machine
type Machine[S comparable] struct {
	current   S
	allowable map[S][]S
	order     []S
	stoppable stoppable
	observers []Observer[S]
}

// Observer is called after every successful transition
type Observer[S comparable] func(from, to S)

// NewMachine returns a new basic Machine with configured options.  If you do not utilize any
// options, the machine will not have any configured transitions.
func NewMachine[S comparable](initial S, opts ...MachineOption[S]) (*Machine[S], error) {
	machine := &Machine[S]{
		current:   initial,
		allowable: map[S][]S{},
	}
	machine.track(initial)
	for _, opt := range opts {
		if err := opt(machine); err != nil {
			return nil, err
		}
	}
	return machine, nil
}

// State returns the current state of the Machine
func (m *Machine[S]) State() S {
	return m.current
}

// Allowable checks whether a transition between two states is allowable
func (m *Machine[S]) Allowable(from, to S) bool {
	return contains(to, m.allowable[from])
}

// Transition will change the current state of the machine if it is allowable
func (m *Machine[S]) Transition(to S) error {
	return m.transition(to, m.stoppable)
}

// States returns every state named in the transition table in the order it was first seen,
// starting with the initial state.
func (m *Machine[S]) States() []S {
	out := make([]S, len(m.order))
	copy(out, m.order)
	return out
}

// Terminal returns the states that have no outgoing transition.  A machine that must always be
// able to make progress returns an empty slice.
func (m *Machine[S]) Terminal() []S {
	var out []S
	for _, s := range m.order {
		if len(m.allowable[s]) == 0 {
			out = append(out, s)
		}
	}
	return out
}

func (m *Machine[S]) transition(to S, guards ...transitionGuard) error {
	for _, guard := range guards {
		if err := guard.ok(); err != nil {
			m.stoppable.stopped = true
			return err
		}
	}

	if !m.Allowable(m.current, to) {
		m.stoppable.stopped = true
		return TransitionNotAllowed{Msg: fmt.Sprintf("cannot transition from state %v to %v", m.current, to)}
	}
	from := m.current
	m.current = to
	for _, obs := range m.observers {
		obs(from, to)
	}
	return nil
}

func (m *Machine[S]) track(s S) {
	if !contains(s, m.order) {
		m.order = append(m.order, s)
	}
}

func contains[S comparable](s S, all []S) bool {
	for _, a := range all {
		if s == a {
			return true
		}
	}
	return false
}
