package fsm

// MachineOption represents options to initially set up a machine
type MachineOption[S comparable] func(m *Machine[S]) error

// WithTransition allows the addition of a single edge on the transition graph.  To add multiple
// edges at once, try WithTransitions.
func WithTransition[S comparable](t Transition[S]) MachineOption[S] {
	return func(m *Machine[S]) error {
		m.add(t)
		return nil
	}
}

// WithTransitions will allow the addition of multiple transitions using the T(from, to...) short
// function.  For example, you can call `NewMachine(Initial, WithTransitions(T(One, Two, Three), T(Two, Three)))`
func WithTransitions[S comparable](transitions ...[]Transition[S]) MachineOption[S] {
	return func(m *Machine[S]) error {
		for _, t := range flatten(transitions) {
			m.add(t)
		}
		return nil
	}
}

// WithStoppable makes the state machine stop after an unallowable transition.  Further attempted transitions
// will always error.
func WithStoppable[S comparable]() MachineOption[S] {
	return func(m *Machine[S]) error {
		m.stoppable.stopOnError = true
		return nil
	}
}

// WithObserver registers a callback that runs after every successful transition
func WithObserver[S comparable](obs func(from, to S)) MachineOption[S] {
	return func(m *Machine[S]) error {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
		return nil
	}
}

func (m *Machine[S]) add(t Transition[S]) {
	if !contains(t.To, m.allowable[t.From]) {
		m.allowable[t.From] = append(m.allowable[t.From], t.To)
	}
	m.track(t.From)
	m.track(t.To)
}

type stoppable struct {
	stopOnError bool
	stopped     bool
}

func (s stoppable) ok() error {
	if s.stopOnError && s.stopped {
		return StopError{Msg: "state machine is in stopped state due to unallowable transition"}
	}
	return nil
}
