package fsm

// Transition represents an allowable transition from one state to another
type Transition[S comparable] struct {
	From S
	To   S
}

// transitionGuard represents a closure over a function that will stop transition on
// a particular condition beyond just whether the transition is allowed
type transitionGuard interface {
	ok() error
}

// T is a shorthand function for declaring allowable transitions during FSM creation
func T[S comparable](from S, tos ...S) []Transition[S] {
	var transitions []Transition[S]
	for _, to := range tos {
		transitions = append(transitions, Transition[S]{
			From: from,
			To:   to,
		})
	}
	return transitions
}

func flatten[S comparable](t [][]Transition[S]) []Transition[S] {
	var transitions []Transition[S]
	for _, t1 := range t {
		transitions = append(transitions, t1...)
	}
	return transitions
}
