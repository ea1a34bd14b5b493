// Package rng provides the random sources consumed by every stochastic decision in a run
package rng

// Source is a stream of uniform random draws
type Source interface {
	// Float64 returns a uniform value in [0, 1)
	Float64() float64
	// Intn returns a uniform integer in [0, n).  It panics if n <= 0.
	Intn(n int) int
	// Bool returns true or false with equal probability
	Bool() bool
}
