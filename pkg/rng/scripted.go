package rng

var _ Source = &Scripted{}

// Scripted replays fixed draws in order and is meant for tests that need to force a particular
// path through the simulation.  Each kind of draw has its own queue.  When a queue runs dry the
// draw is taken from Fallback, or is the zero value when Fallback is nil.
type Scripted struct {
	Floats   []float64
	Ints     []int
	Bools    []bool
	Fallback Source

	// Draws counts every draw served, scripted or not
	Draws int
}

func (s *Scripted) Float64() float64 {
	s.Draws++
	if len(s.Floats) > 0 {
		f := s.Floats[0]
		s.Floats = s.Floats[1:]
		return f
	}
	if s.Fallback != nil {
		return s.Fallback.Float64()
	}
	return 0
}

// Intn returns the next scripted integer reduced modulo n
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	s.Draws++
	if len(s.Ints) > 0 {
		i := s.Ints[0]
		s.Ints = s.Ints[1:]
		return ((i % n) + n) % n
	}
	if s.Fallback != nil {
		return s.Fallback.Intn(n)
	}
	return 0
}

func (s *Scripted) Bool() bool {
	s.Draws++
	if len(s.Bools) > 0 {
		b := s.Bools[0]
		s.Bools = s.Bools[1:]
		return b
	}
	if s.Fallback != nil {
		return s.Fallback.Bool()
	}
	return false
}

// Exhausted reports whether every scripted draw has been consumed
func (s *Scripted) Exhausted() bool {
	return len(s.Floats) == 0 && len(s.Ints) == 0 && len(s.Bools) == 0
}
