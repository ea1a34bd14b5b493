// Package zone advances the true value of one zone through the NORMAL, SPIKING, HOLDING and
// OUT_OF_RANGE regimes, one tick per call to Step.
package zone

import (
	"fmt"
	"math"

	"github.com/BTBurke/zonesim/pkg/fsm"
	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/rng"
)

var easeNorm = 1 - math.Exp(-3)

// Ease maps the spike fraction t to the eased fraction of the distance covered.  Ease(1) is
// exactly 1.
func Ease(t float64) float64 {
	return (1 - math.Exp(-3*t)) / easeNorm
}

// State is the mutable state of one zone.  SpikeStart and SpikeTarget are fixed from entry into
// SPIKING until the next entry.
type State struct {
	Value         []float64
	Regime        Regime
	SpikeStep     int
	SpikeStart    []float64
	SpikeTarget   []float64
	HoldStep      int
	SpikeDuration int
	HoldDuration  int
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	cp := s
	cp.Value = clone(s.Value)
	cp.SpikeStart = clone(s.SpikeStart)
	cp.SpikeTarget = clone(s.SpikeTarget)
	return cp
}

// TransitionHook is called whenever a zone changes regime
type TransitionHook func(zone string, from, to Regime)

// Option configures a zone
type Option func(z *Zone)

// WithTransitionHook registers a hook that observes regime changes
func WithTransitionHook(h TransitionHook) Option {
	return func(z *Zone) {
		z.hooks = append(z.hooks, h)
	}
}

// Zone owns the true value of one zone.  A Zone is not safe for concurrent use.
type Zone struct {
	id      string
	profile profile.Profile
	state   State
	machine *fsm.Machine[Regime]
	hooks   []TransitionHook
}

// New creates a zone in the NORMAL regime with an initial value drawn from each channel's
// initial spread
func New(id string, p profile.Profile, src rng.Source, opts ...Option) (*Zone, error) {
	if p.Arity() == 0 {
		return nil, fmt.Errorf("zone %s: profile %q has no channels", id, p.Name)
	}
	z := &Zone{
		id:      id,
		profile: p,
	}
	for _, opt := range opts {
		opt(z)
	}
	m, err := NewMachine(p, fsm.WithObserver(z.observe))
	if err != nil {
		return nil, fmt.Errorf("zone %s: %w", id, err)
	}
	z.machine = m

	value := make([]float64, p.Arity())
	for i, c := range p.Channels {
		value[i] = c.Initial.Draw(src)
	}
	z.state = State{
		Value:         value,
		Regime:        Normal,
		SpikeStart:    clone(value),
		SpikeTarget:   clone(value),
		SpikeDuration: p.SpikeDuration,
		HoldDuration:  p.HoldDuration,
	}
	return z, nil
}

// ID returns the zone id
func (z *Zone) ID() string {
	return z.id
}

// Regime returns the current regime
func (z *Zone) Regime() Regime {
	return z.state.Regime
}

// Value returns a copy of the current true value
func (z *Zone) Value() []float64 {
	return clone(z.state.Value)
}

// Snapshot returns a deep copy of the zone's state
func (z *Zone) Snapshot() State {
	return z.state.Clone()
}

// Step advances the zone by exactly one tick.  An error means the transition table rejected the
// move, which only happens when the profile and table disagree.
func (z *Zone) Step(src rng.Source) error {
	var next Regime
	switch z.state.Regime {
	case Normal:
		next = z.stepNormal(src)
	case Spiking:
		next = z.stepSpiking()
	case Holding:
		next = z.stepHolding()
	case OutOfRange:
		next = z.stepRecovery(src)
	default:
		return fmt.Errorf("zone %s: unknown regime %v", z.id, z.state.Regime)
	}
	if err := z.machine.Transition(next); err != nil {
		return fmt.Errorf("zone %s: %w", z.id, err)
	}
	z.state.Regime = next
	return nil
}

func (z *Zone) stepNormal(src rng.Source) Regime {
	p := z.profile
	s := &z.state
	if src.Float64() < p.OutProbability {
		high := true
		if p.SymmetricSpike {
			high = !src.Bool()
		}
		s.SpikeStart = clone(s.Value)
		s.SpikeTarget = make([]float64, p.Arity())
		for i, c := range p.Channels {
			if high {
				s.SpikeTarget[i] = c.SpikeHigh.Draw(src)
			} else {
				s.SpikeTarget[i] = c.SpikeLow.Draw(src)
			}
		}
		s.SpikeStep = 0
		s.HoldStep = 0
		s.SpikeDuration = p.SpikeDuration
		s.HoldDuration = p.HoldDuration
		return Spiking
	}

	toward := src.Float64() < p.RestoreProbability
	for i, c := range p.Channels {
		d := c.Walk.Draw(src)
		v := s.Value[i]
		if toward {
			d = math.Abs(d)
			switch {
			case v < c.Normal:
				v += d
			case v > c.Normal || !p.CenterStays:
				v -= d
			}
		} else {
			v += d
		}
		if v < c.Min {
			v = c.Min
		} else if v > c.Max {
			v = c.ClampHigh
		}
		s.Value[i] = v
	}
	return Normal
}

func (z *Zone) stepSpiking() Regime {
	p := z.profile
	s := &z.state
	s.SpikeStep++
	done := s.SpikeStep >= s.SpikeDuration

	switch p.Interpolation {
	case profile.Eased:
		f := Ease(float64(s.SpikeStep) / float64(s.SpikeDuration))
		for i, c := range p.Channels {
			v := s.SpikeStart[i] + (s.SpikeTarget[i]-s.SpikeStart[i])*f
			if c.Integer {
				v = math.Trunc(v)
			}
			s.Value[i] = v
		}
	case profile.Jump:
		if done {
			copy(s.Value, s.SpikeTarget)
		}
	}

	if !done {
		return Spiking
	}
	s.HoldStep = 0
	if p.UsesHoldPhase {
		return Holding
	}
	return OutOfRange
}

func (z *Zone) stepHolding() Regime {
	s := &z.state
	s.HoldStep++
	copy(s.Value, s.SpikeTarget)
	if s.HoldStep >= s.HoldDuration {
		return OutOfRange
	}
	return Holding
}

func (z *Zone) stepRecovery(src rng.Source) Regime {
	p := z.profile
	s := &z.state
	for i, c := range p.Channels {
		v := s.Value[i]
		if p.RecoverOutsideOnly && c.InBand(v) {
			continue
		}
		dir := 1.0
		if v >= c.Normal {
			dir = -1
		}
		if src.Float64() < p.RecoveryProbability {
			v += dir * c.Toward.Draw(src)
		} else {
			v -= dir * c.Away.Draw(src)
		}
		if c.Integer && p.RecoveryTruncates {
			v = math.Trunc(v)
		}
		s.Value[i] = v
	}

	next := OutOfRange
	if p.InBand(s.Value) {
		next = Normal
	}
	if p.FloorInRecovery {
		for i, c := range p.Channels {
			if s.Value[i] < c.Min {
				s.Value[i] = c.Min
			}
		}
	}
	return next
}

func (z *Zone) observe(from, to Regime) {
	if from == to {
		return
	}
	for _, h := range z.hooks {
		h(z.id, from, to)
	}
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
