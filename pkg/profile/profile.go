// Package profile holds the immutable constants that govern how one metric is simulated.  A
// single Profile value drives the zone state machine and the sensor noise model; the five
// reference metrics differ only in their table entries.
package profile

import (
	"math"
)

// Interpolation selects how a zone moves from its start value to its spike target
type Interpolation int

const (
	// Jump holds the value until the last spike step, then snaps to the target
	Jump Interpolation = iota
	// Eased follows start + (target-start)·(1-e^(-3t))/(1-e^(-3)) on every spike step
	Eased
)

func (i Interpolation) String() string {
	if i == Jump {
		return "jump"
	}
	return "eased"
}

// Ceiling replaces a NORMAL-regime sensor reading at or above At with Target
type Ceiling struct {
	At     float64
	Target float64
}

// Channel is one value of a zone.  Scalar metrics have one channel.
type Channel struct {
	// Label is the CSV column for this channel
	Label string

	// Normal is the center the walk and recovery pull toward.  Normal ± Range must lie inside
	// the band, which may be wider.
	Normal float64
	Range  float64
	// Min and Max bound the normal band.  A value is in band when Min <= v <= Max.
	Min float64
	Max float64
	// OutMin and OutMax bound the values a spike can target
	OutMin float64
	OutMax float64
	// ClampHigh replaces a NORMAL walk that overshoots Max
	ClampHigh float64
	Integer   bool

	Initial   Spread
	Walk      Spread
	SpikeLow  Spread
	SpikeHigh Spread
	Toward    Spread
	Away      Spread
	Noise     Spread

	// Floor is the lowest reading a sensor may publish
	Floor *float64
	// Ceiling is applied to sensor readings taken while the zone is NORMAL
	Ceiling *Ceiling
}

// InBand reports whether v satisfies the normal band predicate
func (c Channel) InBand(v float64) bool {
	return v >= c.Min && v <= c.Max
}

// Profile is the full set of constants for one metric.  Profiles are values; use the With*
// methods to derive a modified copy.
type Profile struct {
	Name       string
	SensorType string
	Unit       string
	// Dir is the output directory for this metric's files
	Dir        string
	Decimals   int
	EmitRegime bool

	Channels []Channel

	OutProbability      float64
	RestoreProbability  float64
	RecoveryProbability float64
	SpikeDuration       int
	HoldDuration        int
	UsesHoldPhase       bool
	Interpolation       Interpolation
	SymmetricSpike      bool
	CenterStays         bool
	RecoverOutsideOnly  bool
	FloorInRecovery     bool
	// RecoveryTruncates truncates integer channels toward zero after a fractional recovery
	// step.  Small recovery magnitudes then only move a value when the truncation does.
	RecoveryTruncates bool
	// Quantum is the step sensor readings are rounded to.  Zero disables rounding.
	Quantum float64
}

// Arity is the number of values per zone and per reading
func (p Profile) Arity() int {
	return len(p.Channels)
}

// InBand reports whether every value is inside its channel's normal band
func (p Profile) InBand(values []float64) bool {
	if len(values) != len(p.Channels) {
		return false
	}
	for i, c := range p.Channels {
		if !c.InBand(values[i]) {
			return false
		}
	}
	return true
}

// Header returns the CSV header for one sensor file of this metric
func (p Profile) Header() []string {
	h := []string{"timestamp", "sensor_type", "sensor_id", "unit"}
	for _, c := range p.Channels {
		h = append(h, c.Label)
	}
	if p.EmitRegime {
		h = append(h, "state")
	}
	return h
}

// Quantize rounds v half up to the nearest multiple of Quantum
func (p Profile) Quantize(v float64) float64 {
	if p.Quantum <= 0 {
		return v
	}
	return math.Floor(v/p.Quantum+0.5) * p.Quantum
}

// WithOutProbability returns a copy of the profile with a different spike probability
func (p Profile) WithOutProbability(prob float64) Profile {
	cp := p
	cp.Channels = append([]Channel(nil), p.Channels...)
	cp.OutProbability = prob
	return cp
}

// Float returns a pointer to v, for the optional fields of a Channel
func Float(v float64) *float64 {
	return &v
}
