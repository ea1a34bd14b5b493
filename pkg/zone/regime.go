package zone

import (
	"fmt"

	"github.com/BTBurke/zonesim/pkg/fsm"
	"github.com/BTBurke/zonesim/pkg/profile"
)

// Regime is the life-cycle phase of a zone
type Regime int

const (
	Normal Regime = iota
	Spiking
	Holding
	OutOfRange
)

var regimeNames = map[Regime]string{
	Normal:     "NORMAL",
	Spiking:    "SPIKING",
	Holding:    "HOLDING",
	OutOfRange: "OUT_OF_RANGE",
}

func (r Regime) String() string {
	if s, ok := regimeNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Regime(%d)", int(r))
}

// Valid reports whether r is one of the four regimes
func (r Regime) Valid() bool {
	_, ok := regimeNames[r]
	return ok
}

// Regimes returns every regime in cycle order
func Regimes() []Regime {
	return []Regime{Normal, Spiking, Holding, OutOfRange}
}

// NewMachine returns the regime transition table for a profile.  Every regime may stay where it
// is, and the cycle skips HOLDING when the profile has no hold phase.
func NewMachine(p profile.Profile, opts ...fsm.MachineOption[Regime]) (*fsm.Machine[Regime], error) {
	var table fsm.MachineOption[Regime]
	if p.UsesHoldPhase {
		table = fsm.WithTransitions(
			fsm.T(Normal, Normal, Spiking),
			fsm.T(Spiking, Spiking, Holding),
			fsm.T(Holding, Holding, OutOfRange),
			fsm.T(OutOfRange, OutOfRange, Normal),
		)
	} else {
		table = fsm.WithTransitions(
			fsm.T(Normal, Normal, Spiking),
			fsm.T(Spiking, Spiking, OutOfRange),
			fsm.T(OutOfRange, OutOfRange, Normal),
		)
	}
	return fsm.NewMachine(Normal, append([]fsm.MachineOption[Regime]{table, fsm.WithStoppable[Regime]()}, opts...)...)
}
