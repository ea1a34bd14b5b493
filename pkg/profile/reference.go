package profile

import (
	"fmt"
	"sort"
)

// Reference metric names
const (
	ESD         = "esd"
	Humidity    = "humidity"
	Temperature = "temperature"
	WindDir     = "windDir"
	Particle    = "particle"
)

const (
	spikeDuration = 10
	holdDuration  = 25
)

var reference = map[string]Profile{
	ESD: {
		Name:       ESD,
		SensorType: "esd",
		Unit:       "V",
		Dir:        "esd",
		EmitRegime: true,
		Channels: []Channel{{
			Label:     "val",
			Normal:    50,
			Range:     30,
			Min:       0,
			Max:       100,
			OutMin:    0,
			OutMax:    120,
			ClampHigh: 80,
			Integer:   true,
			Initial:   I(20, 80),
			Walk:      I(-25, 25),
			SpikeHigh: I(100, 119),
			Toward:    I(75, 100),
			Away:      I(-25, 25),
			Noise:     I(-5, 5),
			Floor:     Float(0),
			Ceiling:   &Ceiling{At: 100, Target: 80},
		}},
		OutProbability:      0.001,
		RestoreProbability:  0.3,
		RecoveryProbability: 0.98,
		SpikeDuration:       spikeDuration,
		HoldDuration:        holdDuration,
		UsesHoldPhase:       false,
		Interpolation:       Jump,
		CenterStays:         true,
		Quantum:             1,
	},
	Humidity: {
		Name:       Humidity,
		SensorType: "humidity",
		Unit:       "%RH",
		Dir:        "humidity",
		Decimals:   2,
		Channels: []Channel{{
			Label:     "val",
			Normal:    45,
			Range:     5,
			Min:       40,
			Max:       50,
			OutMin:    38,
			OutMax:    52,
			ClampHigh: 50,
			Initial:   U(40, 50),
			Walk:      U(-0.5, 0.5),
			SpikeLow:  U(38, 40),
			SpikeHigh: U(50, 52),
			Toward:    U(0.05, 0.055),
			Away:      U(0.05, 0.055),
			Noise:     U(-0.25, 0.25),
		}},
		OutProbability:      0.001,
		RestoreProbability:  0.3,
		RecoveryProbability: 0.8,
		SpikeDuration:       spikeDuration,
		HoldDuration:        holdDuration,
		UsesHoldPhase:       true,
		Interpolation:       Eased,
		SymmetricSpike:      true,
		Quantum:             0.25,
	},
	Temperature: {
		Name:       Temperature,
		SensorType: "temperature",
		Unit:       "°C",
		Dir:        "temperature",
		Decimals:   2,
		Channels: []Channel{{
			Label:     "val",
			Normal:    21,
			Range:     1,
			Min:       20,
			Max:       22,
			OutMin:    18,
			OutMax:    24,
			ClampHigh: 22,
			Initial:   U(20, 22),
			Walk:      U(-0.1, 0.1),
			SpikeLow:  U(18, 20),
			SpikeHigh: U(22, 24),
			Toward:    U(0.05, 0.1),
			Away:      U(0.05, 0.1),
			Noise:     U(-0.25, 0.25),
		}},
		OutProbability:      0.01,
		RestoreProbability:  0.3,
		RecoveryProbability: 0.8,
		SpikeDuration:       spikeDuration,
		HoldDuration:        holdDuration,
		UsesHoldPhase:       true,
		Interpolation:       Eased,
		SymmetricSpike:      true,
		Quantum:             0.25,
	},
	WindDir: {
		Name:       WindDir,
		SensorType: "windDir",
		Unit:       "deg",
		Dir:        "windDir",
		Channels: []Channel{{
			Label:     "val",
			Normal:    0,
			Range:     14,
			Min:       -14,
			Max:       14,
			OutMin:    -20,
			OutMax:    20,
			ClampHigh: 14,
			Integer:   true,
			Initial:   PlusMinus(14),
			Walk:      I(-3, 3),
			SpikeLow:  I(-20, -15),
			SpikeHigh: I(14, 19),
			Toward:    U(0.05, 0.055),
			Away:      U(0.05, 0.055),
			Noise:     PlusMinus(1),
		}},
		OutProbability:      0.001,
		RestoreProbability:  0.8,
		RecoveryProbability: 0.8,
		SpikeDuration:       spikeDuration,
		HoldDuration:        holdDuration,
		UsesHoldPhase:       true,
		Interpolation:       Eased,
		SymmetricSpike:      true,
		RecoveryTruncates:   true,
		Quantum:             1,
	},
	Particle: {
		Name:       Particle,
		SensorType: "particle",
		Unit:       "PPM",
		Dir:        "particle",
		Channels: []Channel{
			particleChannel("val_0.1µm", 850, 150, I(-40, 30), 50, I(1, 3)),
			particleChannel("val_0.3µm", 82, 20, I(-5, 5), 20, I(1, 2)),
			particleChannel("val_0.5µm", 20, 15, I(-1, 1), 5, I(1, 2)),
		},
		OutProbability:      0.0008,
		RestoreProbability:  0.3,
		RecoveryProbability: 0.8,
		SpikeDuration:       spikeDuration,
		HoldDuration:        holdDuration,
		UsesHoldPhase:       true,
		Interpolation:       Eased,
		CenterStays:         true,
		RecoverOutsideOnly:  true,
		FloorInRecovery:     true,
		Quantum:             1,
	},
}

func particleChannel(label string, normal, width float64, walk Spread, excess int, toward Spread) Channel {
	top := normal + width
	return Channel{
		Label:     label,
		Normal:    normal,
		Range:     width,
		Min:       0,
		Max:       top,
		OutMin:    0,
		OutMax:    top + float64(excess),
		ClampHigh: top,
		Integer:   true,
		Initial:   I(int(normal-width), int(normal+width)-1),
		Walk:      walk,
		SpikeHigh: I(int(top), int(top)+excess-1),
		Toward:    toward,
		Away:      I(0, 1),
		Noise:     I(-1, 0),
		Floor:     Float(0),
	}
}

var order = []string{ESD, Humidity, Temperature, WindDir, Particle}

// Names returns the reference metric names in their canonical order
func Names() []string {
	return append([]string(nil), order...)
}

// Lookup returns a copy of the reference profile for a metric
func Lookup(name string) (Profile, error) {
	p, ok := reference[name]
	if !ok {
		known := Names()
		sort.Strings(known)
		return Profile{}, fmt.Errorf("unknown metric %q, known metrics are %v", name, known)
	}
	return p.WithOutProbability(p.OutProbability), nil
}

// All returns copies of every reference profile in canonical order
func All() []Profile {
	out := make([]Profile, 0, len(order))
	for _, name := range order {
		p, _ := Lookup(name)
		out = append(out, p)
	}
	return out
}
