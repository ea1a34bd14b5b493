package profile

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a profile
type ValidationError struct {
	Profile  string
	Problems []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid profile %q: %s", e.Profile, strings.Join(e.Problems, "; "))
}

// Validate checks that a profile is internally consistent.  All problems are reported at once.
func (p Profile) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.Name == "" {
		add("name is required")
	}
	if len(p.Channels) == 0 {
		add("at least one channel is required")
	}
	if p.SpikeDuration <= 0 {
		add("spike duration must be positive, got %d", p.SpikeDuration)
	}
	if p.UsesHoldPhase && p.HoldDuration <= 0 {
		add("hold duration must be positive when the hold phase is used, got %d", p.HoldDuration)
	}
	probs := []struct {
		name string
		v    float64
	}{
		{"out", p.OutProbability},
		{"restore", p.RestoreProbability},
		{"recovery", p.RecoveryProbability},
	}
	for _, prob := range probs {
		if prob.v < 0 || prob.v > 1 {
			add("%s probability must be in [0, 1], got %v", prob.name, prob.v)
		}
	}
	if p.Quantum < 0 {
		add("quantum must not be negative, got %v", p.Quantum)
	}

	for i, c := range p.Channels {
		label := c.Label
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			add("channel %s: label is required", label)
		}
		if c.Min > c.Max {
			add("channel %s: min %v is above max %v", label, c.Min, c.Max)
		}
		if c.OutMin > c.Min || c.OutMax < c.Max {
			add("channel %s: out band [%v, %v] must contain the normal band [%v, %v]", label, c.OutMin, c.OutMax, c.Min, c.Max)
		}
		if !c.InBand(c.Normal) {
			add("channel %s: normal value %v is outside [%v, %v]", label, c.Normal, c.Min, c.Max)
		}
		if c.Range < 0 {
			add("channel %s: normal range must not be negative, got %v", label, c.Range)
		} else if !c.InBand(c.Normal-c.Range) || !c.InBand(c.Normal+c.Range) {
			add("channel %s: normal range %v ± %v leaves [%v, %v]", label, c.Normal, c.Range, c.Min, c.Max)
		}
		if !c.InBand(c.ClampHigh) {
			add("channel %s: clamp target %v is outside [%v, %v]", label, c.ClampHigh, c.Min, c.Max)
		}
		if lo, hi := c.Initial.Bounds(); !c.InBand(lo) || !c.InBand(hi) {
			add("channel %s: initial spread %v leaves the normal band", label, c.Initial)
		}
		if lo, hi := c.SpikeHigh.Bounds(); lo < c.OutMin || hi > c.OutMax {
			add("channel %s: high spike spread %v leaves the out band", label, c.SpikeHigh)
		}
		if p.SymmetricSpike {
			if lo, hi := c.SpikeLow.Bounds(); lo < c.OutMin || hi > c.OutMax {
				add("channel %s: low spike spread %v leaves the out band", label, c.SpikeLow)
			}
		}
		if lo, _ := c.Toward.Bounds(); lo < 0 {
			add("channel %s: toward spread %v must not be negative", label, c.Toward)
		}
		for _, s := range c.spreads() {
			if err := s.Spread.validate(); err != nil {
				add("channel %s: %s: %v", label, s.name, err)
			}
		}
		if c.Integer {
			for _, s := range c.spreads()[:3] {
				if !s.Spread.Integral() {
					add("channel %s: integer channel needs a whole-number %s spread", label, s.name)
				}
			}
			if !c.SpikeHigh.Integral() || (p.SymmetricSpike && !c.SpikeLow.Integral()) {
				add("channel %s: integer channel needs whole-number spike targets", label)
			}
			if !p.RecoveryTruncates && (!c.Toward.Integral() || !c.Away.Integral()) {
				add("channel %s: fractional recovery on an integer channel requires recovery truncation", label)
			}
		}
		if c.Ceiling != nil && !c.InBand(c.Ceiling.Target) {
			add("channel %s: ceiling target %v is outside the normal band", label, c.Ceiling.Target)
		}
	}

	if len(problems) > 0 {
		return ValidationError{Profile: p.Name, Problems: problems}
	}
	return nil
}

type namedSpread struct {
	name string
	Spread
}

// spreads lists the channel's spreads.  The first three are the ones an integer channel adds to
// its value without truncation.
func (c Channel) spreads() []namedSpread {
	return []namedSpread{
		{"initial", c.Initial},
		{"walk", c.Walk},
		{"noise", c.Noise},
		{"spike high", c.SpikeHigh},
		{"spike low", c.SpikeLow},
		{"toward", c.Toward},
		{"away", c.Away},
	}
}
