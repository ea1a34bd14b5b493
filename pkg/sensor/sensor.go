// Package sensor describes the sensors attached to zones and turns a zone's true value into the
// reading one sensor publishes
package sensor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/rng"
	"github.com/BTBurke/zonesim/pkg/zone"
)

// Descriptor identifies a sensor and the zone it observes
type Descriptor struct {
	Type string `yaml:"type" json:"type"`
	ID   string `yaml:"id" json:"id"`
	Zone string `yaml:"zone" json:"zone"`
}

func (d Descriptor) String() string {
	return strings.Join([]string{d.Type, d.ID, d.Zone}, ":")
}

// Parse reads a descriptor in type:id:zone form
func Parse(s string) (Descriptor, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Descriptor{}, fmt.Errorf("sensor %q must be in the form type:id:zone", s)
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return Descriptor{}, fmt.Errorf("sensor %q has an empty field", s)
		}
	}
	return Descriptor{Type: parts[0], ID: parts[1], Zone: parts[2]}, nil
}

// Zones returns the distinct zone ids of a roster in sorted order
func Zones(roster []Descriptor) []string {
	seen := map[string]bool{}
	var zones []string
	for _, d := range roster {
		if !seen[d.Zone] {
			seen[d.Zone] = true
			zones = append(zones, d.Zone)
		}
	}
	sort.Strings(zones)
	return zones
}

// Check reports duplicate sensor ids in a roster
func Check(roster []Descriptor) error {
	seen := map[string]bool{}
	for _, d := range roster {
		if seen[d.ID] {
			return fmt.Errorf("sensor id %s appears more than once", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}

// Read derives one sensor reading from the zone value.  Each channel gets a fresh noise draw, is
// floored, is pulled back under the ceiling while the zone is NORMAL, then quantized.
func Read(p profile.Profile, value []float64, regime zone.Regime, src rng.Source) []float64 {
	out := make([]float64, len(p.Channels))
	for i, c := range p.Channels {
		v := value[i] + c.Noise.Draw(src)
		if c.Floor != nil && v < *c.Floor {
			v = *c.Floor
		}
		if c.Ceiling != nil && regime == zone.Normal && v >= c.Ceiling.At {
			v = c.Ceiling.Target
		}
		out[i] = p.Quantize(v)
	}
	return out
}
