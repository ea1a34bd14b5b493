package sensor

import (
	"fmt"
	"strings"

	"github.com/BTBurke/zonesim/pkg/profile"
)

type rosterSpec struct {
	typ    string
	prefix string
	zones  []int
}

// sensors per zone A, B, C
var rosters = map[string]rosterSpec{
	profile.ESD:         {typ: "esd", prefix: "ESD", zones: []int{4, 4, 2}},
	profile.Humidity:    {typ: "humidity", prefix: "HUM", zones: []int{4, 6, 2}},
	profile.Temperature: {typ: "temperature", prefix: "TEMP", zones: []int{4, 4, 4}},
	profile.WindDir:     {typ: "WindDir", prefix: "WD", zones: []int{4, 4, 2}},
	profile.Particle:    {typ: "PPM", prefix: "LPM", zones: []int{4, 4, 1}},
}

// Roster returns the reference roster for a metric, or nil for an unknown metric
func Roster(metric string) []Descriptor {
	spec, ok := rosters[metric]
	if !ok {
		return nil
	}
	var out []Descriptor
	n := 1
	for i, count := range spec.zones {
		for j := 0; j < count; j++ {
			out = append(out, Descriptor{
				Type: spec.typ,
				ID:   fmt.Sprintf("%s-%03d", spec.prefix, n),
				Zone: string(rune('A' + i)),
			})
			n++
		}
	}
	return out
}

// Metric resolves a sensor type to the metric that simulates it.  Both metric names and the
// reference roster types are accepted, ignoring case.
func Metric(typ string) (string, bool) {
	for _, name := range profile.Names() {
		if strings.EqualFold(typ, name) || strings.EqualFold(typ, rosters[name].typ) {
			return name, true
		}
	}
	return "", false
}
