// Package stats counts what a run produced and writes the counts as a Prometheus textfile
package stats

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/sim"
	"github.com/BTBurke/zonesim/pkg/zone"
)

var _ sim.Sink = &Collector{}

// Collector is a sink that keeps per-run statistics in its own registry.  One collector may be
// opened for several metrics in turn.
type Collector struct {
	reg *prometheus.Registry

	rows        *prometheus.CounterVec
	readings    *prometheus.CounterVec
	lastValue   *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	ticks       *prometheus.GaugeVec

	profile profile.Profile
}

// New returns a collector with every series registered
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonesim_rows_total",
			Help: "Rows written per sensor.",
		}, []string{"metric", "sensor"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonesim_readings_total",
			Help: "Sensor readings by zone and regime.",
		}, []string{"metric", "zone", "regime"}),
		lastValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zonesim_last_value",
			Help: "Last reading published by each sensor channel.",
		}, []string{"metric", "sensor", "channel"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zonesim_transitions_total",
			Help: "Regime transitions across all zones.",
		}, []string{"metric"}),
		ticks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "zonesim_ticks",
			Help: "Ticks completed by the last run of each metric.",
		}, []string{"metric"}),
	}
	c.reg.MustRegister(c.rows, c.readings, c.lastValue, c.transitions, c.ticks)
	return c
}

// Open starts collecting for a metric.  Every sensor starts with a zero row count so that a
// sensor that never reports still shows up.
func (c *Collector) Open(p profile.Profile, roster []sensor.Descriptor) error {
	c.profile = p
	for _, s := range roster {
		c.rows.WithLabelValues(p.Name, s.ID)
	}
	for _, z := range sensor.Zones(roster) {
		for _, r := range zone.Regimes() {
			if r == zone.Holding && !p.UsesHoldPhase {
				continue
			}
			c.readings.WithLabelValues(p.Name, z, r.String())
		}
	}
	return nil
}

func (c *Collector) Write(r sim.Row) error {
	if len(r.Values) != c.profile.Arity() {
		return fmt.Errorf("sensor %s: got %d values, %s has %d channels", r.Sensor.ID, len(r.Values), c.profile.Name, c.profile.Arity())
	}
	name := c.profile.Name
	c.rows.WithLabelValues(name, r.Sensor.ID).Inc()
	c.readings.WithLabelValues(name, r.Sensor.Zone, r.Regime.String()).Inc()
	for i, ch := range c.profile.Channels {
		c.lastValue.WithLabelValues(name, r.Sensor.ID, ch.Label).Set(r.Values[i])
	}
	return nil
}

func (c *Collector) Close() error {
	return nil
}

// Observe records the summary of a finished run
func (c *Collector) Observe(res sim.Result) {
	c.transitions.WithLabelValues(res.Metric).Add(float64(res.Transitions))
	c.ticks.WithLabelValues(res.Metric).Set(float64(res.Ticks))
}

// Registry exposes the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// WriteTextfile writes every series in the text exposition format
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
