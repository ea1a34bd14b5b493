package zonesim

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/sim"
)

// DefaultOutput is the output root when none is given
const DefaultOutput = "Data"

// Config is the complete configuration of one invocation
type Config struct {
	Output   string
	Horizon  int
	Start    time.Time
	Seed     int64
	Seeded   bool
	Metrics  []string
	Parallel bool
	Stats    bool
	Manifest bool
	Verbose  bool

	// Sensors replaces the reference roster of a metric
	Sensors map[string][]sensor.Descriptor
	// OutProbability overrides the spike probability of a metric
	OutProbability map[string]float64
}

type ConfigOption func(c *Config) error

// NewConfig applies every option and returns all configuration errors together
func NewConfig(options ...ConfigOption) (*Config, []error) {
	c := &Config{
		Output:   DefaultOutput,
		Horizon:  sim.DefaultHorizon,
		Start:    sim.DefaultStart,
		Stats:    true,
		Manifest: true,
	}

	var errors []error
	for _, option := range options {
		if err := option(c); err != nil {
			errors = append(errors, err)
		}
	}

	if c.Horizon <= 0 {
		errors = append(errors, fmt.Errorf("horizon must be positive, got %d", c.Horizon))
	}
	if c.Output == "" {
		errors = append(errors, fmt.Errorf("output directory must not be empty"))
	}
	if len(c.Metrics) == 0 {
		c.Metrics = profile.Names()
	}
	for metric, roster := range c.Sensors {
		if !c.selected(metric) {
			errors = append(errors, fmt.Errorf("sensors given for %s, which is not selected", metric))
		}
		if err := sensor.Check(roster); err != nil {
			errors = append(errors, fmt.Errorf("%s: %w", metric, err))
		}
	}
	for metric := range c.OutProbability {
		if !c.selected(metric) {
			errors = append(errors, fmt.Errorf("out probability given for %s, which is not selected", metric))
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return c, nil
}

// Roster returns the sensors of a metric
func (c *Config) Roster(metric string) []sensor.Descriptor {
	if r, ok := c.Sensors[metric]; ok {
		return r
	}
	return sensor.Roster(metric)
}

// Profile returns the profile of a metric with any overrides applied
func (c *Config) Profile(metric string) (profile.Profile, error) {
	p, err := profile.Lookup(metric)
	if err != nil {
		return p, err
	}
	if prob, ok := c.OutProbability[metric]; ok {
		p = p.WithOutProbability(prob)
	}
	return p, nil
}

func (c *Config) selected(metric string) bool {
	for _, m := range c.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// Output sets the output root directory
func Output(dir string) ConfigOption {
	return func(c *Config) error {
		c.Output = dir
		return nil
	}
}

// Horizon sets the number of ticks per metric
func Horizon(ticks string) ConfigOption {
	return func(c *Config) error {
		n, err := strconv.Atoi(ticks)
		if err != nil {
			return fmt.Errorf("could not convert horizon to integer: %s", ticks)
		}
		c.Horizon = n
		return nil
	}
}

// Start sets the timestamp of the first tick.  Accepts RFC 3339.
func Start(ts string) ConfigOption {
	return func(c *Config) error {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return fmt.Errorf("unrecognized start time %s, use the form %s", ts, sim.TimeFormat)
		}
		c.Start = t.UTC()
		return nil
	}
}

// Seed makes the run reproducible
func Seed(seed string) ConfigOption {
	return func(c *Config) error {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("could not convert seed to integer: %s", seed)
		}
		c.Seed = n
		c.Seeded = true
		return nil
	}
}

// Metric selects a metric to generate.  Without any, every metric is generated.
func Metric(name string) ConfigOption {
	return func(c *Config) error {
		m, ok := sensor.Metric(name)
		if !ok {
			return fmt.Errorf("unknown metric %s, known metrics are %s", name, strings.Join(profile.Names(), ", "))
		}
		if c.selected(m) {
			return nil
		}
		c.Metrics = append(c.Metrics, m)
		return nil
	}
}

// Sensor adds a sensor in type:id:zone form to the roster of the metric its type belongs to
func Sensor(spec string) ConfigOption {
	return func(c *Config) error {
		d, err := sensor.Parse(spec)
		if err != nil {
			return err
		}
		m, ok := sensor.Metric(d.Type)
		if !ok {
			return fmt.Errorf("sensor %s has type %s, which belongs to no known metric", d.ID, d.Type)
		}
		if c.Sensors == nil {
			c.Sensors = make(map[string][]sensor.Descriptor)
		}
		c.Sensors[m] = append(c.Sensors[m], d)
		return nil
	}
}

// OutProbability overrides a metric's spike probability, given as metric=probability
func OutProbability(value string) ConfigOption {
	return func(c *Config) error {
		parts := strings.SplitN(value, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format for out probability, should be metric=probability in %s", value)
		}
		m, ok := sensor.Metric(strings.TrimSpace(parts[0]))
		if !ok {
			return fmt.Errorf("unknown metric %s in out probability", parts[0])
		}
		prob, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || prob < 0 || prob > 1 {
			return fmt.Errorf("out probability for %s must be a number in [0, 1], got %s", m, parts[1])
		}
		if c.OutProbability == nil {
			c.OutProbability = make(map[string]float64)
		}
		c.OutProbability[m] = prob
		return nil
	}
}

// Parallel steps zones and reads sensors concurrently, each on its own random sub-stream
func Parallel() ConfigOption {
	return func(c *Config) error {
		c.Parallel = true
		return nil
	}
}

// NoStats skips the Prometheus textfile
func NoStats() ConfigOption {
	return func(c *Config) error {
		c.Stats = false
		return nil
	}
}

// NoManifest skips manifest.json
func NoManifest() ConfigOption {
	return func(c *Config) error {
		c.Manifest = false
		return nil
	}
}

// Verbose switches to the development logger at debug level
func Verbose() ConfigOption {
	return func(c *Config) error {
		c.Verbose = true
		return nil
	}
}
