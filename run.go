package zonesim

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/BTBurke/zonesim/pkg/rng"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/sim"
	"github.com/BTBurke/zonesim/pkg/sink"
	"github.com/BTBurke/zonesim/pkg/stats"
)

const (
	statsFile    = "zonesim.prom"
	manifestFile = "manifest.json"
)

// Manifest describes a completed run
type Manifest struct {
	RunID    string          `json:"run_id"`
	Seed     int64           `json:"seed"`
	Seeded   bool            `json:"seeded"`
	Start    string          `json:"start"`
	Horizon  int             `json:"horizon"`
	Parallel bool            `json:"parallel"`
	Created  time.Time       `json:"created"`
	Metrics  []MetricSummary `json:"metrics"`
}

// MetricSummary is the manifest entry of one metric
type MetricSummary struct {
	Name           string   `json:"name"`
	Dir            string   `json:"dir"`
	OutProbability float64  `json:"out_probability"`
	Zones          []string `json:"zones"`
	Sensors        int      `json:"sensors"`
	Rows           int      `json:"rows"`
	Transitions    int      `json:"transitions"`
	Files          []string `json:"files"`
}

type job struct {
	metric string
	driver *sim.Driver
	sum    MetricSummary
}

// Run generates every selected metric in turn.  Every metric is checked before any file is
// created, and a failure removes every data file the run wrote.
func Run(ctx context.Context, c *Config, log *zap.Logger) (*Manifest, error) {
	if log == nil {
		log = zap.NewNop()
	}

	seed := c.Seed
	if !c.Seeded {
		seed = rng.NewTimeSeeded().Seed()
	}
	m := &Manifest{
		RunID:    uuid.New().String(),
		Seed:     seed,
		Seeded:   c.Seeded,
		Start:    c.Start.UTC().Format(sim.TimeFormat),
		Horizon:  c.Horizon,
		Parallel: c.Parallel,
		Created:  time.Now().UTC(),
	}
	log = log.With(zap.String("run_id", m.RunID))
	log.Info("configured", zap.Int64("seed", seed), zap.Strings("metrics", c.Metrics), zap.String("output", c.Output))

	jobs, err := plan(c, seed, log)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(c.Output)
	createdRoot := os.IsNotExist(statErr)
	if err := os.MkdirAll(c.Output, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	var collector *stats.Collector
	if c.Stats {
		collector = stats.New()
	}

	var written []*sink.CSV
	for _, j := range jobs {
		out := sink.NewCSV(c.Output)
		written = append(written, out)
		var s sim.Sink = out
		if collector != nil {
			s = sink.Multi{out, collector}
		}

		res, err := j.driver.Run(ctx, s)
		if err != nil {
			for _, w := range written {
				if derr := w.Discard(); derr != nil {
					err = multierr.Append(err, fmt.Errorf("discard: %w", derr))
				}
			}
			if createdRoot {
				// fails harmlessly when something else was written there
				_ = os.Remove(c.Output)
			}
			return nil, fmt.Errorf("%s: %w", j.metric, err)
		}
		if collector != nil {
			collector.Observe(res)
		}
		j.sum.Rows = res.Rows
		j.sum.Transitions = res.Transitions
		j.sum.Files = out.Paths()
		m.Metrics = append(m.Metrics, j.sum)
	}

	if collector != nil {
		path := filepath.Join(c.Output, statsFile)
		if err := collector.WriteTextfile(path); err != nil {
			return m, fmt.Errorf("write statistics: %w", err)
		}
		log.Info("statistics written", zap.String("path", path))
	}
	if c.Manifest {
		path := filepath.Join(c.Output, manifestFile)
		if err := writeManifest(path, m); err != nil {
			return m, fmt.Errorf("write manifest: %w", err)
		}
		log.Info("manifest written", zap.String("path", path))
	}
	return m, nil
}

// plan builds a driver per metric, each with its own stream derived from the run seed, and
// returns every configuration error at once
func plan(c *Config, seed int64, log *zap.Logger) ([]job, error) {
	var jobs []job
	var err error
	for _, metric := range c.Metrics {
		p, perr := c.Profile(metric)
		if perr != nil {
			err = multierr.Append(err, perr)
			continue
		}
		roster := c.Roster(metric)
		opts := []sim.Option{
			sim.WithHorizon(c.Horizon),
			sim.WithStart(c.Start),
			sim.WithLogger(log),
		}
		if c.Parallel {
			opts = append(opts, sim.WithParallel())
		}
		d, derr := sim.New(p, roster, rng.NewStream(rng.DeriveSeed(seed, metric)), opts...)
		if derr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", metric, derr))
			continue
		}
		jobs = append(jobs, job{
			metric: metric,
			driver: d,
			sum: MetricSummary{
				Name:           metric,
				Dir:            p.Dir,
				OutProbability: p.OutProbability,
				Zones:          sensor.Zones(roster),
				Sensors:        len(roster),
			},
		})
	}
	return jobs, err
}

func writeManifest(path string, m *Manifest) error {
	b, err := jsoniter.ConfigFastest.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
