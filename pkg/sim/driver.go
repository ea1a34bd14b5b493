// Package sim runs the tick loop for one metric: it steps every zone once per simulated second,
// reads every sensor against the updated zones and hands the rows to a Sink.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/rng"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/zone"
)

// DefaultHorizon is one simulated hour
const DefaultHorizon = 3600

// DefaultStart is the timestamp of the first tick
var DefaultStart = time.Date(2025, 7, 15, 9, 32, 0, 0, time.UTC)

// ErrNoSensors is returned when a metric has an empty roster
var ErrNoSensors = errors.New("no sensors configured")

// Splitter is a source that can derive independent sub-streams
type Splitter interface {
	rng.Source
	Split(label string) *rng.Stream
}

// Option configures a Driver
type Option func(d *Driver) error

// WithHorizon sets the number of ticks to run
func WithHorizon(ticks int) Option {
	return func(d *Driver) error {
		if ticks <= 0 {
			return fmt.Errorf("horizon must be positive, got %d", ticks)
		}
		d.horizon = ticks
		return nil
	}
}

// WithStart sets the timestamp of the first tick
func WithStart(t time.Time) Option {
	return func(d *Driver) error {
		d.start = t.UTC()
		return nil
	}
}

// WithLogger sets the logger.  A nil logger discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) error {
		if l != nil {
			d.log = l
		}
		return nil
	}
}

// WithParallel gives every zone and every sensor a private sub-stream and updates them
// concurrently within each tick.  The source passed to New must implement Splitter.
func WithParallel() Option {
	return func(d *Driver) error {
		d.parallel = true
		return nil
	}
}

// Result summarizes a completed run
type Result struct {
	Metric      string
	Ticks       int
	Rows        int
	Transitions int
}

// Driver owns the zones and sensors of one metric
type Driver struct {
	profile  profile.Profile
	roster   []sensor.Descriptor
	zones    map[string]*zone.Zone
	zoneIDs  []string
	src      rng.Source
	horizon  int
	start    time.Time
	parallel bool
	log      *zap.Logger

	zoneSrc   map[string]rng.Source
	sensorSrc []rng.Source

	tick        int
	transitions atomic.Int64
}

// New validates the configuration and builds the zones.  Every configuration problem is
// reported, not just the first.
func New(p profile.Profile, roster []sensor.Descriptor, src rng.Source, opts ...Option) (*Driver, error) {
	d := &Driver{
		profile: p,
		roster:  append([]sensor.Descriptor(nil), roster...),
		src:     src,
		horizon: DefaultHorizon,
		start:   DefaultStart,
		log:     zap.NewNop(),
	}

	var err error
	for _, opt := range opts {
		err = multierr.Append(err, opt(d))
	}
	if len(d.roster) == 0 {
		err = multierr.Append(err, fmt.Errorf("%s: %w", p.Name, ErrNoSensors))
	}
	err = multierr.Append(err, sensor.Check(d.roster))
	err = multierr.Append(err, p.Validate())
	if src == nil {
		err = multierr.Append(err, errors.New("random source is required"))
	}
	splitter, canSplit := src.(Splitter)
	if d.parallel && !canSplit {
		err = multierr.Append(err, errors.New("parallel mode needs a splittable random source"))
	}
	if err != nil {
		return nil, err
	}

	d.log = d.log.With(zap.String("metric", p.Name))
	d.zoneIDs = sensor.Zones(d.roster)
	d.zones = make(map[string]*zone.Zone, len(d.zoneIDs))
	if d.parallel {
		d.zoneSrc = make(map[string]rng.Source, len(d.zoneIDs))
		for _, id := range d.zoneIDs {
			d.zoneSrc[id] = splitter.Split("zone/" + id)
		}
		for _, s := range d.roster {
			d.sensorSrc = append(d.sensorSrc, splitter.Split("sensor/"+s.ID))
		}
	}
	for _, id := range d.zoneIDs {
		z, err := zone.New(id, p, d.zoneSource(id), zone.WithTransitionHook(d.onTransition))
		if err != nil {
			return nil, err
		}
		d.zones[id] = z
	}
	return d, nil
}

// Zones returns the zone ids in stepping order
func (d *Driver) Zones() []string {
	return append([]string(nil), d.zoneIDs...)
}

// Zone returns a zone by id
func (d *Driver) Zone(id string) (*zone.Zone, bool) {
	z, ok := d.zones[id]
	return z, ok
}

// Run executes every tick and writes every row to the sink.  The sink is always closed.  On any
// error the run is incomplete and the caller should discard what the sink persisted.
func (d *Driver) Run(ctx context.Context, sink Sink) (res Result, err error) {
	res = Result{Metric: d.profile.Name}
	began := time.Now()
	d.log.Info("run starting",
		zap.Int("zones", len(d.zoneIDs)),
		zap.Int("sensors", len(d.roster)),
		zap.Int("horizon", d.horizon),
		zap.Time("start", d.start),
		zap.Bool("parallel", d.parallel),
	)

	if err := sink.Open(d.profile, d.roster); err != nil {
		return res, multierr.Append(fmt.Errorf("open sink: %w", err), sink.Close())
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close sink: %w", cerr))
		}
		res.Transitions = int(d.transitions.Load())
		if err != nil {
			d.log.Error("run failed", zap.Int("tick", d.tick), zap.Int("rows", res.Rows), zap.Error(err))
			return
		}
		d.log.Info("run finished",
			zap.Int("rows", res.Rows),
			zap.Int("transitions", res.Transitions),
			zap.Duration("elapsed", time.Since(began)),
		)
	}()

	for d.tick = 0; d.tick < d.horizon; d.tick++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		now := d.start.Add(time.Duration(d.tick) * time.Second)

		var rows []Row
		if d.parallel {
			rows, err = d.stepParallel(ctx, now)
		} else {
			rows, err = d.stepSerial(now)
		}
		if err != nil {
			return res, fmt.Errorf("tick %d: %w", d.tick, err)
		}
		for _, r := range rows {
			if err := sink.Write(r); err != nil {
				return res, fmt.Errorf("tick %d: write %s: %w", d.tick, r.Sensor.ID, err)
			}
			res.Rows++
		}
		res.Ticks++
	}
	return res, nil
}

func (d *Driver) stepSerial(now time.Time) ([]Row, error) {
	for _, id := range d.zoneIDs {
		if err := d.zones[id].Step(d.src); err != nil {
			return nil, err
		}
	}
	rows := make([]Row, len(d.roster))
	for i, s := range d.roster {
		rows[i] = d.read(now, s, d.src)
	}
	return rows, nil
}

func (d *Driver) stepParallel(ctx context.Context, now time.Time) ([]Row, error) {
	g, _ := errgroup.WithContext(ctx)
	for _, id := range d.zoneIDs {
		z, src := d.zones[id], d.zoneSrc[id]
		g.Go(func() error {
			return z.Step(src)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// zones are read-only from here until the next tick
	rows := make([]Row, len(d.roster))
	g, _ = errgroup.WithContext(ctx)
	for i, s := range d.roster {
		i, s := i, s
		g.Go(func() error {
			rows[i] = d.read(now, s, d.sensorSrc[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *Driver) read(now time.Time, s sensor.Descriptor, src rng.Source) Row {
	z := d.zones[s.Zone]
	regime := z.Regime()
	return Row{
		Time:   now,
		Sensor: s,
		Values: sensor.Read(d.profile, z.Value(), regime, src),
		Regime: regime,
	}
}

func (d *Driver) zoneSource(id string) rng.Source {
	if d.parallel {
		return d.zoneSrc[id]
	}
	return d.src
}

func (d *Driver) onTransition(id string, from, to zone.Regime) {
	d.transitions.Add(1)
	d.log.Debug("regime transition",
		zap.String("zone", id),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("tick", d.tick),
	)
}
