package sim_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/rng"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/sim"
	"github.com/BTBurke/zonesim/pkg/zone"
)

// recorder keeps every row and lets a test look at the driver while rows arrive
type recorder struct {
	rows    []sim.Row
	opened  int
	closed  int
	onWrite func(r sim.Row)
}

func (r *recorder) Open(p profile.Profile, roster []sensor.Descriptor) error {
	r.opened++
	return nil
}

func (r *recorder) Write(row sim.Row) error {
	if r.onWrite != nil {
		r.onWrite(row)
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

func (r *recorder) bySensor(id string) []sim.Row {
	var out []sim.Row
	for _, row := range r.rows {
		if row.Sensor.ID == id {
			out = append(out, row)
		}
	}
	return out
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Open(p profile.Profile, roster []sensor.Descriptor) error {
	return m.Called(p, roster).Error(0)
}

func (m *mockSink) Write(r sim.Row) error {
	return m.Called(r).Error(0)
}

func (m *mockSink) Close() error {
	return m.Called().Error(0)
}

func lookup(t *testing.T, name string) profile.Profile {
	t.Helper()
	p, err := profile.Lookup(name)
	require.NoError(t, err)
	return p
}

var smallRoster = []sensor.Descriptor{
	{Type: "humidity", ID: "HUM-001", Zone: "A"},
	{Type: "humidity", ID: "HUM-002", Zone: "A"},
	{Type: "humidity", ID: "HUM-003", Zone: "A"},
	{Type: "humidity", ID: "HUM-004", Zone: "B"},
	{Type: "humidity", ID: "HUM-005", Zone: "B"},
}

func TestNewConfigurationErrors(t *testing.T) {
	bad := lookup(t, profile.Humidity)
	bad.SpikeDuration = 0

	tt := []struct {
		Name    string
		Profile profile.Profile
		Roster  []sensor.Descriptor
		Src     rng.Source
		Opts    []sim.Option
		Check   func(t *testing.T, err error)
	}{
		{
			Name: "empty roster", Profile: lookup(t, profile.Humidity), Src: rng.NewStream(1),
			Check: func(t *testing.T, err error) { assert.True(t, errors.Is(err, sim.ErrNoSensors)) },
		},
		{
			Name: "non-positive horizon", Profile: lookup(t, profile.Humidity), Roster: smallRoster, Src: rng.NewStream(1),
			Opts:  []sim.Option{sim.WithHorizon(0)},
			Check: func(t *testing.T, err error) { assert.Contains(t, err.Error(), "horizon must be positive") },
		},
		{
			Name: "malformed profile", Profile: bad, Roster: smallRoster, Src: rng.NewStream(1),
			Check: func(t *testing.T, err error) {
				var verr profile.ValidationError
				assert.True(t, errors.As(err, &verr))
			},
		},
		{
			Name: "duplicate sensor", Profile: lookup(t, profile.Humidity), Roster: append(smallRoster, smallRoster[0]), Src: rng.NewStream(1),
			Check: func(t *testing.T, err error) { assert.Contains(t, err.Error(), "HUM-001 appears more than once") },
		},
		{
			Name: "parallel needs splittable source", Profile: lookup(t, profile.Humidity), Roster: smallRoster, Src: &rng.Scripted{},
			Opts:  []sim.Option{sim.WithParallel()},
			Check: func(t *testing.T, err error) { assert.Contains(t, err.Error(), "splittable") },
		},
		{
			Name: "every problem is reported", Profile: bad, Src: rng.NewStream(1),
			Opts: []sim.Option{sim.WithHorizon(-1)},
			Check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, sim.ErrNoSensors))
				assert.Contains(t, err.Error(), "horizon")
				assert.Contains(t, err.Error(), "spike duration")
			},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			d, err := sim.New(tc.Profile, tc.Roster, tc.Src, tc.Opts...)
			require.Error(t, err)
			assert.Nil(t, d)
			tc.Check(t, err)
		})
	}
}

func TestTenTicksWithoutSpikes(t *testing.T) {
	p := lookup(t, profile.Humidity).WithOutProbability(0)
	d, err := sim.New(p, smallRoster, rng.NewStream(10), sim.WithHorizon(10))
	require.NoError(t, err)

	rec := &recorder{}
	rec.onWrite = func(r sim.Row) {
		z, ok := d.Zone(r.Sensor.Zone)
		require.True(t, ok)
		v := z.Value()[0]
		assert.True(t, v >= 40 && v <= 50, "zone %s value %v left the band", r.Sensor.Zone, v)
		assert.Equal(t, zone.Normal, r.Regime)
	}
	res, err := d.Run(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.opened)
	assert.Equal(t, 1, rec.closed)
	assert.Equal(t, 10, res.Ticks)
	assert.Equal(t, 50, res.Rows)
	assert.Equal(t, 0, res.Transitions)
	for _, s := range smallRoster {
		rows := rec.bySensor(s.ID)
		require.Len(t, rows, 10)
		assert.Equal(t, "2025-07-15T09:32:00Z", rows[0].Timestamp())
		assert.Equal(t, "2025-07-15T09:32:09Z", rows[9].Timestamp())
	}
}

func TestForcedSpikeCycle(t *testing.T) {
	tt := []struct {
		Name    string
		Metric  string
		Regimes map[int]zone.Regime
	}{
		{
			Name:   "with hold phase",
			Metric: profile.Humidity,
			Regimes: map[int]zone.Regime{
				0: zone.Spiking, 9: zone.Spiking, 10: zone.Holding, 34: zone.Holding, 35: zone.OutOfRange,
			},
		},
		{
			Name:   "without hold phase",
			Metric: profile.ESD,
			Regimes: map[int]zone.Regime{
				0: zone.Spiking, 9: zone.Spiking, 10: zone.OutOfRange,
			},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			p := lookup(t, tc.Metric).WithOutProbability(1)
			roster := []sensor.Descriptor{{Type: p.SensorType, ID: "S-1", Zone: "A"}}
			d, err := sim.New(p, roster, rng.NewStream(5), sim.WithHorizon(500))
			require.NoError(t, err)
			rec := &recorder{}
			_, err = d.Run(context.Background(), rec)
			require.NoError(t, err)

			rows := rec.bySensor("S-1")
			require.Len(t, rows, 500)
			for tick, r := range tc.Regimes {
				assert.Equal(t, r, rows[tick].Regime, "tick index %d", tick)
			}
			back := -1
			for i := 11; i < len(rows); i++ {
				if rows[i].Regime == zone.Normal {
					back = i
					break
				}
			}
			assert.NotEqual(t, -1, back, "zone never returned to NORMAL")
		})
	}
}

func TestColumnArity(t *testing.T) {
	for _, p := range profile.All() {
		t.Run(p.Name, func(t *testing.T) {
			p := p.WithOutProbability(0.2)
			d, err := sim.New(p, sensor.Roster(p.Name), rng.NewStream(3), sim.WithHorizon(100))
			require.NoError(t, err)
			rec := &recorder{}
			_, err = d.Run(context.Background(), rec)
			require.NoError(t, err)
			for _, r := range rec.rows {
				assert.Len(t, r.Values, p.Arity())
			}
		})
	}
}

func TestSharedStreamDrawCount(t *testing.T) {
	p := lookup(t, profile.Humidity).WithOutProbability(0)
	src := &rng.Scripted{}
	d, err := sim.New(p, smallRoster, src, sim.WithHorizon(7))
	require.NoError(t, err)
	_, err = d.Run(context.Background(), &recorder{})
	require.NoError(t, err)

	// one initial draw per zone, then per tick three draws per zone and one per sensor
	zones, sensors := 2, len(smallRoster)
	assert.Equal(t, zones+7*(3*zones+sensors), src.Draws)
}

func TestReproducible(t *testing.T) {
	run := func(seed int64, opts ...sim.Option) []sim.Row {
		p := lookup(t, profile.Particle).WithOutProbability(0.01)
		d, err := sim.New(p, sensor.Roster(profile.Particle), rng.NewStream(seed), append(opts, sim.WithHorizon(300))...)
		require.NoError(t, err)
		rec := &recorder{}
		_, err = d.Run(context.Background(), rec)
		require.NoError(t, err)
		return rec.rows
	}

	serial := run(42)
	assert.Equal(t, serial, run(42))
	assert.NotEqual(t, serial, run(43))

	parallel := run(42, sim.WithParallel())
	assert.Equal(t, parallel, run(42, sim.WithParallel()))
	assert.NotEqual(t, serial, parallel)
	require.Len(t, parallel, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i].Sensor, parallel[i].Sensor, "rows are emitted in roster order")
		assert.Equal(t, serial[i].Time, parallel[i].Time)
	}
}

func TestParallelInvariants(t *testing.T) {
	p := lookup(t, profile.Temperature).WithOutProbability(0.05)
	d, err := sim.New(p, sensor.Roster(profile.Temperature), rng.NewStream(8), sim.WithParallel(), sim.WithHorizon(1000))
	require.NoError(t, err)
	rec := &recorder{}
	rec.onWrite = func(r sim.Row) {
		z, _ := d.Zone(r.Sensor.Zone)
		assert.Equal(t, z.Regime(), r.Regime, "row regime matches the post-update zone")
		if r.Regime == zone.Normal {
			assert.True(t, p.InBand(z.Value()))
		}
	}
	res, err := d.Run(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 12000, res.Rows)
	assert.NotZero(t, res.Transitions)
}

func TestSinkFailure(t *testing.T) {
	boom := errors.New("disk full")
	p := lookup(t, profile.Humidity)

	t.Run("write", func(t *testing.T) {
		m := &mockSink{}
		m.On("Open", mock.Anything, mock.Anything).Return(nil).Once()
		m.On("Write", mock.Anything).Return(nil).Times(7)
		m.On("Write", mock.Anything).Return(boom).Once()
		m.On("Close").Return(nil).Once()

		d, err := sim.New(p, smallRoster, rng.NewStream(1), sim.WithHorizon(10))
		require.NoError(t, err)
		res, err := d.Run(context.Background(), m)
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.Contains(t, err.Error(), "tick 1")
		assert.Equal(t, 7, res.Rows)
		m.AssertExpectations(t)
	})

	t.Run("open", func(t *testing.T) {
		m := &mockSink{}
		m.On("Open", mock.Anything, mock.Anything).Return(boom).Once()
		m.On("Close").Return(nil).Once()

		d, err := sim.New(p, smallRoster, rng.NewStream(1))
		require.NoError(t, err)
		_, err = d.Run(context.Background(), m)
		assert.True(t, errors.Is(err, boom))
		m.AssertExpectations(t)
		m.AssertNotCalled(t, "Write", mock.Anything)
	})

	t.Run("close", func(t *testing.T) {
		m := &mockSink{}
		m.On("Open", mock.Anything, mock.Anything).Return(nil).Once()
		m.On("Write", mock.Anything).Return(nil)
		m.On("Close").Return(boom).Once()

		d, err := sim.New(p, smallRoster, rng.NewStream(1), sim.WithHorizon(2))
		require.NoError(t, err)
		_, err = d.Run(context.Background(), m)
		assert.True(t, errors.Is(err, boom))
	})
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := sim.New(lookup(t, profile.ESD), sensor.Roster(profile.ESD), rng.NewStream(1))
	require.NoError(t, err)
	rec := &recorder{}
	res, err := d.Run(ctx, rec)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, res.Rows)
	assert.Equal(t, 1, rec.closed)
}

func TestStartTime(t *testing.T) {
	start := time.Date(2030, 1, 2, 3, 4, 5, 0, time.FixedZone("KST", 9*3600))
	d, err := sim.New(lookup(t, profile.WindDir), smallRoster[:1], rng.NewStream(1), sim.WithStart(start), sim.WithHorizon(2))
	require.NoError(t, err)
	rec := &recorder{}
	_, err = d.Run(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01T18:04:05Z", rec.rows[0].Timestamp())
	assert.Equal(t, "2030-01-01T18:04:06Z", rec.rows[1].Timestamp())
}

func TestTransitionLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := lookup(t, profile.ESD).WithOutProbability(1)
	roster := []sensor.Descriptor{{Type: "esd", ID: "ESD-001", Zone: "A"}}
	d, err := sim.New(p, roster, rng.NewStream(1), sim.WithLogger(zap.New(core)), sim.WithHorizon(11))
	require.NoError(t, err)
	res, err := d.Run(context.Background(), &recorder{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Transitions)

	transitions := logs.FilterMessage("regime transition").AllUntimed()
	require.Len(t, transitions, 2)
	first := transitions[0].ContextMap()
	assert.Equal(t, "esd", first["metric"])
	assert.Equal(t, "A", first["zone"])
	assert.Equal(t, "NORMAL", first["from"])
	assert.Equal(t, "SPIKING", first["to"])
	assert.Equal(t, int64(0), first["tick"])
	assert.Equal(t, int64(10), transitions[1].ContextMap()["tick"])
	assert.Equal(t, 1, logs.FilterMessage("run finished").Len())
}
