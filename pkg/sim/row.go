package sim

import (
	"time"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/zone"
)

// TimeFormat is the timestamp layout of every emitted row
const TimeFormat = "2006-01-02T15:04:05Z"

// Row is one sensor reading for one tick
type Row struct {
	Time   time.Time
	Sensor sensor.Descriptor
	Values []float64
	Regime zone.Regime
}

// Timestamp formats the row time in UTC with a literal Z
func (r Row) Timestamp() string {
	return r.Time.UTC().Format(TimeFormat)
}

// Sink receives the rows of one metric run.  Open is called once before the first row and Close
// once after the last row, or after a failure.  A Sink is never called concurrently.
type Sink interface {
	Open(p profile.Profile, roster []sensor.Descriptor) error
	Write(r Row) error
	Close() error
}
