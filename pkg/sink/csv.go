// Package sink persists simulation rows
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/multierr"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/sim"
)

var _ sim.Sink = &CSV{}

type csvFile struct {
	path string
	f    *os.File
	w    *csv.Writer
}

// CSV writes one file per sensor at <root>/<profile dir>/<sensor id>.csv
type CSV struct {
	root       string
	profile    profile.Profile
	files      map[string]*csvFile
	order      []string
	createdDir string
}

// NewCSV returns a sink rooted at dir
func NewCSV(root string) *CSV {
	return &CSV{root: root}
}

// Open creates the metric directory and one file per sensor, each starting with the header
func (c *CSV) Open(p profile.Profile, roster []sensor.Descriptor) error {
	c.profile = p
	c.files = make(map[string]*csvFile, len(roster))
	c.order = nil

	dir := filepath.Join(c.root, p.Dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		c.createdDir = dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	header := p.Header()
	for _, s := range roster {
		path := filepath.Join(dir, s.ID+".csv")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		cf := &csvFile{path: path, f: f, w: csv.NewWriter(f)}
		c.files[s.ID] = cf
		c.order = append(c.order, s.ID)
		if err := cf.w.Write(header); err != nil {
			return fmt.Errorf("write header %s: %w", path, err)
		}
	}
	return nil
}

// Write appends a row to its sensor's file
func (c *CSV) Write(r sim.Row) error {
	cf, ok := c.files[r.Sensor.ID]
	if !ok {
		return fmt.Errorf("no open file for sensor %s", r.Sensor.ID)
	}
	if err := cf.w.Write(Record(c.profile, r)); err != nil {
		return err
	}
	return cf.w.Error()
}

// Close flushes and closes every file
func (c *CSV) Close() error {
	var err error
	for _, id := range c.order {
		cf := c.files[id]
		if cf.f == nil {
			continue
		}
		cf.w.Flush()
		err = multierr.Append(err, cf.w.Error())
		err = multierr.Append(err, cf.f.Close())
		cf.f = nil
	}
	return err
}

// Discard removes every file the sink created, and the metric directory when the sink created it.
// Call it after Close when a run fails.
func (c *CSV) Discard() error {
	var err error
	for _, id := range c.order {
		if rerr := os.Remove(c.files[id].path); rerr != nil && !os.IsNotExist(rerr) {
			err = multierr.Append(err, rerr)
		}
	}
	if c.createdDir != "" {
		// only removes the directory when nothing else was written to it
		_ = os.Remove(c.createdDir)
	}
	return err
}

// Paths returns the files in roster order
func (c *CSV) Paths() []string {
	out := make([]string, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.files[id].path)
	}
	return out
}

// Record formats one row as CSV fields for a profile
func Record(p profile.Profile, r sim.Row) []string {
	rec := make([]string, 0, 5+len(r.Values))
	rec = append(rec, r.Timestamp(), p.SensorType, r.Sensor.ID, p.Unit)
	for _, v := range r.Values {
		if v == 0 {
			// no negative zero
			v = 0
		}
		rec = append(rec, strconv.FormatFloat(v, 'f', p.Decimals, 64))
	}
	if p.EmitRegime {
		rec = append(rec, r.Regime.String())
	}
	return rec
}
