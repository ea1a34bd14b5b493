package sink

import (
	"go.uber.org/multierr"

	"github.com/BTBurke/zonesim/pkg/profile"
	"github.com/BTBurke/zonesim/pkg/sensor"
	"github.com/BTBurke/zonesim/pkg/sim"
)

// Multi fans every call out to several sinks in order
type Multi []sim.Sink

var _ sim.Sink = Multi{}

func (m Multi) Open(p profile.Profile, roster []sensor.Descriptor) error {
	for _, s := range m {
		if err := s.Open(p, roster); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Write(r sim.Row) error {
	for _, s := range m {
		if err := s.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink even when one fails
func (m Multi) Close() error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.Close())
	}
	return err
}
