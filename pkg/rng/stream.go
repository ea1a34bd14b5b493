package rng

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"
)

var _ Source = &Stream{}

// Stream is a seeded source backed by math/rand.  A Stream is not safe for concurrent use; give
// each goroutine its own sub-stream with Split.
type Stream struct {
	seed int64
	r    *rand.Rand
}

// NewStream returns a stream that produces the same sequence of draws for the same seed
func NewStream(seed int64) *Stream {
	return &Stream{
		seed: seed,
		r:    rand.New(rand.NewSource(seed)),
	}
}

// NewTimeSeeded returns a stream seeded from the wall clock
func NewTimeSeeded() *Stream {
	return NewStream(time.Now().UnixNano())
}

// Seed returns the seed the stream was created with
func (s *Stream) Seed() int64 {
	return s.seed
}

func (s *Stream) Float64() float64 {
	return s.r.Float64()
}

func (s *Stream) Intn(n int) int {
	return s.r.Intn(n)
}

func (s *Stream) Bool() bool {
	return s.r.Intn(2) == 1
}

// Split returns an independent stream whose seed is derived from this stream's seed and the
// label.  Splitting does not consume draws from the parent, so the same labels always yield the
// same sub-streams regardless of call order.
func (s *Stream) Split(label string) *Stream {
	return NewStream(DeriveSeed(s.seed, label))
}

// DeriveSeed hashes a parent seed and a label into a new seed
func DeriveSeed(seed int64, label string) int64 {
	return int64(xxhash.Sum64String(fmt.Sprintf("%d/%s", seed, label)))
}
