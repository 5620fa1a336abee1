// Package random abstracts the pseudo-random draws behind the engine's
// probability-gated rules so tests can force either branch deterministically.
package random

import "math/rand/v2"

// Source yields uniform draws in [0, 1).
type Source interface {
	Float64() float64
}

// New returns the production source.
func New() Source {
	return stdSource{}
}

type stdSource struct{}

func (stdSource) Float64() float64 { return rand.Float64() }

// Forced always returns the same value; test helper.
type Forced float64

func (f Forced) Float64() float64 { return float64(f) }

// Sequence replays a fixed list of draws, cycling when exhausted.
type Sequence struct {
	Values []float64
	next   int
}

func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}
