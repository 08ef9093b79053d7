// Package random provides the RandomSource implementations used by draws.
package random

import (
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"

	"github.com/eykd/mintdraw/internal/domain"
)

var (
	_ domain.RandomSource = (*Source)(nil)
	_ domain.RandomSource = (*Scripted)(nil)
)

// Factory builds a RandomSource from a per-call entropy seed.
type Factory func(seed []byte) domain.RandomSource

// Source is a ChaCha8 stream keyed by the BLAKE2b-256 digest of a seed.
type Source struct {
	rng *rand.ChaCha8
}

// New returns a Source for seed. The same seed always yields the same stream.
func New(seed []byte) *Source {
	return &Source{rng: rand.NewChaCha8(blake2b.Sum256(seed))}
}

// NewFactory returns the Factory used in production.
func NewFactory() Factory {
	return func(seed []byte) domain.RandomSource {
		return New(seed)
	}
}

// Uint64 returns the next value of the stream.
func (s *Source) Uint64() uint64 {
	return s.rng.Uint64()
}

// Scripted replays a fixed trace of raw values, wrapping around at the end.
// An empty trace always yields 0.
type Scripted struct {
	Values []uint64
	next   int
}

// NewScripted returns a Scripted source over values.
func NewScripted(values ...uint64) *Scripted {
	return &Scripted{Values: values}
}

// Uint64 returns the next value in the trace.
func (s *Scripted) Uint64() uint64 {
	if len(s.Values) == 0 {
		return 0
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}

// ScriptedFactory returns a Factory that ignores the seed and hands out
// successive values of one shared trace, one value per source.
func ScriptedFactory(values ...uint64) Factory {
	shared := NewScripted(values...)
	return func([]byte) domain.RandomSource {
		return NewScripted(shared.Uint64())
	}
}
