// Package domain holds the allocator state and the sparse Fisher–Yates draw.
package domain

import (
	"errors"
	"fmt"
)

// ErrExhausted is returned when every identifier in the range has been drawn.
var ErrExhausted = errors.New("no ids left")

// ErrAlreadyInitialized is returned when an allocator is created twice.
var ErrAlreadyInitialized = errors.New("already initialized")

// ErrNotFound is returned when a named allocator does not exist.
var ErrNotFound = errors.New("allocator not found")

// ErrCorruptState is returned when persisted state violates the allocator invariants.
var ErrCorruptState = errors.New("corrupt allocator state")

// RandomSource yields uniformly distributed 64-bit values.
type RandomSource interface {
	Uint64() uint64
}

// Draw records the outcome of a single successful draw.
//
// Slot is the window position that was picked and SlotValue the identifier it
// represents after the draw. Persisting Slot/SlotValue together with the new
// drawn count is sufficient to commit the draw.
type Draw struct {
	ID        uint64
	Slot      uint64
	SlotValue uint64
}

// AllocatorState is the persistent state of a single allocator.
//
// Overrides maps a window position to the identifier it currently represents.
// A missing key means the position represents itself. Only positions below
// Window() are meaningful; stale entries above it are never read again.
type AllocatorState struct {
	Capacity  uint64
	Drawn     uint64
	Overrides map[uint64]uint64
}

// NewAllocatorState returns a fresh state over [0, capacity).
func NewAllocatorState(capacity uint64) *AllocatorState {
	return &AllocatorState{
		Capacity:  capacity,
		Overrides: make(map[uint64]uint64),
	}
}

// Window returns the number of identifiers not yet drawn.
func (s *AllocatorState) Window() uint64 {
	return s.Capacity - s.Drawn
}

// Exhausted reports whether every identifier has been drawn.
func (s *AllocatorState) Exhausted() bool {
	return s.Drawn >= s.Capacity
}

// resolve returns the identifier held at window position pos.
func (s *AllocatorState) resolve(pos uint64) uint64 {
	if v, ok := s.Overrides[pos]; ok {
		return v
	}
	return pos
}

// Draw picks the next identifier using one value from src.
//
// The picked slot takes over the identity of the last slot in the window and
// the window shrinks by one, which is a Fisher–Yates swap done lazily against
// the sparse override map. On ErrExhausted the state is left untouched and src
// is not consulted.
func (s *AllocatorState) Draw(src RandomSource) (Draw, error) {
	window := s.Window()
	if s.Exhausted() || window == 0 {
		return Draw{}, ErrExhausted
	}

	// Modulo reduction is kept for trace compatibility even though it is
	// slightly biased when window does not divide 2^64.
	r := src.Uint64() % window
	resolved := s.resolve(r)
	lastValue := s.resolve(window - 1)

	if s.Overrides == nil {
		s.Overrides = make(map[uint64]uint64)
	}
	s.Overrides[r] = lastValue
	s.Drawn++

	return Draw{ID: resolved, Slot: r, SlotValue: lastValue}, nil
}

// Validate checks the state against the allocator invariants.
func (s *AllocatorState) Validate() error {
	if s.Drawn > s.Capacity {
		return fmt.Errorf("%w: drawn %d exceeds capacity %d", ErrCorruptState, s.Drawn, s.Capacity)
	}
	for pos, id := range s.Overrides {
		if pos >= s.Capacity || id >= s.Capacity {
			return fmt.Errorf("%w: override %d=>%d outside capacity %d", ErrCorruptState, pos, id, s.Capacity)
		}
	}
	return nil
}

// Clone returns a deep copy of the state.
func (s *AllocatorState) Clone() *AllocatorState {
	c := &AllocatorState{
		Capacity:  s.Capacity,
		Drawn:     s.Drawn,
		Overrides: make(map[uint64]uint64, len(s.Overrides)),
	}
	for k, v := range s.Overrides {
		c.Overrides[k] = v
	}
	return c
}

// Summary describes one stored allocator without its override map.
type Summary struct {
	Key       string
	Name      string
	Capacity  uint64
	Drawn     uint64
	Overrides int
}
