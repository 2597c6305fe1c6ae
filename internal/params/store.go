package params

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Store holds the current value of every parameter as float64 bits.
//
// Set, SetNormalized, Apply and Reset are control-side calls and must be
// serialized by the caller. Param and Changes are safe from the audio
// goroutine at any time.
type Store struct {
	values  []atomic.Uint64
	changes atomic.Uint64
}

// NewStore returns a store holding the defaults.
func NewStore() *Store {
	s := &Store{values: make([]atomic.Uint64, len(layout))}
	for i, p := range layout {
		s.values[i].Store(math.Float64bits(p.Default))
	}

	return s
}

// Param returns the value of id. It does not lock or allocate.
func (s *Store) Param(id string) (float64, bool) {
	i, ok := index[id]
	if !ok {
		return 0, false
	}

	return math.Float64frombits(s.values[i].Load()), true
}

// Value returns the value of id, or 0 for unknown IDs.
func (s *Store) Value(id string) float64 {
	v, _ := s.Param(id)
	return v
}

// Changes counts successful writes.
func (s *Store) Changes() uint64 {
	return s.changes.Load()
}

// Set constrains v to the parameter range and stores it. It returns the value
// actually stored.
func (s *Store) Set(id string, v float64) (float64, error) {
	i, ok := index[id]
	if !ok {
		return 0, fmt.Errorf("params: %w: %q", ErrUnknownParam, id)
	}

	v = layout[i].Constrain(v)
	s.store(i, v)

	return v, nil
}

// SetNormalized sets id from a value in [0, 1], as sent by controllers.
func (s *Store) SetNormalized(id string, n float64) (float64, error) {
	i, ok := index[id]
	if !ok {
		return 0, fmt.Errorf("params: %w: %q", ErrUnknownParam, id)
	}

	v := layout[i].Denormalize(n)
	s.store(i, v)

	return v, nil
}

// Apply sets several parameters. Every ID is checked first; if any is
// unknown nothing is written.
func (s *Store) Apply(values map[string]float64) error {
	for id := range values {
		if _, ok := index[id]; !ok {
			return fmt.Errorf("params: %w: %q", ErrUnknownParam, id)
		}
	}

	for id, v := range values {
		i := index[id]
		s.store(i, layout[i].Constrain(v))
	}

	return nil
}

// Reset restores every default.
func (s *Store) Reset() {
	for i, p := range layout {
		s.store(i, p.Default)
	}
}

// Snapshot copies every value into a map keyed by ID.
func (s *Store) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(layout))
	for i, p := range layout {
		out[p.ID] = math.Float64frombits(s.values[i].Load())
	}

	return out
}

func (s *Store) store(i int, v float64) {
	old := s.values[i].Swap(math.Float64bits(v))
	if old != math.Float64bits(v) {
		s.changes.Add(1)
	}
}
