// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

// store holds the records of one resource kind, indexed by handle.
// Backing storage grows by doubling and keeps existing record contents
// across growth, so a handle resolved before a grow still resolves to
// the same data afterwards. Pointers returned by resolve are only good
// until the next create on the same store; every caller re-resolves
// instead of holding on to them.
type store[T any] struct {
	handles handleAllocator
	records []T
	live    int
}

func newStore[T any](capacity int) *store[T] {
	return &store[T]{records: make([]T, 0, capacity)}
}

// create allocates a handle and returns it together with the zeroed
// record it resolves to.
func (s *store[T]) create() (Handle, *T) {
	h := s.handles.create()
	index := int(h.index())
	var zero T
	for len(s.records) <= index {
		s.records = append(s.records, zero)
	}
	s.records[index] = zero
	s.live++
	return h, &s.records[index]
}

func (s *store[T]) resolve(h Handle) (*T, error) {
	if !s.handles.valid(h) || int(h.index()) >= len(s.records) {
		return nil, ErrInvalidHandle
	}
	return &s.records[h.index()], nil
}

// release invalidates h and clears its record. The record is zeroed so
// native handles cannot leak into a future occupant of the slot.
func (s *store[T]) release(h Handle) error {
	if !s.handles.release(h) {
		return ErrInvalidHandle
	}
	var zero T
	s.records[h.index()] = zero
	s.live--
	return nil
}
