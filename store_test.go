// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

import (
	"errors"
	"testing"
)

func TestStoreGrowthPreservesData(t *testing.T) {
	s := newStore[uint64](4)

	// Grow well past the initial capacity and check nothing already
	// written gets corrupted along the way.
	handles := make([]Handle, 100)
	for i := range handles {
		h, record := s.create()
		*record = uint64(i) * 7
		handles[i] = h
	}
	for i, h := range handles {
		record, err := s.resolve(h)
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if *record != uint64(i)*7 {
			t.Fatalf("record %d: expected %d, got %d", i, uint64(i)*7, *record)
		}
	}
}

func TestStoreResolveStale(t *testing.T) {
	s := newStore[int](4)
	h, record := s.create()
	*record = 42
	if err := s.release(h); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := s.resolve(h); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}

	// The slot must come back zeroed for its next occupant.
	reissued, reborn := s.create()
	if reissued.index() != h.index() {
		t.Fatalf("expected index %d to be recycled, got %d", h.index(), reissued.index())
	}
	if *reborn != 0 {
		t.Fatalf("recycled slot should be zeroed, got %d", *reborn)
	}
}

func TestStoreLiveCount(t *testing.T) {
	s := newStore[int](2)
	a, _ := s.create()
	b, _ := s.create()
	if s.live != 2 {
		t.Fatalf("expected 2 live records, got %d", s.live)
	}
	if err := s.release(a); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := s.release(b); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.live != 0 {
		t.Fatalf("expected 0 live records, got %d", s.live)
	}
}
