// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gpu

// Handle identifies a resource owned by a Context. The low half is an
// index into a per-kind store, the high half a generation counter that
// is bumped every time the index is recycled. A Handle stays valid
// until the resource is destroyed and never becomes valid again
// afterwards, even when the index is reissued. The zero Handle is
// never valid.
//
// Handles carry no cross-kind meaning: a buffer handle and an image
// handle may share the same numeric value.
type Handle uint64

const handleGenerationShift = 32

func makeHandle(index, generation uint32) Handle {
	return Handle(index) | Handle(generation)<<handleGenerationShift
}

func (h Handle) index() uint32 {
	return uint32(h)
}

func (h Handle) generation() uint32 {
	return uint32(h >> handleGenerationShift)
}

// handleAllocator issues recycled generational handles. Generations
// start at 1 so the zero Handle always fails validation.
type handleAllocator struct {
	generations []uint32
	free        []uint32
}

func (a *handleAllocator) create() Handle {
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		return makeHandle(index, a.generations[index])
	}
	a.generations = append(a.generations, 1)
	return makeHandle(uint32(len(a.generations)-1), 1)
}

func (a *handleAllocator) valid(h Handle) bool {
	index := h.index()
	if h.generation() == 0 || index >= uint32(len(a.generations)) {
		return false
	}
	return h.generation() == a.generations[index]
}

// release marks h stale and recycles its index. Returns false when h
// already failed validation, in which case nothing changes.
func (a *handleAllocator) release(h Handle) bool {
	if !a.valid(h) {
		return false
	}
	a.generations[h.index()]++
	a.free = append(a.free, h.index())
	return true
}
