package pqueue

import "anyangle/services/pathfinder-svc/internal/memory"

// storage is the policy holding each handle's key and heap position.
type storage[K Number] interface {
	// reset prepares storage for handles in [0, size). live lists the handles
	// still in the heap.
	reset(size int, live []int)
	position(handle int) int
	key(handle int) K
	place(handle int, key K, pos int)
	move(handle, pos int)
	drop(handle int)
}

// =============================================================================
// Epoch-versioned storage
// =============================================================================

type entry[K Number] struct {
	key K
	pos int
}

// versionedStorage keeps handle state in an epoch-versioned slot array.
// A handle not written in the current epoch reads as absent.
type versionedStorage[K Number] struct {
	slots memory.Versioned[entry[K]]
}

func (s *versionedStorage[K]) reset(size int, _ []int) {
	s.slots.Reset(size, entry[K]{pos: absent})
}

func (s *versionedStorage[K]) position(handle int) int {
	return s.slots.Get(handle).pos
}

func (s *versionedStorage[K]) key(handle int) K {
	return s.slots.Get(handle).key
}

func (s *versionedStorage[K]) place(handle int, key K, pos int) {
	s.slots.Set(handle, entry[K]{key: key, pos: pos})
}

func (s *versionedStorage[K]) move(handle, pos int) {
	s.slots.Touch(handle).pos = pos
}

func (s *versionedStorage[K]) drop(handle int) {
	s.slots.Touch(handle).pos = absent
}

// NewReusable creates a heap on epoch-versioned storage.
// Initialize must be called before the first insert.
func NewReusable[K Number]() *Heap[K] {
	newStore := func() storage[K] { return &versionedStorage[K]{} }
	return &Heap[K]{store: newStore(), newStore: newStore}
}

// =============================================================================
// Growable storage
// =============================================================================

// sliceStorage keeps handle state in slices owned by one heap. The slices grow
// by doubling to cover the largest handle seen.
type sliceStorage[K Number] struct {
	keys []K
	pos  []int
}

func (s *sliceStorage[K]) reset(size int, live []int) {
	for _, h := range live {
		s.pos[h] = absent
	}
	s.ensure(size - 1)
}

func (s *sliceStorage[K]) ensure(handle int) {
	if handle < len(s.pos) {
		return
	}
	n := len(s.pos) * 2
	if n <= handle {
		n = handle + 1
	}
	keys := make([]K, n)
	copy(keys, s.keys)
	pos := make([]int, n)
	copy(pos, s.pos)
	for i := len(s.pos); i < n; i++ {
		pos[i] = absent
	}
	s.keys = keys
	s.pos = pos
}

func (s *sliceStorage[K]) position(handle int) int {
	if handle >= len(s.pos) {
		return absent
	}
	return s.pos[handle]
}

func (s *sliceStorage[K]) key(handle int) K {
	return s.keys[handle]
}

func (s *sliceStorage[K]) place(handle int, key K, pos int) {
	s.ensure(handle)
	s.keys[handle] = key
	s.pos[handle] = pos
}

func (s *sliceStorage[K]) move(handle, pos int) {
	s.pos[handle] = pos
}

func (s *sliceStorage[K]) drop(handle int) {
	s.pos[handle] = absent
}

// New creates a heap on plain growable storage with room for capacity
// elements. It is usable without Initialize.
func New[K Number](capacity int) *Heap[K] {
	if capacity < 1 {
		capacity = 1
	}
	newStore := func() storage[K] { return &sliceStorage[K]{} }
	h := &Heap[K]{
		store:    newStore(),
		newStore: newStore,
		out:      make([]int, capacity),
	}
	return h
}
