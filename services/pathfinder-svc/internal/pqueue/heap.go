// Package pqueue provides an indirect binary min-heap with O(log n) decrease-key.
//
// Elements are identified by integer handles that stay stable while the heap
// reorders itself. Two permutations are maintained: the storage policy maps a
// handle to its array position and key, and the heap array maps a position
// back to its handle.
//
// # Strategies
//
// The same Heap type runs on two storage policies:
//   - NewReusable: handle state lives in an epoch-versioned slot array, so
//     Initialize between searches is O(1) and absent handles need no explicit
//     membership set. Handles must be below the initialized size.
//   - New: handle state lives in plain slices owned by the heap and growing by
//     doubling. Handles may be any non-negative integer.
//
// Keyed wraps the plain strategy for arbitrary comparable handles.
//
// # Ties
//
// Equal keys are ordered by heap-array position only. Callers that need a
// deterministic secondary order must fold it into the key.
//
// # Thread Safety
//
// A Heap is NOT thread-safe.
package pqueue

import "fmt"

// Number is the set of key types the heap can order.
type Number interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// absent is the position of a handle that is not in the heap.
const absent = -1

// =============================================================================
// Heap
// =============================================================================

// Heap is an indexed binary min-heap over integer handles.
type Heap[K Number] struct {
	store    storage[K]
	newStore func() storage[K]
	out      []int
	size     int
}

// Initialize empties the heap and prepares it for handles in [0, size).
//
// For the reusable strategy this is O(1) when size is unchanged. For the plain
// strategy it is O(live elements). Initialize panics if size is not positive.
func (h *Heap[K]) Initialize(size int) {
	if size <= 0 {
		panic(fmt.Sprintf("pqueue: invalid handle space %d", size))
	}
	h.store.reset(size, h.out[:h.size])
	h.size = 0
}

// DecreaseKeyOrInsert inserts handle with key, or moves it to key if present.
//
// Search callers only ever lower a present key. A larger key is still
// repositioned correctly.
func (h *Heap[K]) DecreaseKeyOrInsert(handle int, key K) {
	pos := h.store.position(handle)
	if pos == absent {
		if h.size == len(h.out) {
			h.grow()
		}
		h.out[h.size] = handle
		h.store.place(handle, key, h.size)
		h.size++
		h.up(h.size - 1)
		return
	}

	old := h.store.key(handle)
	h.store.place(handle, key, pos)
	switch {
	case key < old:
		h.up(pos)
	case key > old:
		h.down(pos)
	}
}

// PopMin removes and returns the handle with the smallest key.
// It panics if the heap is empty.
func (h *Heap[K]) PopMin() int {
	if h.size == 0 {
		panic("pqueue: PopMin on empty heap")
	}
	top := h.out[0]
	h.size--
	if h.size > 0 {
		last := h.out[h.size]
		h.out[0] = last
		h.store.move(last, 0)
		h.down(0)
	}
	h.store.drop(top)
	return top
}

// PeekMin returns the handle with the smallest key without removing it.
// It panics if the heap is empty.
func (h *Heap[K]) PeekMin() int {
	if h.size == 0 {
		panic("pqueue: PeekMin on empty heap")
	}
	return h.out[0]
}

// PeekMinValue returns the smallest key. It panics if the heap is empty.
func (h *Heap[K]) PeekMinValue() K {
	return h.store.key(h.PeekMin())
}

// Key returns the key of handle and whether the handle is in the heap.
func (h *Heap[K]) Key(handle int) (K, bool) {
	if h.store.position(handle) == absent {
		var zero K
		return zero, false
	}
	return h.store.key(handle), true
}

// Contains reports whether handle is in the heap.
func (h *Heap[K]) Contains(handle int) bool {
	return h.store.position(handle) != absent
}

// Len returns the number of elements.
func (h *Heap[K]) Len() int {
	return h.size
}

// IsEmpty reports whether the heap has no elements.
func (h *Heap[K]) IsEmpty() bool {
	return h.size == 0
}

// Cap returns the capacity of the heap array.
func (h *Heap[K]) Cap() int {
	return len(h.out)
}

// =============================================================================
// Context
// =============================================================================

// Context is a detached capture of a heap's state.
type Context[K Number] struct {
	store storage[K]
	out   []int
	size  int
}

// SaveContext detaches the heap's state and leaves an empty heap of the same
// strategy behind. Initialize must be called before the heap is used again.
func (h *Heap[K]) SaveContext() Context[K] {
	ctx := Context[K]{store: h.store, out: h.out, size: h.size}
	h.store = h.newStore()
	h.out = nil
	h.size = 0
	return ctx
}

// LoadContext restores a previously saved state. The current state is dropped.
func (h *Heap[K]) LoadContext(ctx Context[K]) {
	h.store = ctx.store
	h.out = ctx.out
	h.size = ctx.size
}

// =============================================================================
// Internal helpers
// =============================================================================

func (h *Heap[K]) grow() {
	n := len(h.out) * 2
	if n == 0 {
		n = 16
	}
	out := make([]int, n)
	copy(out, h.out[:h.size])
	h.out = out
}

func (h *Heap[K]) less(i, j int) bool {
	return h.store.key(h.out[i]) < h.store.key(h.out[j])
}

func (h *Heap[K]) swap(i, j int) {
	h.out[i], h.out[j] = h.out[j], h.out[i]
	h.store.move(h.out[i], i)
	h.store.move(h.out[j], j)
}

func (h *Heap[K]) up(pos int) {
	for pos > 0 {
		parent := (pos - 1) / 2
		if !h.less(pos, parent) {
			return
		}
		h.swap(pos, parent)
		pos = parent
	}
}

func (h *Heap[K]) down(pos int) {
	for {
		smallest := 2*pos + 1
		if smallest >= h.size {
			return
		}
		if right := smallest + 1; right < h.size && h.less(right, smallest) {
			smallest = right
		}
		if !h.less(smallest, pos) {
			return
		}
		h.swap(pos, smallest)
		pos = smallest
	}
}
