package pqueue

// Keyed is an indexed min-heap over arbitrary comparable handles.
//
// Handles are mapped to dense integers on first insert and the ordering work
// is delegated to a plain growable Heap.
type Keyed[H comparable, K Number] struct {
	heap    *Heap[K]
	ids     map[H]int
	handles []H
}

// NewKeyed creates an empty keyed heap.
func NewKeyed[H comparable, K Number](capacity int) *Keyed[H, K] {
	return &Keyed[H, K]{
		heap:    New[K](capacity),
		ids:     make(map[H]int, capacity),
		handles: make([]H, 0, capacity),
	}
}

// DecreaseKeyOrInsert inserts handle with key, or moves it to key if present.
func (k *Keyed[H, K]) DecreaseKeyOrInsert(handle H, key K) {
	id, ok := k.ids[handle]
	if !ok {
		id = len(k.handles)
		k.ids[handle] = id
		k.handles = append(k.handles, handle)
	}
	k.heap.DecreaseKeyOrInsert(id, key)
}

// PopMin removes and returns the handle with the smallest key.
// It panics if the heap is empty.
func (k *Keyed[H, K]) PopMin() H {
	return k.handles[k.heap.PopMin()]
}

// PeekMin returns the handle with the smallest key and the key itself.
// It panics if the heap is empty.
func (k *Keyed[H, K]) PeekMin() (H, K) {
	id := k.heap.PeekMin()
	return k.handles[id], k.heap.PeekMinValue()
}

// PeekMinValue returns the smallest key. It panics if the heap is empty.
func (k *Keyed[H, K]) PeekMinValue() K {
	return k.heap.PeekMinValue()
}

// Key returns the key of handle and whether the handle is in the heap.
func (k *Keyed[H, K]) Key(handle H) (K, bool) {
	id, ok := k.ids[handle]
	if !ok {
		var zero K
		return zero, false
	}
	return k.heap.Key(id)
}

// Contains reports whether handle is in the heap.
func (k *Keyed[H, K]) Contains(handle H) bool {
	id, ok := k.ids[handle]
	return ok && k.heap.Contains(id)
}

// Len returns the number of elements.
func (k *Keyed[H, K]) Len() int {
	return k.heap.Len()
}

// IsEmpty reports whether the heap has no elements.
func (k *Keyed[H, K]) IsEmpty() bool {
	return k.heap.IsEmpty()
}

// Reset empties the heap and forgets every handle.
func (k *Keyed[H, K]) Reset() {
	k.heap.Initialize(max(len(k.handles), 1))
	clear(k.ids)
	k.handles = k.handles[:0]
}
