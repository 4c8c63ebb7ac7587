package search

import (
	"math"
	"sync"

	"anyangle/services/pathfinder-svc/internal/memory"
	"anyangle/services/pathfinder-svc/internal/pqueue"
)

// =============================================================================
// Arena
// =============================================================================

// Arena owns the scratch state of one search: the per-node pool, the reusable
// heap and an expansion buffer.
//
// An Arena is NOT thread-safe and must back at most one running search.
// Sequential searches reuse it; when the node-space size is unchanged the
// reset between them is O(1).
type Arena struct {
	Pool *memory.Pool
	Heap *pqueue.Heap[float64]

	edges []Edge
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		Pool:  memory.NewPool(),
		Heap:  pqueue.NewReusable[float64](),
		edges: make([]Edge, 0, 16),
	}
}

// prepare resets the arena for a node-space of size nodes and reports whether
// backing storage had to be reallocated.
func (a *Arena) prepare(size int) bool {
	reallocated := a.Pool.Size() != size
	a.Pool.Initialize(size, math.Inf(1), memory.NoParent, false)
	a.Heap.Initialize(size)
	return reallocated
}

// Size returns the node-space size of the last search run on the arena.
func (a *Arena) Size() int {
	return a.Pool.Size()
}

// Distance returns the distance recorded for node by the last search.
func (a *Arena) Distance(node int) float64 {
	return a.Pool.Distance(node)
}

// Parent returns the parent recorded for node by the last search.
func (a *Arena) Parent(node int) int {
	return a.Pool.Parent(node)
}

// Settled reports whether node was settled by the last search.
func (a *Arena) Settled(node int) bool {
	return a.Pool.Visited(node)
}

// =============================================================================
// Arena Pool
// =============================================================================

// ArenaPool recycles arenas between requests through sync.Pool.
//
// Arenas keep their backing arrays while pooled, so a request on a grid of the
// same size as a previous one skips allocation entirely. The pool is safe for
// concurrent use.
type ArenaPool struct {
	arenas sync.Pool
}

// globalArenaPool is the process-wide pool.
var globalArenaPool = NewArenaPool()

// NewArenaPool creates an isolated pool.
func NewArenaPool() *ArenaPool {
	return &ArenaPool{
		arenas: sync.Pool{
			New: func() any { return NewArena() },
		},
	}
}

// GetPool returns the process-wide arena pool.
func GetPool() *ArenaPool {
	return globalArenaPool
}

// Acquire obtains an arena. Call Release when the search and every read of its
// state are done.
func (p *ArenaPool) Acquire() *Arena {
	return p.arenas.Get().(*Arena)
}

// Release returns an arena to the pool. It is safe to pass nil.
func (p *ArenaPool) Release(a *Arena) {
	if a == nil {
		return
	}
	a.edges = a.edges[:0]
	p.arenas.Put(a)
}

// =============================================================================
// Lease
// =============================================================================

// Lease tracks the arenas used by one request so they can be released together.
//
//	lease := search.NewLease(search.GetPool())
//	defer lease.Release()
//	outer := lease.Arena()
//	inner := lease.Arena() // nested helper search
//
// A Lease is NOT thread-safe.
type Lease struct {
	pool   *ArenaPool
	arenas []*Arena
}

// NewLease creates a lease on pool, or on the global pool when pool is nil.
func NewLease(pool *ArenaPool) *Lease {
	if pool == nil {
		pool = globalArenaPool
	}
	return &Lease{pool: pool}
}

// Arena acquires a new arena tracked by the lease.
func (l *Lease) Arena() *Arena {
	a := l.pool.Acquire()
	l.arenas = append(l.arenas, a)
	return a
}

// Release returns every tracked arena. It is safe to call more than once.
func (l *Lease) Release() {
	for _, a := range l.arenas {
		l.pool.Release(a)
	}
	l.arenas = l.arenas[:0]
}
