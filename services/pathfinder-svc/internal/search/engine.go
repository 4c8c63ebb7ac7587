// Package search implements the best-first search loop shared by every
// pathfinding algorithm in the service.
//
// The Engine is generic over two capabilities:
//   - Space: the node-space (size, coordinates, line of sight, distance)
//   - SuccessorGenerator: candidate out-edges of a node
//
// Per-search state lives in an Arena (scratch pool + reusable heap) owned by
// the caller and passed by reference. An Arena is reused across searches
// without reallocation as long as the node-space size does not change. A
// search that needs a helper search runs the helper on a second Arena.
//
// # Relaxation
//
// Three relaxation modes are supported:
//   - RelaxGrid: plain Dijkstra/A* relaxation along the generated edge
//   - RelaxAnyAngle: rebase the edge to parent(u) whenever parent(u) sees v
//   - RelaxLazy: always rebase to parent(u), verify line of sight when the
//     node is popped and repair its parent from settled neighbours
//
// Each variant also picks its tie rule: TieStrict updates only on a strictly
// shorter distance, TieNonStrict also on an equal one.
//
// # Node states
//
//	UNVISITED --relax--> FRONTIER --pop--> SETTLED
//
// A search ends when the goal is settled or the frontier is empty.
package search

import (
	"math"

	"anyangle/services/pathfinder-svc/internal/memory"
)

// NoGoal runs a search until the frontier is exhausted.
const NoGoal = -1

// =============================================================================
// Capabilities
// =============================================================================

// Edge is a candidate out-edge produced by a SuccessorGenerator.
type Edge struct {
	To     int
	Weight float64
}

// SuccessorGenerator produces the candidate out-edges of a node.
//
// parent is memory.NoParent for the start node. Implementations append to dst
// and return it; they must not retain dst.
type SuccessorGenerator interface {
	Expand(dst []Edge, node, parent int) []Edge
}

// Space is the node-space a search runs over.
type Space interface {
	// Size returns the number of node ids; ids are in [0, Size()).
	Size() int
	// Coord returns the grid coordinates of id.
	Coord(id int) (x, y int)
	// LineOfSight reports whether a and b see each other.
	LineOfSight(a, b int) bool
	// Distance returns the straight-line distance between a and b.
	Distance(a, b int) float64
}

// Heuristic estimates the remaining distance from a node to the goal.
type Heuristic func(node int) float64

// =============================================================================
// Options
// =============================================================================

// RelaxMode selects how an edge u->v is relaxed.
type RelaxMode int

const (
	RelaxGrid RelaxMode = iota
	RelaxAnyAngle
	RelaxLazy
)

// String returns the mode name.
func (m RelaxMode) String() string {
	switch m {
	case RelaxGrid:
		return "grid"
	case RelaxAnyAngle:
		return "any-angle"
	case RelaxLazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// TieRule selects whether an equal tentative distance replaces the current one.
type TieRule int

const (
	TieStrict TieRule = iota
	TieNonStrict
)

// Smoothing selects path post-processing.
type Smoothing int

const (
	SmoothNone Smoothing = iota
	SmoothOnce
	SmoothRepeated
)

// Options configure an Engine.
type Options struct {
	Mode      RelaxMode
	Tie       TieRule
	Heuristic Heuristic
	Smoothing Smoothing

	// Prune rejects a candidate before it is compared with the current
	// distance of node. Nil accepts everything.
	Prune func(node int, tentative float64) bool

	// OnNodeSettled is called after each node is settled. It must not
	// mutate the search.
	OnNodeSettled func(node int)
}

// =============================================================================
// Engine
// =============================================================================

// Engine runs best-first searches over one Space with one SuccessorGenerator.
//
// An Engine holds no per-search state and may be shared by goroutines as long
// as each goroutine uses its own Arena.
type Engine struct {
	space Space
	gen   SuccessorGenerator
	opts  Options
}

// NewEngine creates an engine.
func NewEngine(space Space, gen SuccessorGenerator, opts Options) *Engine {
	return &Engine{space: space, gen: gen, opts: opts}
}

// Space returns the engine's node-space.
func (e *Engine) Space() Space {
	return e.space
}

// Run searches from start to goal using arena and returns the result.
//
// When goal is NoGoal the search settles every reachable node and the result
// carries no path; the arena's pool then holds the full distance field until
// the arena is reused.
func (e *Engine) Run(arena *Arena, start, goal int) *Result {
	reallocated := arena.prepare(e.space.Size())
	pool, heap := arena.Pool, arena.Heap

	pool.SetDistance(start, 0)
	heap.DecreaseKeyOrInsert(start, e.heuristic(start))

	settled := 0
	for !heap.IsEmpty() {
		u := heap.PopMin()

		if e.opts.Mode == RelaxLazy {
			e.repairParent(arena, u)
		}
		if math.IsInf(pool.Distance(u), 1) {
			continue
		}

		pool.SetVisited(u, true)
		settled++
		if e.opts.OnNodeSettled != nil {
			e.opts.OnNodeSettled(u)
		}
		if u == goal {
			break
		}

		arena.edges = e.gen.Expand(arena.edges[:0], u, pool.Parent(u))
		for _, edge := range arena.edges {
			if pool.Visited(edge.To) {
				continue
			}
			e.relax(arena, u, edge)
		}
	}

	res := e.result(arena, start, goal)
	res.Settled = settled
	res.Reallocated = reallocated
	return res
}

func (e *Engine) heuristic(node int) float64 {
	if e.opts.Heuristic == nil {
		return 0
	}
	return e.opts.Heuristic(node)
}

func (e *Engine) improves(tentative, current float64) bool {
	if e.opts.Tie == TieNonStrict {
		return tentative <= current
	}
	return tentative < current
}

// relax tests edge u->v, rebasing it to parent(u) when the mode allows.
func (e *Engine) relax(arena *Arena, u int, edge Edge) {
	pool := arena.Pool
	v := edge.To

	from := u
	tentative := pool.Distance(u) + edge.Weight
	if p := pool.Parent(u); p != memory.NoParent {
		switch e.opts.Mode {
		case RelaxAnyAngle:
			if e.space.LineOfSight(p, v) {
				from = p
				tentative = pool.Distance(p) + e.space.Distance(p, v)
			}
		case RelaxLazy:
			from = p
			tentative = pool.Distance(p) + e.space.Distance(p, v)
		}
	}

	if e.opts.Prune != nil && e.opts.Prune(v, tentative) {
		return
	}
	if !e.improves(tentative, pool.Distance(v)) {
		return
	}

	pool.SetDistance(v, tentative)
	pool.SetParent(v, from)
	arena.Heap.DecreaseKeyOrInsert(v, tentative+e.heuristic(v))
}

// repairParent re-derives u's parent from settled neighbours when the lazily
// assumed parent turns out not to see u.
func (e *Engine) repairParent(arena *Arena, u int) {
	pool := arena.Pool
	p := pool.Parent(u)
	if p == memory.NoParent || e.space.LineOfSight(p, u) {
		return
	}

	best := math.Inf(1)
	bestParent := memory.NoParent
	arena.edges = e.gen.Expand(arena.edges[:0], u, memory.NoParent)
	for _, edge := range arena.edges {
		w := edge.To
		if !pool.Visited(w) {
			continue
		}
		if d := pool.Distance(w) + edge.Weight; d < best {
			best = d
			bestParent = w
		}
	}
	pool.SetDistance(u, best)
	pool.SetParent(u, bestParent)
}
