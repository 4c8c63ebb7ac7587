package search

import (
	"math"

	"anyangle/services/pathfinder-svc/internal/memory"
)

// Point is a grid vertex.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Result is the outcome of one search.
type Result struct {
	// Nodes lists node ids from start to goal. Empty when no path exists.
	Nodes []int
	// Path lists the coordinates of Nodes.
	Path []Point
	// Length is the sum of straight-line segment lengths, +Inf without a path.
	Length float64
	// Found reports whether the goal was reached.
	Found bool

	// Settled counts nodes popped and settled by the search.
	Settled int
	// Reallocated reports whether the arena had to grow for this search.
	Reallocated bool
}

// NoPath returns an empty result.
func NoPath() *Result {
	return &Result{Length: math.Inf(1)}
}

// result reconstructs the path to goal from parent pointers and applies the
// configured smoothing.
func (e *Engine) result(arena *Arena, start, goal int) *Result {
	if goal == NoGoal {
		return NoPath()
	}
	pool := arena.Pool
	if !pool.Visited(goal) || math.IsInf(pool.Distance(goal), 1) {
		return NoPath()
	}

	nodes := Reconstruct(pool, start, goal)
	if nodes == nil {
		return NoPath()
	}

	length := pool.Distance(goal)
	switch e.opts.Smoothing {
	case SmoothOnce:
		nodes = SmoothPath(e.space, nodes)
		length = PathLength(e.space, nodes)
	case SmoothRepeated:
		nodes = SmoothPathRepeated(e.space, nodes)
		length = PathLength(e.space, nodes)
	}

	return &Result{
		Nodes:  nodes,
		Path:   Points(e.space, nodes),
		Length: length,
		Found:  true,
	}
}

// Reconstruct follows parent pointers from goal back to start and returns the
// ids in start-to-goal order. It returns nil when the chain does not end at
// start or is longer than the pool.
func Reconstruct(pool *memory.Pool, start, goal int) []int {
	var rev []int
	for cur := goal; ; cur = pool.Parent(cur) {
		if cur == memory.NoParent || len(rev) > pool.Size() {
			return nil
		}
		rev = append(rev, cur)
		if cur == start {
			break
		}
	}

	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Points maps node ids to coordinates.
func Points(space Space, nodes []int) []Point {
	out := make([]Point, len(nodes))
	for i, id := range nodes {
		x, y := space.Coord(id)
		out[i] = Point{X: x, Y: y}
	}
	return out
}

// PathLength returns the sum of straight-line distances between consecutive
// nodes. An empty path has length +Inf.
func PathLength(space Space, nodes []int) float64 {
	if len(nodes) == 0 {
		return math.Inf(1)
	}
	length := 0.0
	for i := 1; i < len(nodes); i++ {
		length += space.Distance(nodes[i-1], nodes[i])
	}
	return length
}

// =============================================================================
// Smoothing
// =============================================================================

// SmoothPath walks back from the goal and, from every kept node, skips ahead
// to the farthest earlier node it still sees. The input is not modified.
func SmoothPath(space Space, nodes []int) []int {
	if len(nodes) < 3 {
		return append([]int(nil), nodes...)
	}

	out := []int{nodes[len(nodes)-1]}
	cur := len(nodes) - 1
	for cur > 0 {
		next := cur - 1
		for next > 0 && space.LineOfSight(nodes[cur], nodes[next-1]) {
			next--
		}
		out = append(out, nodes[next])
		cur = next
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SmoothPathRepeated applies SmoothPath until the path stops shrinking.
func SmoothPathRepeated(space Space, nodes []int) []int {
	cur := SmoothPath(space, nodes)
	for {
		next := SmoothPath(space, cur)
		if len(next) == len(cur) {
			return next
		}
		cur = next
	}
}
