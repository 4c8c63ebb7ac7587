package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plane is a w x h lattice of vertices with optional blind pairs.
type plane struct {
	w, h     int
	diagonal bool
	blind    func(a, b Point) bool
}

func (p *plane) Size() int { return p.w * p.h }

func (p *plane) Coord(id int) (int, int) { return id % p.w, id / p.w }

func (p *plane) id(x, y int) int { return y*p.w + x }

func (p *plane) point(id int) Point {
	x, y := p.Coord(id)
	return Point{X: x, Y: y}
}

func (p *plane) LineOfSight(a, b int) bool {
	return p.blind == nil || !p.blind(p.point(a), p.point(b))
}

func (p *plane) Distance(a, b int) float64 {
	ax, ay := p.Coord(a)
	bx, by := p.Coord(b)
	return math.Hypot(float64(ax-bx), float64(ay-by))
}

func (p *plane) Expand(dst []Edge, node, _ int) []Edge {
	x, y := p.Coord(node)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 || (!p.diagonal && dx != 0 && dy != 0) {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= p.w || ny >= p.h {
				continue
			}
			to := p.id(nx, ny)
			if !p.LineOfSight(node, to) {
				continue
			}
			dst = append(dst, Edge{To: to, Weight: p.Distance(node, to)})
		}
	}
	return dst
}

func euclidTo(p *plane, goal int) Heuristic {
	return func(node int) float64 { return p.Distance(node, goal) }
}

// ============================================================
// Relaxation modes
// ============================================================

func TestRun_OpenGridDiagonal(t *testing.T) {
	p := &plane{w: 5, h: 5, diagonal: true}
	start, goal := p.id(0, 0), p.id(4, 4)

	for _, mode := range []RelaxMode{RelaxGrid, RelaxAnyAngle, RelaxLazy} {
		t.Run(mode.String(), func(t *testing.T) {
			e := NewEngine(p, p, Options{Mode: mode, Heuristic: euclidTo(p, goal)})
			res := e.Run(NewArena(), start, goal)

			require.True(t, res.Found)
			assert.InDelta(t, 4*math.Sqrt2, res.Length, 1e-9)
			assert.Equal(t, Point{0, 0}, res.Path[0])
			assert.Equal(t, Point{4, 4}, res.Path[len(res.Path)-1])
		})
	}
}

func TestRun_AnyAngleStraightensPath(t *testing.T) {
	p := &plane{w: 5, h: 3, diagonal: true}
	start, goal := p.id(0, 0), p.id(4, 2)

	grid := NewEngine(p, p, Options{Mode: RelaxGrid}).Run(NewArena(), start, goal)
	anyAngle := NewEngine(p, p, Options{Mode: RelaxAnyAngle}).Run(NewArena(), start, goal)

	assert.InDelta(t, 2*math.Sqrt2+2, grid.Length, 1e-9)
	assert.InDelta(t, math.Sqrt(20), anyAngle.Length, 1e-9)
	assert.Equal(t, []Point{{0, 0}, {4, 2}}, anyAngle.Path)
	assert.InDelta(t, PathLength(p, anyAngle.Nodes), anyAngle.Length, 1e-9)
}

func TestRun_LazyRepairsParent(t *testing.T) {
	// (0,0) cannot see (2,1) directly.
	p := &plane{w: 3, h: 3, diagonal: true, blind: func(a, b Point) bool {
		return (a == Point{0, 0} && b == Point{2, 1}) || (a == Point{2, 1} && b == Point{0, 0})
	}}
	start, goal := p.id(0, 0), p.id(2, 1)

	res := NewEngine(p, p, Options{Mode: RelaxLazy, Heuristic: euclidTo(p, goal)}).Run(NewArena(), start, goal)

	require.True(t, res.Found)
	assert.InDelta(t, 1+math.Sqrt2, res.Length, 1e-9)
	for i := 1; i < len(res.Nodes); i++ {
		assert.True(t, p.LineOfSight(res.Nodes[i-1], res.Nodes[i]))
	}
}

// ============================================================
// Tie rules
// ============================================================

func TestRun_TieRule(t *testing.T) {
	p := &plane{w: 2, h: 2}
	start, goal := p.id(0, 0), p.id(1, 1)

	strict := NewEngine(p, p, Options{Tie: TieStrict}).Run(NewArena(), start, goal)
	nonStrict := NewEngine(p, p, Options{Tie: TieNonStrict}).Run(NewArena(), start, goal)

	assert.Equal(t, 2.0, strict.Length)
	assert.Equal(t, 2.0, nonStrict.Length)

	// The first equal-length route wins under the strict rule, the last one
	// under the non-strict rule.
	assert.Equal(t, []Point{{0, 0}, {1, 0}, {1, 1}}, strict.Path)
	assert.Equal(t, []Point{{0, 0}, {0, 1}, {1, 1}}, nonStrict.Path)
}

// ============================================================
// Termination and hooks
// ============================================================

func TestRun_NoPath(t *testing.T) {
	// Column x=2 is invisible from everywhere.
	p := &plane{w: 3, h: 2, blind: func(a, b Point) bool { return (a.X == 2) != (b.X == 2) }}

	res := NewEngine(p, p, Options{}).Run(NewArena(), p.id(0, 0), p.id(2, 1))

	assert.False(t, res.Found)
	assert.Empty(t, res.Path)
	assert.True(t, math.IsInf(res.Length, 1))
	assert.Equal(t, 4, res.Settled)
}

func TestRun_StartIsGoal(t *testing.T) {
	p := &plane{w: 3, h: 3, diagonal: true}

	res := NewEngine(p, p, Options{}).Run(NewArena(), p.id(1, 1), p.id(1, 1))

	require.True(t, res.Found)
	assert.Equal(t, []Point{{1, 1}}, res.Path)
	assert.Equal(t, 0.0, res.Length)
	assert.Equal(t, 1, res.Settled)
}

func TestRun_NoGoalSettlesEverything(t *testing.T) {
	p := &plane{w: 4, h: 3, diagonal: true}
	arena := NewArena()
	trace := NewTrace()

	res := NewEngine(p, p, Options{OnNodeSettled: trace.Record}).Run(arena, p.id(0, 0), NoGoal)

	assert.False(t, res.Found)
	assert.Equal(t, p.Size(), res.Settled)
	assert.Equal(t, p.Size(), trace.Count())
	assert.InDelta(t, 2*math.Sqrt2+1, arena.Distance(p.id(3, 2)), 1e-9)
	assert.True(t, arena.Settled(p.id(3, 2)))
}

func TestRun_Prune(t *testing.T) {
	p := &plane{w: 5, h: 1}
	limit := func(_ int, tentative float64) bool { return tentative > 2 }

	res := NewEngine(p, p, Options{Prune: limit}).Run(NewArena(), p.id(0, 0), p.id(4, 0))

	assert.False(t, res.Found)
	assert.Equal(t, 3, res.Settled)
}

// ============================================================
// Arena reuse
// ============================================================

func TestRun_ArenaReuse(t *testing.T) {
	small := &plane{w: 3, h: 3, diagonal: true}
	large := &plane{w: 6, h: 6, diagonal: true}
	arena := NewArena()

	first := NewEngine(small, small, Options{}).Run(arena, 0, small.id(2, 2))
	second := NewEngine(small, small, Options{}).Run(arena, small.id(2, 2), 0)
	third := NewEngine(large, large, Options{}).Run(arena, 0, large.id(5, 5))

	assert.True(t, first.Reallocated)
	assert.False(t, second.Reallocated)
	assert.True(t, third.Reallocated)

	assert.InDelta(t, 2*math.Sqrt2, second.Length, 1e-9)
	assert.InDelta(t, 5*math.Sqrt2, third.Length, 1e-9)
	assert.Equal(t, large.Size(), arena.Size())
}

func TestRun_SameResultOnReusedArena(t *testing.T) {
	p := &plane{w: 7, h: 5, diagonal: true}
	e := NewEngine(p, p, Options{Mode: RelaxAnyAngle})
	arena := NewArena()

	a := e.Run(arena, p.id(0, 4), p.id(6, 0))
	e.Run(arena, p.id(3, 3), p.id(1, 0))
	b := e.Run(arena, p.id(0, 4), p.id(6, 0))

	assert.Equal(t, a.Nodes, b.Nodes)
	assert.Equal(t, a.Length, b.Length)
	assert.False(t, b.Reallocated)
}

func TestArenaPool(t *testing.T) {
	pool := NewArenaPool()
	lease := NewLease(pool)

	a := lease.Arena()
	b := lease.Arena()
	assert.NotSame(t, a, b)

	lease.Release()
	lease.Release()
	pool.Release(nil)
	assert.NotNil(t, pool.Acquire())
}
