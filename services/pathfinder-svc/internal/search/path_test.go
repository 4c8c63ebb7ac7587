package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyangle/services/pathfinder-svc/internal/memory"
)

func TestSmoothPath(t *testing.T) {
	p := &plane{w: 3, h: 2, diagonal: true}
	staircase := []int{p.id(0, 0), p.id(1, 0), p.id(2, 0), p.id(2, 1)}

	assert.Equal(t, []int{p.id(0, 0), p.id(2, 1)}, SmoothPath(p, staircase))
	assert.Equal(t, []int{p.id(0, 0), p.id(1, 0), p.id(2, 0), p.id(2, 1)}, staircase)
}

func TestSmoothPath_KeepsBlockedCorner(t *testing.T) {
	p := &plane{w: 3, h: 2, diagonal: true, blind: func(a, b Point) bool {
		return a.X == 0 && b.X == 2 || a.X == 2 && b.X == 0
	}}
	staircase := []int{p.id(0, 0), p.id(1, 0), p.id(2, 0), p.id(2, 1)}

	got := SmoothPath(p, staircase)

	assert.Equal(t, []int{p.id(0, 0), p.id(1, 0), p.id(2, 1)}, got)
	assert.InDelta(t, 1+math.Sqrt2, PathLength(p, got), 1e-12)
}

func TestSmoothPath_Short(t *testing.T) {
	p := &plane{w: 2, h: 1}

	assert.Empty(t, SmoothPath(p, nil))
	assert.Equal(t, []int{0, 1}, SmoothPath(p, []int{0, 1}))
	assert.Equal(t, []int{0, 1}, SmoothPathRepeated(p, []int{0, 1}))
}

func TestSmoothing_Option(t *testing.T) {
	p := &plane{w: 5, h: 3, diagonal: true}
	start, goal := p.id(0, 0), p.id(4, 2)

	plain := NewEngine(p, p, Options{}).Run(NewArena(), start, goal)
	smoothed := NewEngine(p, p, Options{Smoothing: SmoothOnce}).Run(NewArena(), start, goal)
	repeated := NewEngine(p, p, Options{Smoothing: SmoothRepeated}).Run(NewArena(), start, goal)

	assert.Greater(t, plain.Length, smoothed.Length)
	assert.Equal(t, []Point{{0, 0}, {4, 2}}, smoothed.Path)
	assert.Equal(t, smoothed.Path, repeated.Path)
	assert.InDelta(t, math.Sqrt(20), repeated.Length, 1e-12)
}

func TestReconstruct_BrokenChain(t *testing.T) {
	pool := memory.NewPool()
	pool.Initialize(4, math.Inf(1), memory.NoParent, false)
	pool.SetParent(3, 2)

	assert.Nil(t, Reconstruct(pool, 0, 3))

	pool.SetParent(2, 0)
	assert.Equal(t, []int{0, 2, 3}, Reconstruct(pool, 0, 3))
}

func TestPathLength_Empty(t *testing.T) {
	assert.True(t, math.IsInf(PathLength(&plane{w: 1, h: 1}, nil), 1))
	assert.True(t, math.IsInf(NoPath().Length, 1))
}

func TestTrace(t *testing.T) {
	trace := NewTrace()
	for _, n := range []int{9, 2, 5, 2} {
		trace.Record(n)
	}

	assert.Equal(t, 3, trace.Count())
	assert.Equal(t, []int{2, 5, 9}, trace.Nodes())
	assert.True(t, trace.Contains(5))
	assert.False(t, trace.Contains(4))

	data, err := trace.Bytes()
	require.NoError(t, err)
	back, err := ReadTrace(data)
	require.NoError(t, err)
	assert.Equal(t, trace.Nodes(), back.Nodes())
}
