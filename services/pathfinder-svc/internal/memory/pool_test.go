package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_InitializeReturnsEpoch(t *testing.T) {
	p := NewPool()

	assert.Equal(t, uint32(1), p.Initialize(16, math.Inf(1), NoParent, false))
	assert.Equal(t, uint32(2), p.Initialize(16, math.Inf(1), NoParent, false))
	assert.Equal(t, uint32(3), p.Initialize(16, math.Inf(1), NoParent, false))
	assert.Equal(t, 16, p.Size())
}

func TestPool_DefaultsBeforeWrite(t *testing.T) {
	p := NewPool()
	p.Initialize(8, 42, 7, true)

	for id := 0; id < 8; id++ {
		assert.Equal(t, 42.0, p.Distance(id))
		assert.Equal(t, 7, p.Parent(id))
		assert.True(t, p.Visited(id))
		assert.False(t, p.Touched(id))
	}
}

func TestPool_StaleWriteFillsOtherFields(t *testing.T) {
	p := NewPool()
	p.Initialize(4, math.Inf(1), NoParent, false)

	p.SetDistance(2, 1.5)
	p.SetParent(2, 3)
	p.SetVisited(2, true)

	p.Initialize(4, 100, 9, false)

	// Only parent is written in the new epoch; distance and visited must read
	// the new defaults rather than the old values.
	p.SetParent(2, 1)
	assert.Equal(t, 1, p.Parent(2))
	assert.Equal(t, 100.0, p.Distance(2))
	assert.False(t, p.Visited(2))
	assert.True(t, p.Touched(2))
}

func TestPool_ReinitializeIsolatesEpochs(t *testing.T) {
	// Slot 7 written in epoch 1 must read the default in epoch 2.
	p := NewPool()
	epoch := p.Initialize(10, math.Inf(1), NoParent, false)
	require.Equal(t, uint32(1), epoch)

	p.SetDistance(7, 3.25)
	require.Equal(t, 3.25, p.Distance(7))

	epoch = p.Initialize(10, math.Inf(1), NoParent, false)
	require.Equal(t, uint32(2), epoch)

	assert.True(t, math.IsInf(p.Distance(7), 1))
	assert.Equal(t, NoParent, p.Parent(7))
}

func TestPool_ResizeReallocates(t *testing.T) {
	p := NewPool()
	p.Initialize(4, 0, NoParent, false)
	p.Initialize(4, 0, NoParent, false)
	p.SetDistance(1, 5)

	epoch := p.Initialize(9, -1, NoParent, false)

	assert.Equal(t, uint32(1), epoch)
	assert.Equal(t, 9, p.Size())
	for id := 0; id < 9; id++ {
		assert.Equal(t, -1.0, p.Distance(id))
	}
}

func TestPool_InvalidSizePanics(t *testing.T) {
	p := NewPool()

	assert.Panics(t, func() { p.Initialize(0, 0, NoParent, false) })
	assert.Panics(t, func() { p.Initialize(-3, 0, NoParent, false) })
}

func TestPool_OutOfRangePanics(t *testing.T) {
	p := NewPool()
	p.Initialize(3, 0, NoParent, false)

	assert.Panics(t, func() { p.Distance(3) })
	assert.Panics(t, func() { p.SetParent(-1, 0) })
}

func TestPool_SaveLoadContext(t *testing.T) {
	p := NewPool()
	p.Initialize(6, math.Inf(1), NoParent, false)
	p.SetDistance(0, 0)
	p.SetDistance(4, 2.5)
	p.SetParent(4, 0)

	outer := p.SaveContext()
	assert.Equal(t, 6, outer.Size())
	assert.Equal(t, 0, p.Size())

	// Nested search on the same pool with the same node-space size.
	p.Initialize(6, math.Inf(1), NoParent, false)
	p.SetDistance(4, 99)
	p.SetParent(4, 5)
	inner := p.SaveContext()

	p.LoadContext(outer)
	assert.Equal(t, 2.5, p.Distance(4))
	assert.Equal(t, 0, p.Parent(4))
	assert.Equal(t, 0.0, p.Distance(0))

	p.LoadContext(inner)
	assert.Equal(t, 99.0, p.Distance(4))
	assert.Equal(t, 5, p.Parent(4))
}

func TestVersioned_WrapReallocatesStamps(t *testing.T) {
	var v Versioned[int]
	v.wrapAt = 3

	require.Equal(t, uint32(1), v.Reset(4, -1))
	v.Set(0, 10)
	require.Equal(t, uint32(2), v.Reset(4, -1))
	v.Set(1, 20)

	// Epoch 3 hits the sentinel: stamps are rebuilt and the epoch restarts.
	assert.Equal(t, uint32(1), v.Reset(4, -1))
	assert.Equal(t, 4, v.Len())
	for i := 0; i < 4; i++ {
		assert.Equal(t, -1, v.Get(i), "slot %d", i)
		assert.False(t, v.Written(i))
	}
}

func TestVersioned_Touch(t *testing.T) {
	var v Versioned[[2]int]
	v.Reset(2, [2]int{1, 2})

	slot := v.Touch(1)
	assert.Equal(t, [2]int{1, 2}, *slot)
	slot[0] = 5

	assert.Equal(t, [2]int{5, 2}, v.Get(1))
	assert.Equal(t, [2]int{1, 2}, v.Get(0))
	assert.Equal(t, [2]int{1, 2}, v.Default())
}
