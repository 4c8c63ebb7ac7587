// Package memory provides epoch-versioned scratch storage for repeated searches.
//
// This package contains:
//   - Versioned: a generic fixed-size slot array that can be "cleared" in O(1)
//   - Pool: per-node search state (distance, parent, visited) built on Versioned
//   - Context: a detachable capture of a Pool's backing storage
//
// # Epochs
//
// Every slot carries a stamp recording the epoch in which it was last written.
// A slot whose stamp differs from the current epoch reads as the configured
// default. Starting a new search therefore only increments the epoch; untouched
// slots are never cleared eagerly. When the epoch counter reaches its wrap
// sentinel, only the stamp array is reallocated and the epoch restarts at 1.
//
// # Thread Safety
//
// Nothing in this package is thread-safe. A Pool belongs to exactly one running
// search at a time. Nested searches must use a second Pool, or detach the outer
// state with SaveContext and reattach it with LoadContext.
//
// # Example
//
//	pool := memory.NewPool()
//	pool.Initialize(n, math.Inf(1), memory.NoParent, false)
//	pool.SetDistance(start, 0)
//	// ... search ...
//	pool.Initialize(n, math.Inf(1), memory.NoParent, false) // O(1) reset
package memory

import (
	"fmt"
	"math"
)

// =============================================================================
// Versioned Slots
// =============================================================================

// wrapEpoch is the epoch value at which stamps are reallocated.
const wrapEpoch = math.MaxUint32

// Versioned is a fixed-size array of T whose contents can be discarded in O(1).
//
// The zero value is an empty array; call Reset before use.
type Versioned[T any] struct {
	values []T
	stamps []uint32
	epoch  uint32
	def    T

	// wrapAt overrides wrapEpoch when non-zero.
	wrapAt uint32
}

// Reset prepares the array for a new epoch of size slots, all reading as def.
//
// If size equals the current length this is O(1). Otherwise every backing
// slice is reallocated and the epoch restarts at 1. Reset panics if size is not
// positive.
func (v *Versioned[T]) Reset(size int, def T) uint32 {
	if size <= 0 {
		panic(fmt.Sprintf("memory: invalid slot count %d", size))
	}
	v.def = def

	if size != len(v.values) {
		v.values = make([]T, size)
		v.stamps = make([]uint32, size)
		v.epoch = 1
		return v.epoch
	}

	v.epoch++
	if v.epoch >= v.limit() {
		v.stamps = make([]uint32, size)
		v.epoch = 1
	}
	return v.epoch
}

func (v *Versioned[T]) limit() uint32 {
	if v.wrapAt != 0 {
		return v.wrapAt
	}
	return wrapEpoch
}

// Get returns the value written to slot i in the current epoch, or the default.
func (v *Versioned[T]) Get(i int) T {
	if v.stamps[i] != v.epoch {
		return v.def
	}
	return v.values[i]
}

// Set writes x to slot i.
func (v *Versioned[T]) Set(i int, x T) {
	v.values[i] = x
	v.stamps[i] = v.epoch
}

// Touch returns a pointer to slot i, first filling it with the default if it
// has not been written in the current epoch. The pointer is valid until the
// next Reset.
func (v *Versioned[T]) Touch(i int) *T {
	if v.stamps[i] != v.epoch {
		v.values[i] = v.def
		v.stamps[i] = v.epoch
	}
	return &v.values[i]
}

// Written reports whether slot i was written in the current epoch.
func (v *Versioned[T]) Written(i int) bool {
	return v.stamps[i] == v.epoch
}

// Len returns the number of slots.
func (v *Versioned[T]) Len() int {
	return len(v.values)
}

// Epoch returns the current epoch. Zero means the array was never reset.
func (v *Versioned[T]) Epoch() uint32 {
	return v.epoch
}

// Default returns the value stale slots read as.
func (v *Versioned[T]) Default() T {
	return v.def
}
