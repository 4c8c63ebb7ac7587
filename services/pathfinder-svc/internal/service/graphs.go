package service

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/services/pathfinder-svc/internal/algorithms"
	"anyangle/services/pathfinder-svc/internal/expand"
	"anyangle/services/pathfinder-svc/internal/grid"
)

// =============================================================================
// Per-grid memo
// =============================================================================

// memo is an LRU of immutable per-grid structures keyed by grid hash.
// Concurrent misses on one key share a single build.
type memo[T any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
	group    singleflight.Group
}

type memoEntry[T any] struct {
	key   string
	value T
}

func newMemo[T any](capacity int) *memo[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &memo[T]{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// get returns the cached value or builds it. The build runs detached from the
// caller's cancellation so a canceled request does not fail the callers
// sharing it; the caller itself stops waiting when ctx is done.
func (m *memo[T]) get(ctx context.Context, key string, build func(ctx context.Context) (T, error)) (T, bool, error) {
	if v, ok := m.lookup(key); ok {
		return v, true, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		v, err := build(detached)
		if err != nil {
			return v, err
		}
		m.store(key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, false, r.Err
		}
		return r.Val.(T), false, nil
	}
}

func (m *memo[T]) lookup(key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		m.order.MoveToFront(elem)
		return elem.Value.(*memoEntry[T]).value, true
	}
	var zero T
	return zero, false
}

func (m *memo[T]) store(key string, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		elem.Value.(*memoEntry[T]).value = v
		m.order.MoveToFront(elem)
		return
	}
	m.items[key] = m.order.PushFront(&memoEntry[T]{key: key, value: v})
	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*memoEntry[T]).key)
	}
}

// Len returns the number of cached entries.
func (m *memo[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// =============================================================================
// Visibility graphs
// =============================================================================

// GraphCache shares visibility graphs between requests on the same grid.
// It implements algorithms.GraphSource.
type GraphCache struct {
	workers int
	metrics *metrics.Metrics
	graphs  *memo[*expand.VisibilityGraph]
}

var _ algorithms.GraphSource = (*GraphCache)(nil)

// NewGraphCache creates a cache holding up to size graphs. Builds use workers
// goroutines, 0 means GOMAXPROCS.
func NewGraphCache(size, workers int, m *metrics.Metrics) *GraphCache {
	return &GraphCache{
		workers: workers,
		metrics: m,
		graphs:  newMemo[*expand.VisibilityGraph](size),
	}
}

// VisibilityGraph returns the graph of g, building it on first use.
func (c *GraphCache) VisibilityGraph(ctx context.Context, g *grid.Grid) (*expand.VisibilityGraph, error) {
	vg, hit, err := c.graphs.get(ctx, g.Hash(), func(ctx context.Context) (*expand.VisibilityGraph, error) {
		start := time.Now()
		vg, err := expand.BuildVisibilityGraph(ctx, g, c.workers)
		if err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		if c.metrics != nil {
			c.metrics.RecordGraphBuild(vg.NodeCount(), elapsed)
		}
		logger.Log.Debug("visibility graph built",
			"nodes", vg.NodeCount(),
			"edges", vg.EdgeCount(),
			"duration", elapsed,
		)
		return vg, nil
	})
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordCache("visibility_graph", hit)
	}
	return vg, nil
}

// Len returns the number of cached graphs.
func (c *GraphCache) Len() int {
	return c.graphs.Len()
}

// =============================================================================
// Connectivity
// =============================================================================

// ComponentIndex shares connectivity labels between requests on the same grid.
type ComponentIndex struct {
	components *memo[*grid.Components]
}

// NewComponentIndex creates an index holding up to size grids.
func NewComponentIndex(size int) *ComponentIndex {
	return &ComponentIndex{components: newMemo[*grid.Components](size)}
}

// Components returns the labels of g, computing them on first use.
func (i *ComponentIndex) Components(ctx context.Context, g *grid.Grid, hash string) (*grid.Components, error) {
	c, _, err := i.components.get(ctx, hash, func(context.Context) (*grid.Components, error) {
		return g.Components(), nil
	})
	return c, err
}

// Len returns the number of cached grids.
func (i *ComponentIndex) Len() int {
	return i.components.Len()
}
