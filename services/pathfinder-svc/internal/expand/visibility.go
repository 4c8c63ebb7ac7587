package expand

import (
	"context"
	"runtime"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"anyangle/services/pathfinder-svc/internal/grid"
	"anyangle/services/pathfinder-svc/internal/search"
)

// =============================================================================
// Visibility Graph
// =============================================================================

// VisibilityGraph connects every pair of mutually visible outer corners of a
// grid with a straight edge.
//
// The graph is immutable once built and may be shared by concurrent queries.
// Start and goal vertices are attached per query with Attach, which leaves the
// graph itself untouched.
type VisibilityGraph struct {
	g *grid.Grid

	// vertices maps node -> grid vertex, index maps grid vertex -> node.
	vertices []int
	index    map[int]int
	edges    [][]search.Edge
}

// BuildVisibilityGraph builds the graph of g using up to workers goroutines.
// workers <= 0 means GOMAXPROCS.
//
// Building costs O(V^2) line-of-sight checks for V outer corners.
func BuildVisibilityGraph(ctx context.Context, g *grid.Grid, workers int) (*VisibilityGraph, error) {
	vg := &VisibilityGraph{g: g, index: make(map[int]int)}
	for y := 0; y <= g.SizeY; y++ {
		for x := 0; x <= g.SizeX; x++ {
			if g.IsOuterCorner(x, y) {
				id := g.ToIndex(x, y)
				vg.index[id] = len(vg.vertices)
				vg.vertices = append(vg.vertices, id)
			}
		}
	}

	n := len(vg.vertices)
	upper := make([][]search.Edge, n)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			x1, y1 := g.X(vg.vertices[i]), g.Y(vg.vertices[i])
			for j := i + 1; j < n; j++ {
				x2, y2 := g.X(vg.vertices[j]), g.Y(vg.vertices[j])
				if g.LineOfSight(x1, y1, x2, y2) {
					upper[i] = append(upper[i], search.Edge{To: j, Weight: g.Distance(x1, y1, x2, y2)})
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	vg.edges = make([][]search.Edge, n)
	for i, row := range upper {
		for _, e := range row {
			vg.edges[i] = append(vg.edges[i], e)
			vg.edges[e.To] = append(vg.edges[e.To], search.Edge{To: i, Weight: e.Weight})
		}
	}
	return vg, nil
}

// Grid returns the underlying grid.
func (vg *VisibilityGraph) Grid() *grid.Grid { return vg.g }

// NodeCount returns the number of corner nodes.
func (vg *VisibilityGraph) NodeCount() int { return len(vg.vertices) }

// EdgeCount returns the number of directed edges between corner nodes.
func (vg *VisibilityGraph) EdgeCount() int {
	sum := 0
	for _, row := range vg.edges {
		sum += len(row)
	}
	return sum
}

// =============================================================================
// Attached Query
// =============================================================================

// attached is a start or goal vertex that is not an outer corner.
type attached struct {
	vertex int
	edges  []search.Edge
	seenBy *bitset.BitSet // corner nodes that see this vertex
}

// Attached is a VisibilityGraph extended with the start and goal of one query.
// It implements search.Space and search.SuccessorGenerator.
//
// Node ids below NodeCount of the base graph are corners, the rest are the
// attached start and goal.
type Attached struct {
	vg    *VisibilityGraph
	extra []attached
	start int
	goal  int
}

var (
	_ search.Space              = (*Attached)(nil)
	_ search.SuccessorGenerator = (*Attached)(nil)
)

// Attach adds the start and goal vertices to the graph for one query. Vertices
// that already are corners reuse their node.
func (vg *VisibilityGraph) Attach(start, goal int) *Attached {
	a := &Attached{vg: vg}
	a.start = a.attach(start)
	a.goal = a.attach(goal)
	return a
}

func (a *Attached) attach(vertex int) int {
	if node, ok := a.vg.index[vertex]; ok {
		return node
	}
	base := len(a.vg.vertices)
	for k, ex := range a.extra {
		if ex.vertex == vertex {
			return base + k
		}
	}

	g := a.vg.g
	x1, y1 := g.X(vertex), g.Y(vertex)
	node := base + len(a.extra)
	ex := attached{vertex: vertex, seenBy: bitset.New(uint(base))}
	for i, v := range a.vg.vertices {
		x2, y2 := g.X(v), g.Y(v)
		if g.LineOfSight(x1, y1, x2, y2) {
			ex.edges = append(ex.edges, search.Edge{To: i, Weight: g.Distance(x1, y1, x2, y2)})
			ex.seenBy.Set(uint(i))
		}
	}
	for k := range a.extra {
		other := &a.extra[k]
		x2, y2 := g.X(other.vertex), g.Y(other.vertex)
		if g.LineOfSight(x1, y1, x2, y2) {
			w := g.Distance(x1, y1, x2, y2)
			ex.edges = append(ex.edges, search.Edge{To: base + k, Weight: w})
			other.edges = append(other.edges, search.Edge{To: node, Weight: w})
		}
	}
	a.extra = append(a.extra, ex)
	return node
}

// Start returns the node of the start vertex.
func (a *Attached) Start() int { return a.start }

// Goal returns the node of the goal vertex.
func (a *Attached) Goal() int { return a.goal }

// Vertex returns the grid vertex of node.
func (a *Attached) Vertex(node int) int {
	base := len(a.vg.vertices)
	if node < base {
		return a.vg.vertices[node]
	}
	return a.extra[node-base].vertex
}

// Size returns the number of nodes including attached ones.
func (a *Attached) Size() int { return len(a.vg.vertices) + len(a.extra) }

// Coord returns the grid coordinates of node.
func (a *Attached) Coord(node int) (int, int) {
	v := a.Vertex(node)
	return a.vg.g.X(v), a.vg.g.Y(v)
}

// LineOfSight reports whether nodes u and v see each other on the grid.
func (a *Attached) LineOfSight(u, v int) bool {
	x1, y1 := a.Coord(u)
	x2, y2 := a.Coord(v)
	return a.vg.g.LineOfSight(x1, y1, x2, y2)
}

// Distance returns the Euclidean distance between nodes u and v.
func (a *Attached) Distance(u, v int) float64 {
	x1, y1 := a.Coord(u)
	x2, y2 := a.Coord(v)
	return a.vg.g.Distance(x1, y1, x2, y2)
}

// EuclideanTo returns a heuristic measuring straight-line distance to goal.
func (a *Attached) EuclideanTo(goal int) search.Heuristic {
	return func(node int) float64 { return a.Distance(node, goal) }
}

// Expand appends the visibility edges of node. parent is ignored.
func (a *Attached) Expand(dst []search.Edge, node, _ int) []search.Edge {
	base := len(a.vg.vertices)
	if node >= base {
		return append(dst, a.extra[node-base].edges...)
	}

	dst = append(dst, a.vg.edges[node]...)
	for k := range a.extra {
		ex := &a.extra[k]
		if ex.seenBy.Test(uint(node)) {
			dst = append(dst, search.Edge{To: base + k, Weight: a.Distance(node, base+k)})
		}
	}
	return dst
}
