// Package expand adapts a grid.Grid to the search engine.
//
// It provides the grid node-space and the successor generators used by the
// algorithm variants:
//   - Neighbours: the eight adjacent vertices
//   - JumpPoints: jump-point search successors
//   - VisibilityGraph: mutually visible outer corners
package expand

import (
	"anyangle/services/pathfinder-svc/internal/grid"
	"anyangle/services/pathfinder-svc/internal/search"
)

// GridSpace exposes grid vertices as a search.Space. Node ids are grid vertex
// indices.
type GridSpace struct {
	g *grid.Grid
}

var _ search.Space = (*GridSpace)(nil)

// NewGridSpace wraps g.
func NewGridSpace(g *grid.Grid) *GridSpace {
	return &GridSpace{g: g}
}

// Grid returns the wrapped grid.
func (s *GridSpace) Grid() *grid.Grid { return s.g }

// Size returns the number of vertices.
func (s *GridSpace) Size() int { return s.g.NodeCount() }

// Coord returns the coordinates of vertex id.
func (s *GridSpace) Coord(id int) (int, int) { return s.g.X(id), s.g.Y(id) }

// LineOfSight reports whether vertices a and b see each other.
func (s *GridSpace) LineOfSight(a, b int) bool {
	return s.g.LineOfSight(s.g.X(a), s.g.Y(a), s.g.X(b), s.g.Y(b))
}

// Distance returns the Euclidean distance between vertices a and b.
func (s *GridSpace) Distance(a, b int) float64 {
	return s.g.Distance(s.g.X(a), s.g.Y(a), s.g.X(b), s.g.Y(b))
}

// EuclideanTo returns a heuristic measuring straight-line distance to goal.
func (s *GridSpace) EuclideanTo(goal int) search.Heuristic {
	gx, gy := s.g.X(goal), s.g.Y(goal)
	return func(node int) float64 {
		return s.g.Distance(s.g.X(node), s.g.Y(node), gx, gy)
	}
}

// OctileTo returns a heuristic measuring octile distance to goal.
func (s *GridSpace) OctileTo(goal int) search.Heuristic {
	gx, gy := s.g.X(goal), s.g.Y(goal)
	return func(node int) float64 {
		return s.g.OctileDistance(s.g.X(node), s.g.Y(node), gx, gy)
	}
}

// =============================================================================
// Neighbours
// =============================================================================

// Neighbours generates the up to eight adjacent vertices reachable through
// neighbour line of sight.
type Neighbours struct {
	g *grid.Grid
}

var _ search.SuccessorGenerator = (*Neighbours)(nil)

// NewNeighbours creates a neighbour generator for g.
func NewNeighbours(g *grid.Grid) *Neighbours {
	return &Neighbours{g: g}
}

// Expand appends the neighbours of node. parent is ignored.
func (n *Neighbours) Expand(dst []search.Edge, node, _ int) []search.Edge {
	g := n.g
	x, y := g.X(node), g.Y(node)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if !g.IsValidCoordinate(nx, ny) || !g.NeighbourLineOfSight(x, y, nx, ny) {
				continue
			}
			dst = append(dst, search.Edge{To: g.ToIndex(nx, ny), Weight: grid.Euclidean(dx, dy)})
		}
	}
	return dst
}
