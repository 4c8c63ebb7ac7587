package grid

import "github.com/eapache/queue"

// Unreachable labels a vertex enclosed by blocked tiles on every side.
const Unreachable = -1

// Components labels vertices connected through 8-neighbour moves.
//
// Two vertices with the same non-negative label can reach each other; the
// searches in this module never find a path between different labels.
type Components struct {
	labels []int32
	count  int
}

// Components computes connectivity labels with a breadth-first flood fill.
// The cost is O(NodeCount) and the result is immutable.
func (g *Grid) Components() *Components {
	n := g.NodeCount()
	labels := make([]int32, n)
	for i := range labels {
		labels[i] = Unreachable
	}

	frontier := queue.New()
	count := 0
	for start := 0; start < n; start++ {
		if labels[start] != Unreachable {
			continue
		}
		sx, sy := g.X(start), g.Y(start)
		if !g.IsUnblockedCoordinate(sx, sy) {
			continue
		}

		label := int32(count)
		count++
		labels[start] = label
		frontier.Add(start)

		for frontier.Length() > 0 {
			current := frontier.Remove().(int)
			cx, cy := g.X(current), g.Y(current)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := cx+dx, cy+dy
					if !g.IsValidCoordinate(nx, ny) {
						continue
					}
					next := g.ToIndex(nx, ny)
					if labels[next] != Unreachable || !g.NeighbourLineOfSight(cx, cy, nx, ny) {
						continue
					}
					labels[next] = label
					frontier.Add(next)
				}
			}
		}
	}

	return &Components{labels: labels, count: count}
}

// Label returns the component of vertex id, or Unreachable.
func (c *Components) Label(id int) int {
	return int(c.labels[id])
}

// Connected reports whether vertices a and b lie in the same component.
// A vertex is always connected to itself.
func (c *Components) Connected(a, b int) bool {
	if a == b {
		return true
	}
	la := c.labels[a]
	return la != Unreachable && la == c.labels[b]
}

// Count returns the number of components.
func (c *Components) Count() int {
	return c.count
}
