package grid

// =============================================================================
// Line of sight
// =============================================================================

// LineOfSight reports whether the segment between vertices (x1, y1) and
// (x2, y2) avoids every blocked tile. The test is symmetric.
//
// The walk follows the dominant axis one vertex column (or row) at a time,
// checking every tile the segment crosses. Axis-aligned segments are blocked
// only when both tiles along the segment are blocked.
func (g *Grid) LineOfSight(x1, y1, x2, y2 int) bool {
	dx := x2 - x1
	dy := y2 - y1

	signX, signY := 1, 1
	offsetX, offsetY := 0, 0
	if dy < 0 {
		dy = -dy
		signY = -1
		offsetY = -1
	}
	if dx < 0 {
		dx = -dx
		signX = -1
		offsetX = -1
	}

	f := 0
	if dx >= dy {
		for x1 != x2 {
			f += dy
			if f >= dx {
				if g.IsBlocked(x1+offsetX, y1+offsetY) {
					return false
				}
				y1 += signY
				f -= dx
			}
			if f != 0 && g.IsBlocked(x1+offsetX, y1+offsetY) {
				return false
			}
			if dy == 0 && g.IsBlocked(x1+offsetX, y1) && g.IsBlocked(x1+offsetX, y1-1) {
				return false
			}
			x1 += signX
		}
		return true
	}

	for y1 != y2 {
		f += dx
		if f >= dy {
			if g.IsBlocked(x1+offsetX, y1+offsetY) {
				return false
			}
			x1 += signX
			f -= dy
		}
		if f != 0 && g.IsBlocked(x1+offsetX, y1+offsetY) {
			return false
		}
		if dx == 0 && g.IsBlocked(x1, y1+offsetY) && g.IsBlocked(x1-1, y1+offsetY) {
			return false
		}
		y1 += signY
	}
	return true
}

// NeighbourLineOfSight is LineOfSight restricted to a vertex and one of its
// eight immediate neighbours. The two vertices must differ.
func (g *Grid) NeighbourLineOfSight(x1, y1, x2, y2 int) bool {
	switch {
	case x1 == x2:
		top := min(y1, y2)
		return !g.IsBlocked(x1, top) || !g.IsBlocked(x1-1, top)
	case y1 == y2:
		left := min(x1, x2)
		return !g.IsBlocked(left, y1) || !g.IsBlocked(left, y1-1)
	default:
		return !g.IsBlocked(min(x1, x2), min(y1, y2))
	}
}
