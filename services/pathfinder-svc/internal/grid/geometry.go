package grid

import "math"

const (
	sqrt2         = math.Sqrt2
	sqrt2MinusOne = math.Sqrt2 - 1
)

// =============================================================================
// Distances
// =============================================================================

// Distance returns the Euclidean distance between two vertices. Axis-aligned
// and diagonal offsets are computed exactly.
func (g *Grid) Distance(x1, y1, x2, y2 int) float64 {
	return Euclidean(x2-x1, y2-y1)
}

// Euclidean returns the length of offset (dx, dy).
func Euclidean(dx, dy int) float64 {
	switch {
	case dy == 0:
		return math.Abs(float64(dx))
	case dx == 0:
		return math.Abs(float64(dy))
	case dx == dy || dx == -dy:
		return sqrt2 * math.Abs(float64(dx))
	}
	return math.Sqrt(float64(dx*dx + dy*dy))
}

// OctileDistance returns the length of the shortest 8-connected path between
// two vertices on an open grid: min*(sqrt2-1) + max.
func (g *Grid) OctileDistance(x1, y1, x2, y2 int) float64 {
	return Octile(x2-x1, y2-y1)
}

// Octile returns the octile length of offset (dx, dy).
func Octile(dx, dy int) float64 {
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	lo, hi := min(dx, dy), max(dx, dy)
	return float64(lo)*sqrt2MinusOne + float64(hi)
}

// =============================================================================
// Corners
// =============================================================================

// TopRightOfBlockedTile reports whether the tile up-left of vertex (x, y) is
// blocked, i.e. the vertex is the bottom-right corner of a blocked tile.
func (g *Grid) TopRightOfBlockedTile(x, y int) bool { return g.IsBlocked(x-1, y-1) }

// TopLeftOfBlockedTile reports whether the tile up-right of vertex (x, y) is blocked.
func (g *Grid) TopLeftOfBlockedTile(x, y int) bool { return g.IsBlocked(x, y-1) }

// BottomRightOfBlockedTile reports whether the tile down-left of vertex (x, y) is blocked.
func (g *Grid) BottomRightOfBlockedTile(x, y int) bool { return g.IsBlocked(x-1, y) }

// BottomLeftOfBlockedTile reports whether the tile down-right of vertex (x, y) is blocked.
func (g *Grid) BottomLeftOfBlockedTile(x, y int) bool { return g.IsBlocked(x, y) }

// IsUnblockedCoordinate reports whether at least one tile touching vertex
// (x, y) is free.
func (g *Grid) IsUnblockedCoordinate(x, y int) bool {
	return !g.TopRightOfBlockedTile(x, y) ||
		!g.TopLeftOfBlockedTile(x, y) ||
		!g.BottomRightOfBlockedTile(x, y) ||
		!g.BottomLeftOfBlockedTile(x, y)
}

// IsOuterCorner reports whether a taut path may bend at vertex (x, y): some
// touching tile is blocked, and a pair of diagonally opposite tiles is free.
//
// A vertex between two diagonally touching blocked tiles counts as a corner.
func (g *Grid) IsOuterCorner(x, y int) bool {
	a := g.IsBlocked(x-1, y-1)
	b := g.IsBlocked(x, y-1)
	c := g.IsBlocked(x, y)
	d := g.IsBlocked(x-1, y)
	return ((!a && !c) || (!d && !b)) && (a || b || c || d)
}

// =============================================================================
// Tautness
// =============================================================================

// IsTaut reports whether the path (x1,y1) -> (x2,y2) -> (x3,y3) cannot be
// shortened locally at (x2,y2): either it is straight, or it turns around the
// blocked tile at the bend. The first two vertices must differ.
func (g *Grid) IsTaut(x1, y1, x2, y2, x3, y3 int) bool {
	// cross < 0: the second leg turns one way, > 0: the other, 0: collinear.
	cross := (y2-y1)*(x3-x2) - (y3-y2)*(x2-x1)

	switch {
	case x1 < x2 && y1 < y2:
		if x3 < x2 || y3 < y2 {
			return false
		}
		return g.bend(cross, g.BottomRightOfBlockedTile, g.TopLeftOfBlockedTile, x2, y2)
	case x1 < x2 && y2 < y1:
		if x3 < x2 || y3 > y2 {
			return false
		}
		return g.bend(cross, g.BottomLeftOfBlockedTile, g.TopRightOfBlockedTile, x2, y2)
	case x1 < x2:
		if x3 < x2 {
			return false
		}
		return g.bend(y3-y2, g.TopRightOfBlockedTile, g.BottomRightOfBlockedTile, x2, y2)
	case x2 < x1 && y1 < y2:
		if x3 > x2 || y3 < y2 {
			return false
		}
		return g.bend(cross, g.TopRightOfBlockedTile, g.BottomLeftOfBlockedTile, x2, y2)
	case x2 < x1 && y2 < y1:
		if x3 > x2 || y3 > y2 {
			return false
		}
		return g.bend(cross, g.TopLeftOfBlockedTile, g.BottomRightOfBlockedTile, x2, y2)
	case x2 < x1:
		if x3 > x2 {
			return false
		}
		return g.bend(y3-y2, g.TopLeftOfBlockedTile, g.BottomLeftOfBlockedTile, x2, y2)
	case y1 < y2:
		if y3 < y2 {
			return false
		}
		return g.bend(x3-x2, g.TopRightOfBlockedTile, g.TopLeftOfBlockedTile, x2, y2)
	case y2 < y1:
		if y3 > y2 {
			return false
		}
		return g.bend(x3-x2, g.BottomRightOfBlockedTile, g.BottomLeftOfBlockedTile, x2, y2)
	}
	panic("grid: IsTaut on coincident vertices")
}

// bend picks the corner test for a turn: negative turns use neg, positive
// turns use pos, a straight continuation is always taut.
func (g *Grid) bend(turn int, neg, pos func(x, y int) bool, x, y int) bool {
	switch {
	case turn < 0:
		return neg(x, y)
	case turn > 0:
		return pos(x, y)
	}
	return true
}
