package expand

import (
	"anyangle/services/pathfinder-svc/internal/grid"
	"anyangle/services/pathfinder-svc/internal/memory"
	"anyangle/services/pathfinder-svc/internal/search"
)

const noJump = -1

// JumpPoints generates jump-point search successors on grid vertices.
//
// Straight jumps stop at vertices with a forced neighbour, diagonal jumps stop
// where a straight jump would. Every jump stops at the goal. Successor
// directions are pruned by the direction the node was reached from.
//
// A JumpPoints is bound to one goal and is cheap to create per query.
type JumpPoints struct {
	g            *grid.Grid
	goalX, goalY int
}

var _ search.SuccessorGenerator = (*JumpPoints)(nil)

// NewJumpPoints creates a generator that stops jumps at goal.
func NewJumpPoints(g *grid.Grid, goal int) *JumpPoints {
	return &JumpPoints{g: g, goalX: g.X(goal), goalY: g.Y(goal)}
}

type direction struct{ dx, dy int }

// Expand appends the jump points reachable from node. Weights are octile
// distances.
func (j *JumpPoints) Expand(dst []search.Edge, node, parent int) []search.Edge {
	g := j.g
	x, y := g.X(node), g.Y(node)

	var buf [8]direction
	for _, d := range j.directions(buf[:0], x, y, parent) {
		to := j.jump(x, y, d.dx, d.dy)
		if to == noJump {
			continue
		}
		dst = append(dst, search.Edge{
			To:     to,
			Weight: g.OctileDistance(x, y, g.X(to), g.Y(to)),
		})
	}
	return dst
}

// directions returns the pruned search directions at (cx, cy).
func (j *JumpPoints) directions(dirs []direction, cx, cy, parent int) []direction {
	g := j.g
	blocked := g.IsBlocked
	add := func(dx, dy int) { dirs = append(dirs, direction{dx, dy}) }

	if parent == memory.NoParent {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				px, py := cx+dx, cy+dy
				if g.IsValidCoordinate(px, py) && g.NeighbourLineOfSight(cx, cy, px, py) {
					add(dx, dy)
				}
			}
		}
		return dirs
	}

	dirX := sign(cx - g.X(parent))
	dirY := sign(cy - g.Y(parent))

	switch {
	case dirX < 0 && dirY < 0:
		if !blocked(cx-1, cy-1) {
			add(-1, -1)
			add(-1, 0)
			add(0, -1)
		} else {
			if !blocked(cx-1, cy) {
				add(-1, 0)
			}
			if !blocked(cx, cy-1) {
				add(0, -1)
			}
		}
	case dirX < 0 && dirY > 0:
		if !blocked(cx-1, cy) {
			add(-1, 1)
			add(-1, 0)
			add(0, 1)
		} else {
			if !blocked(cx-1, cy-1) {
				add(-1, 0)
			}
			if !blocked(cx, cy) {
				add(0, 1)
			}
		}
	case dirX < 0:
		if blocked(cx, cy) {
			add(-1, 1)
			add(0, 1)
			add(-1, 0)
		} else {
			add(-1, -1)
			add(0, -1)
			add(-1, 0)
		}
	case dirX > 0 && dirY < 0:
		if !blocked(cx, cy-1) {
			add(1, -1)
			add(1, 0)
			add(0, -1)
		} else {
			if !blocked(cx, cy) {
				add(1, 0)
			}
			if !blocked(cx-1, cy-1) {
				add(0, -1)
			}
		}
	case dirX > 0 && dirY > 0:
		if !blocked(cx, cy) {
			add(1, 1)
			add(1, 0)
			add(0, 1)
		} else {
			if !blocked(cx, cy-1) {
				add(1, 0)
			}
			if !blocked(cx-1, cy) {
				add(0, 1)
			}
		}
	case dirX > 0:
		if blocked(cx-1, cy) {
			add(1, 1)
			add(0, 1)
			add(1, 0)
		} else {
			add(1, -1)
			add(0, -1)
			add(1, 0)
		}
	case dirY < 0:
		if blocked(cx, cy) {
			add(1, -1)
			add(1, 0)
			add(0, -1)
		} else {
			add(-1, -1)
			add(-1, 0)
			add(0, -1)
		}
	default:
		if blocked(cx, cy-1) {
			add(1, 1)
			add(1, 0)
			add(0, 1)
		} else {
			add(-1, 1)
			add(-1, 0)
			add(0, 1)
		}
	}
	return dirs
}

func (j *JumpPoints) jump(x, y, dx, dy int) int {
	switch {
	case dx < 0 && dy < 0:
		return j.jumpDiagonal(x, y, -1, -1, 0, 0)
	case dx < 0 && dy > 0:
		return j.jumpDiagonal(x, y, -1, 1, 0, -1)
	case dx > 0 && dy < 0:
		return j.jumpDiagonal(x, y, 1, -1, -1, 0)
	case dx > 0 && dy > 0:
		return j.jumpDiagonal(x, y, 1, 1, -1, -1)
	case dx < 0:
		return j.jumpLeft(x, y)
	case dx > 0:
		return j.jumpRight(x, y)
	case dy < 0:
		return j.jumpDown(x, y)
	default:
		return j.jumpUp(x, y)
	}
}

// jumpDiagonal steps by (dx, dy) while the tile at offset (ox, oy) from the
// new vertex is free. Diagonal moves cannot be forced on vertices, so the
// jump only stops at the goal or where a straight jump finds something.
func (j *JumpPoints) jumpDiagonal(x, y, dx, dy, ox, oy int) int {
	for {
		x += dx
		y += dy
		if j.g.IsBlocked(x+ox, y+oy) {
			return noJump
		}
		if j.isGoal(x, y) {
			return j.g.ToIndex(x, y)
		}
		if j.straight(x, y, dx, 0) != noJump || j.straight(x, y, 0, dy) != noJump {
			return j.g.ToIndex(x, y)
		}
	}
}

func (j *JumpPoints) straight(x, y, dx, dy int) int {
	switch {
	case dx < 0:
		return j.jumpLeft(x, y)
	case dx > 0:
		return j.jumpRight(x, y)
	case dy < 0:
		return j.jumpDown(x, y)
	default:
		return j.jumpUp(x, y)
	}
}

func (j *JumpPoints) jumpLeft(x, y int) int {
	blocked := j.g.IsBlocked
	for {
		x--
		if blocked(x, y) {
			if blocked(x, y-1) {
				return noJump
			}
			if !blocked(x-1, y) {
				return j.g.ToIndex(x, y)
			}
		}
		if blocked(x, y-1) && !blocked(x-1, y-1) {
			return j.g.ToIndex(x, y)
		}
		if j.isGoal(x, y) {
			return j.g.ToIndex(x, y)
		}
	}
}

func (j *JumpPoints) jumpRight(x, y int) int {
	blocked := j.g.IsBlocked
	for {
		x++
		if blocked(x-1, y) {
			if blocked(x-1, y-1) {
				return noJump
			}
			if !blocked(x, y) {
				return j.g.ToIndex(x, y)
			}
		}
		if blocked(x-1, y-1) && !blocked(x, y-1) {
			return j.g.ToIndex(x, y)
		}
		if j.isGoal(x, y) {
			return j.g.ToIndex(x, y)
		}
	}
}

func (j *JumpPoints) jumpDown(x, y int) int {
	blocked := j.g.IsBlocked
	for {
		y--
		if blocked(x, y) {
			if blocked(x-1, y) {
				return noJump
			}
			if !blocked(x, y-1) {
				return j.g.ToIndex(x, y)
			}
		}
		if blocked(x-1, y) && !blocked(x-1, y-1) {
			return j.g.ToIndex(x, y)
		}
		if j.isGoal(x, y) {
			return j.g.ToIndex(x, y)
		}
	}
}

func (j *JumpPoints) jumpUp(x, y int) int {
	blocked := j.g.IsBlocked
	for {
		y++
		if blocked(x, y-1) {
			if blocked(x-1, y-1) {
				return noJump
			}
			if !blocked(x, y) {
				return j.g.ToIndex(x, y)
			}
		}
		if blocked(x-1, y-1) && !blocked(x-1, y) {
			return j.g.ToIndex(x, y)
		}
		if j.isGoal(x, y) {
			return j.g.ToIndex(x, y)
		}
	}
}

func (j *JumpPoints) isGoal(x, y int) bool {
	return x == j.goalX && y == j.goalY
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
