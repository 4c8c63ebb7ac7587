package grid

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// centerBlocked is a 3x3 map with only the middle tile blocked.
func centerBlocked(t *testing.T) *Grid {
	t.Helper()
	g, err := Parse([]string{
		"...",
		".#.",
		"...",
	})
	require.NoError(t, err)
	return g
}

// ============================================================
// Construction
// ============================================================

func TestParse(t *testing.T) {
	g, err := Parse([]string{
		"..#",
		"X..",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, g.SizeX)
	assert.Equal(t, 2, g.SizeY)
	assert.True(t, g.IsBlocked(2, 0))
	assert.True(t, g.IsBlocked(0, 1))
	assert.False(t, g.IsBlocked(1, 1))
	assert.Equal(t, 2, g.BlockedCount())
	assert.InDelta(t, 2.0/6.0, g.BlockedRatio(), 1e-12)
	assert.Equal(t, "..#\n#..\n", g.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want error
	}{
		{"no rows", nil, ErrEmptyGrid},
		{"empty row", []string{""}, ErrEmptyGrid},
		{"ragged", []string{"...", ".."}, ErrRaggedGrid},
		{"bad char", []string{".?."}, ErrInvalidTile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.rows)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_InvalidSizePanics(t *testing.T) {
	assert.Panics(t, func() { New(0, 3) })
	assert.Panics(t, func() { New(3, -1) })
}

func TestIsBlocked_OutsideMap(t *testing.T) {
	g := New(2, 2)

	assert.True(t, g.IsBlocked(-1, 0))
	assert.True(t, g.IsBlocked(0, -1))
	assert.True(t, g.IsBlocked(2, 0))
	assert.True(t, g.IsBlocked(0, 2))
	assert.False(t, g.IsBlocked(1, 1))
	assert.Panics(t, func() { g.SetBlocked(2, 0, true) })
}

func TestIndexing(t *testing.T) {
	g := New(4, 3)

	assert.Equal(t, 20, g.NodeCount())
	for y := 0; y <= 3; y++ {
		for x := 0; x <= 4; x++ {
			id := g.ToIndex(x, y)
			assert.Equal(t, x, g.X(id))
			assert.Equal(t, y, g.Y(id))
		}
	}
	assert.True(t, g.IsValidCoordinate(4, 3))
	assert.False(t, g.IsValidCoordinate(5, 3))
	assert.False(t, g.IsValidBlock(4, 0))
}

func TestHash(t *testing.T) {
	a := Generate(20, 15, 0.3, 7)
	b := Generate(20, 15, 0.3, 7)
	c := a.Clone()
	c.SetBlocked(0, 0, !c.IsBlocked(0, 0))

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.NotEqual(t, New(2, 3).Hash(), New(3, 2).Hash())
	assert.Len(t, a.Hash(), 64)
}

// ============================================================
// Line of sight
// ============================================================

func TestLineOfSight(t *testing.T) {
	g := centerBlocked(t)

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           bool
	}{
		{"same vertex", 1, 1, 1, 1, true},
		{"along free edge above block", 0, 1, 3, 1, true},
		{"along free edge left of block", 1, 0, 1, 3, true},
		{"diagonal through block", 0, 0, 2, 2, false},
		{"anti-diagonal around block", 0, 2, 2, 0, true},
		{"shallow line through block", 0, 1, 3, 2, false},
		{"border row", 0, 0, 3, 0, true},
		{"steep line beside block", 0, 0, 1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.LineOfSight(tt.x1, tt.y1, tt.x2, tt.y2))
			assert.Equal(t, tt.want, g.LineOfSight(tt.x2, tt.y2, tt.x1, tt.y1))
		})
	}
}

func TestLineOfSight_BetweenEdgeAdjacentBlocks(t *testing.T) {
	g, err := Parse([]string{
		"....",
		"##..",
		"....",
	})
	require.NoError(t, err)

	// Edges with blocked tiles on both sides are not walkable.
	assert.False(t, g.LineOfSight(1, 1, 1, 2))
	assert.False(t, g.LineOfSight(0, 2, 0, 1))

	// Edges with a free tile on one side are.
	assert.True(t, g.LineOfSight(0, 1, 2, 1))
	assert.True(t, g.LineOfSight(0, 2, 4, 2))
	assert.True(t, g.LineOfSight(0, 1, 4, 1))
}

func TestLineOfSight_DiagonalSqueeze(t *testing.T) {
	g, err := Parse([]string{
		"#.",
		".#",
	})
	require.NoError(t, err)

	// Diagonally touching blocks leave the anti-diagonal open.
	assert.True(t, g.LineOfSight(0, 2, 2, 0))
	assert.False(t, g.LineOfSight(0, 0, 2, 2))
}

func TestLineOfSight_Symmetric(t *testing.T) {
	g := Generate(12, 12, 0.25, 42)

	for a := 0; a < g.NodeCount(); a++ {
		for b := a + 1; b < g.NodeCount(); b++ {
			x1, y1, x2, y2 := g.X(a), g.Y(a), g.X(b), g.Y(b)
			require.Equal(t, g.LineOfSight(x1, y1, x2, y2), g.LineOfSight(x2, y2, x1, y1),
				"(%d,%d)-(%d,%d)", x1, y1, x2, y2)
		}
	}
}

func TestNeighbourLineOfSight_MatchesLineOfSight(t *testing.T) {
	g := Generate(10, 10, 0.35, 3)

	for y := 0; y <= g.SizeY; y++ {
		for x := 0; x <= g.SizeX; x++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if (dx == 0 && dy == 0) || !g.IsValidCoordinate(nx, ny) {
						continue
					}
					require.Equal(t, g.LineOfSight(x, y, nx, ny), g.NeighbourLineOfSight(x, y, nx, ny),
						"(%d,%d)-(%d,%d)", x, y, nx, ny)
				}
			}
		}
	}
}

// ============================================================
// Geometry
// ============================================================

func TestDistance(t *testing.T) {
	g := New(10, 10)

	assert.Equal(t, 3.0, g.Distance(1, 1, 4, 1))
	assert.Equal(t, 2.0, g.Distance(1, 3, 1, 1))
	assert.Equal(t, 4*math.Sqrt2, g.Distance(0, 0, 4, 4))
	assert.Equal(t, 2*math.Sqrt2, g.Distance(3, 0, 1, 2))
	assert.InDelta(t, 5.0, g.Distance(0, 0, 3, 4), 1e-12)
}

func TestOctileDistance(t *testing.T) {
	g := New(10, 10)

	assert.InDelta(t, 2*math.Sqrt2+1, g.OctileDistance(0, 0, 3, 2), 1e-12)
	assert.InDelta(t, 2*math.Sqrt2+1, g.OctileDistance(3, 2, 0, 0), 1e-12)
	assert.Equal(t, 5.0, g.OctileDistance(0, 0, 5, 0))
	assert.GreaterOrEqual(t, g.OctileDistance(0, 0, 7, 3), g.Distance(0, 0, 7, 3))
}

func TestIsOuterCorner(t *testing.T) {
	g := centerBlocked(t)

	assert.True(t, g.IsOuterCorner(1, 1))
	assert.True(t, g.IsOuterCorner(2, 2))
	assert.False(t, g.IsOuterCorner(0, 0))
	assert.False(t, g.IsOuterCorner(1, 0))

	open := New(3, 3)
	assert.False(t, open.IsOuterCorner(1, 1))
}

func TestIsTaut(t *testing.T) {
	open := New(4, 4)
	assert.True(t, open.IsTaut(0, 0, 1, 1, 2, 2))
	assert.False(t, open.IsTaut(0, 0, 1, 1, 2, 1))
	assert.False(t, open.IsTaut(0, 0, 1, 1, 0, 2))

	g, err := Parse([]string{
		".#..",
		"....",
		"....",
		"....",
	})
	require.NoError(t, err)

	// Turning around the blocked tile up-right of the bend is taut.
	assert.True(t, g.IsTaut(0, 0, 1, 1, 2, 1))
	assert.Panics(t, func() { g.IsTaut(1, 1, 1, 1, 2, 2) })
}

// ============================================================
// Components and generation
// ============================================================

func TestComponents(t *testing.T) {
	g, err := Parse([]string{"..#."})
	require.NoError(t, err)

	c := g.Components()

	assert.Equal(t, 2, c.Count())
	assert.True(t, c.Connected(g.ToIndex(0, 0), g.ToIndex(2, 1)))
	assert.False(t, c.Connected(g.ToIndex(0, 0), g.ToIndex(4, 1)))
	assert.True(t, c.Connected(g.ToIndex(3, 0), g.ToIndex(4, 1)))
}

func TestComponents_EnclosedVertex(t *testing.T) {
	g, err := Parse([]string{
		"##.",
		"##.",
	})
	require.NoError(t, err)

	c := g.Components()
	enclosed := g.ToIndex(1, 1)

	assert.Equal(t, Unreachable, c.Label(enclosed))
	assert.True(t, c.Connected(enclosed, enclosed))
	assert.False(t, c.Connected(enclosed, g.ToIndex(3, 0)))
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(30, 20, 0.2, 11)
	b := Generate(30, 20, 0.2, 11)
	c := Generate(30, 20, 0.2, 12)

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
	assert.InDelta(t, 0.2, a.BlockedRatio(), 0.08)
}

func TestRandomVertex(t *testing.T) {
	g := Generate(8, 8, 0.4, 5)
	rng := rand.New(rand.NewPCG(1, 1))

	for i := 0; i < 50; i++ {
		x, y, ok := g.RandomVertex(rng)
		require.True(t, ok)
		assert.True(t, g.IsUnblockedCoordinate(x, y))
	}

	full, err := Parse([]string{"##"})
	require.NoError(t, err)
	_, _, ok := full.RandomVertex(rng)
	assert.False(t, ok)
}
