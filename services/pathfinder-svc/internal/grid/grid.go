// Package grid provides the tile map that any-angle searches run on.
//
// A Grid of SizeX x SizeY square tiles has (SizeX+1) x (SizeY+1) vertices
// placed on tile corners. Searches move between vertices; tiles are either
// free or blocked. Vertex (x, y) is the top-left corner of tile (x, y).
//
// # Conventions
//
//   - Tiles outside the map are blocked.
//   - Vertex ids are dense: ToIndex(x, y) = y*(SizeX+1) + x.
//   - A segment may run along the shared edge of a blocked and a free tile,
//     and may pass diagonally between two blocked tiles that only touch at a
//     corner. It may not run between two blocked tiles that share an edge.
//
// # Thread Safety
//
// A Grid is safe for concurrent reads. Mutating methods must not run
// concurrently with anything else.
package grid

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Standard errors
var (
	ErrEmptyGrid   = errors.New("grid has no rows")
	ErrRaggedGrid  = errors.New("grid rows have different lengths")
	ErrInvalidTile = errors.New("invalid tile character")
)

// Grid is a rectangular tile map.
type Grid struct {
	SizeX int
	SizeY int

	tiles *bitset.BitSet
}

// New creates an open grid. It panics if either dimension is not positive.
func New(sizeX, sizeY int) *Grid {
	if sizeX <= 0 || sizeY <= 0 {
		panic(fmt.Sprintf("grid: invalid size %dx%d", sizeX, sizeY))
	}
	return &Grid{
		SizeX: sizeX,
		SizeY: sizeY,
		tiles: bitset.New(uint(sizeX * sizeY)),
	}
}

// Parse builds a grid from text rows, one character per tile.
//
// '#', 'X' and '@' are blocked; '.', ' ' and '0' are free; '1' is blocked.
// Row i describes tiles with y = i.
func Parse(rows []string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	width := len(rows[0])
	g := New(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d tiles, want %d", ErrRaggedGrid, y, len(row), width)
		}
		for x := 0; x < width; x++ {
			switch row[x] {
			case '#', 'X', '@', '1':
				g.SetBlocked(x, y, true)
			case '.', ' ', '0':
			default:
				return nil, fmt.Errorf("%w: %q at (%d,%d)", ErrInvalidTile, row[x], x, y)
			}
		}
	}
	return g, nil
}

// String renders the grid in the format accepted by Parse.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.SizeX + 1) * g.SizeY)
	for y := 0; y < g.SizeY; y++ {
		for x := 0; x < g.SizeX; x++ {
			if g.IsBlocked(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// =============================================================================
// Tiles
// =============================================================================

// SetBlocked marks tile (x, y). It panics if the tile is outside the map.
func (g *Grid) SetBlocked(x, y int, blocked bool) {
	if !g.IsValidBlock(x, y) {
		panic(fmt.Sprintf("grid: tile (%d,%d) outside %dx%d", x, y, g.SizeX, g.SizeY))
	}
	g.tiles.SetTo(uint(y*g.SizeX+x), blocked)
}

// IsBlocked reports whether tile (x, y) is blocked. Tiles outside the map are
// blocked.
func (g *Grid) IsBlocked(x, y int) bool {
	if x < 0 || y < 0 || x >= g.SizeX || y >= g.SizeY {
		return true
	}
	return g.tiles.Test(uint(y*g.SizeX + x))
}

// IsValidBlock reports whether (x, y) names a tile inside the map.
func (g *Grid) IsValidBlock(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.SizeX && y < g.SizeY
}

// IsValidCoordinate reports whether (x, y) names a vertex of the map.
func (g *Grid) IsValidCoordinate(x, y int) bool {
	return x >= 0 && y >= 0 && x <= g.SizeX && y <= g.SizeY
}

// BlockedCount returns the number of blocked tiles.
func (g *Grid) BlockedCount() int {
	return int(g.tiles.Count())
}

// BlockedRatio returns the fraction of blocked tiles.
func (g *Grid) BlockedRatio() float64 {
	return float64(g.BlockedCount()) / float64(g.SizeX*g.SizeY)
}

// =============================================================================
// Vertex indexing
// =============================================================================

// NodeCount returns the number of vertices.
func (g *Grid) NodeCount() int {
	return (g.SizeX + 1) * (g.SizeY + 1)
}

// ToIndex returns the dense id of vertex (x, y).
func (g *Grid) ToIndex(x, y int) int {
	return y*(g.SizeX+1) + x
}

// X returns the x coordinate of vertex id.
func (g *Grid) X(id int) int {
	return id % (g.SizeX + 1)
}

// Y returns the y coordinate of vertex id.
func (g *Grid) Y(id int) int {
	return id / (g.SizeX + 1)
}

// Hash returns a stable digest of the grid's dimensions and tiles.
func (g *Grid) Hash() string {
	h := sha256.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(g.SizeX))
	binary.LittleEndian.PutUint64(dims[8:], uint64(g.SizeY))
	h.Write(dims[:])

	// Row-major tile order is independent of the bitset's word layout.
	var word [8]byte
	for i, next := g.tiles.NextSet(0); next; i, next = g.tiles.NextSet(i + 1) {
		binary.LittleEndian.PutUint64(word[:], uint64(i))
		h.Write(word[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{
		SizeX: g.SizeX,
		SizeY: g.SizeY,
		tiles: g.tiles.Clone(),
	}
}
