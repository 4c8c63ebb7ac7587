package grid

import "math/rand/v2"

// Generate builds a sizeX x sizeY grid where each tile is blocked with
// probability blockedRatio. The same seed always yields the same grid.
func Generate(sizeX, sizeY int, blockedRatio float64, seed uint64) *Grid {
	g := New(sizeX, sizeY)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			if rng.Float64() < blockedRatio {
				g.SetBlocked(x, y, true)
			}
		}
	}
	return g
}

// RandomVertex returns a vertex that touches at least one free tile, drawn
// from rng. ok is false when every tile is blocked.
func (g *Grid) RandomVertex(rng *rand.Rand) (x, y int, ok bool) {
	if g.BlockedCount() == g.SizeX*g.SizeY {
		return 0, 0, false
	}
	for {
		x = rng.IntN(g.SizeX + 1)
		y = rng.IntN(g.SizeY + 1)
		if g.IsUnblockedCoordinate(x, y) {
			return x, y, true
		}
	}
}
