package algorithms

import (
	"context"
	"math"

	"anyangle/services/pathfinder-svc/internal/expand"
	"anyangle/services/pathfinder-svc/internal/grid"
	"anyangle/services/pathfinder-svc/internal/search"
)

func init() {
	register(Info{
		Name:        "dijkstra",
		Description: "Dijkstra on the 8-connected vertex lattice",
	}, dijkstra.solve)
	register(Info{
		Name:        "astar",
		Description: "A* on the 8-connected vertex lattice with a Euclidean heuristic",
	}, astar.solve)
	register(Info{
		Name:        "theta",
		Description: "Theta*: A* that rebases each edge to the grandparent when it is visible",
		AnyAngle:    true,
	}, theta.solve)
	register(Info{
		Name:        "lazy-theta",
		Description: "Lazy Theta*: rebases unconditionally and checks visibility when a node is settled",
		AnyAngle:    true,
	}, lazyTheta.solve)
	register(Info{
		Name:        "jps",
		Description: "Jump point search on the 8-connected vertex lattice",
	}, jps.solve)
	register(Info{
		Name:        "vg",
		Description: "A* over the visibility graph of outer corners",
		AnyAngle:    true,
		Optimal:     true,
	}, solveVisibility)
	register(Info{
		Name:        "bounded-vg",
		Description: "Visibility graph A* guided by a Theta* upper bound and a grid lower bound",
		AnyAngle:    true,
		Optimal:     true,
	}, solveBoundedVisibility)
}

// =============================================================================
// Lattice variants
// =============================================================================

type heuristicKind int

const (
	noHeuristic heuristicKind = iota
	euclidean
	octile
)

// latticeConfig is a variant searching grid vertices directly.
type latticeConfig struct {
	mode      search.RelaxMode
	tie       search.TieRule
	heuristic heuristicKind
	jump      bool
}

var (
	dijkstra  = latticeConfig{mode: search.RelaxGrid}
	astar     = latticeConfig{mode: search.RelaxGrid, heuristic: euclidean}
	theta     = latticeConfig{mode: search.RelaxAnyAngle, heuristic: euclidean}
	lazyTheta = latticeConfig{mode: search.RelaxLazy, heuristic: euclidean}
	jps       = latticeConfig{mode: search.RelaxGrid, heuristic: octile, jump: true}
)

func (c latticeConfig) engine(req *Request) *search.Engine {
	space := expand.NewGridSpace(req.Grid)

	opts := search.Options{
		Mode:          c.mode,
		Tie:           c.tie,
		Smoothing:     req.Smoothing,
		OnNodeSettled: req.OnNodeSettled,
	}
	switch c.heuristic {
	case euclidean:
		opts.Heuristic = space.EuclideanTo(req.Goal)
	case octile:
		opts.Heuristic = space.OctileTo(req.Goal)
	}

	var gen search.SuccessorGenerator = expand.NewNeighbours(req.Grid)
	if c.jump {
		gen = expand.NewJumpPoints(req.Grid, req.Goal)
	}
	return search.NewEngine(space, gen, opts)
}

func (c latticeConfig) solve(_ context.Context, req *Request, env *Env) (*search.Result, error) {
	return c.engine(req).Run(env.Lease.Arena(), req.Start, req.Goal), nil
}

// =============================================================================
// Visibility graph variants
// =============================================================================

func solveVisibility(ctx context.Context, req *Request, env *Env) (*search.Result, error) {
	vg, err := env.Graphs.VisibilityGraph(ctx, req.Grid)
	if err != nil {
		return nil, err
	}
	a := vg.Attach(req.Start, req.Goal)

	opts := search.Options{
		Heuristic:     a.EuclideanTo(a.Goal()),
		Smoothing:     req.Smoothing,
		OnNodeSettled: settledVertex(req, a),
	}
	res := search.NewEngine(a, a, opts).Run(env.Lease.Arena(), a.Start(), a.Goal())
	return toVertices(res, a), nil
}

// settledVertex maps visibility graph nodes back to grid vertices for the
// request hook.
func settledVertex(req *Request, a *expand.Attached) func(int) {
	if req.OnNodeSettled == nil {
		return nil
	}
	return func(node int) { req.OnNodeSettled(a.Vertex(node)) }
}

func toVertices(res *search.Result, a *expand.Attached) *search.Result {
	for i, node := range res.Nodes {
		res.Nodes[i] = a.Vertex(node)
	}
	return res
}

// =============================================================================
// Bounded visibility graph
// =============================================================================

// lowerBoundRatio is the largest ratio between an octile path and the
// straight segment it follows.
var lowerBoundRatio = math.Sqrt(4 - 2*math.Sqrt2)

const (
	lowerBoundBuffer = 1e-6
	lowerBoundSlack  = 0.05
)

// solveBoundedVisibility runs three searches:
//  1. Theta* from start to goal gives an upper bound U.
//  2. Dijkstra from the goal over the lattice, on its own arena, gives a lower
//     bound on the remaining any-angle length of every vertex that may still
//     lie on a path shorter than U.
//  3. A* over the visibility graph uses max(Euclidean, lower bound) as its
//     heuristic and skips vertices the lower-bound search never reached.
//
// If the bounded search finds nothing the Theta* path is returned.
func solveBoundedVisibility(ctx context.Context, req *Request, env *Env) (*search.Result, error) {
	g := req.Grid
	primary := env.Lease.Arena()

	upper := theta.engine(&Request{Grid: g, Start: req.Start, Goal: req.Goal}).Run(primary, req.Start, req.Goal)
	if !upper.Found || upper.Length < 1e-3 {
		return upper, nil
	}

	bounds := env.Lease.Arena()
	lb := lowerBound(g, req.Start, req.Goal, upper.Length, bounds)

	vg, err := env.Graphs.VisibilityGraph(ctx, g)
	if err != nil {
		return nil, err
	}
	a := vg.Attach(req.Start, req.Goal)

	euclid := a.EuclideanTo(a.Goal())
	opts := search.Options{
		Heuristic: func(node int) float64 {
			return max(euclid(node), lb.Arena.Distance(a.Vertex(node))/lowerBoundRatio)
		},
		Prune: func(node int, _ float64) bool {
			return math.IsInf(lb.Arena.Distance(a.Vertex(node)), 1)
		},
		Smoothing:     req.Smoothing,
		OnNodeSettled: settledVertex(req, a),
	}
	res := search.NewEngine(a, a, opts).Run(primary, a.Start(), a.Goal())
	settled := upper.Settled + lb.Result.Settled + res.Settled
	reallocated := upper.Reallocated || lb.Result.Reallocated || res.Reallocated

	if !res.Found {
		res = upper
	} else {
		res = toVertices(res, a)
	}
	res.Settled = settled
	res.Reallocated = reallocated
	return res, nil
}

// lowerBoundSearch is the outcome of the lattice search from the goal.
type lowerBoundSearch struct {
	Arena  *search.Arena
	Result *search.Result
}

// lowerBound settles every lattice vertex v reachable from goal whose octile
// distance d(v) still allows d(v)/ratio + |v-start| <= upper. Ties replace
// the current parent.
func lowerBound(g *grid.Grid, start, goal int, upper float64, arena *search.Arena) lowerBoundSearch {
	space := expand.NewGridSpace(g)
	limit := upper + lowerBoundBuffer + lowerBoundSlack

	opts := search.Options{
		Tie: search.TieNonStrict,
		Prune: func(v int, tentative float64) bool {
			return tentative/lowerBoundRatio+space.Distance(v, start) > limit
		},
	}
	res := search.NewEngine(space, expand.NewNeighbours(g), opts).Run(arena, goal, search.NoGoal)
	return lowerBoundSearch{Arena: arena, Result: res}
}
