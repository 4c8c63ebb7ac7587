// Package algorithms wires the search engine into named pathfinding variants.
//
// Every variant is a configuration of search.Engine: a successor generator, a
// relaxation mode, a tie rule and a heuristic. The registry resolves variants
// by name for the service and the benchmark runner.
package algorithms

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"anyangle/services/pathfinder-svc/internal/expand"
	"anyangle/services/pathfinder-svc/internal/grid"
	"anyangle/services/pathfinder-svc/internal/search"
)

// ErrUnknownAlgorithm is returned by Lookup for an unregistered name.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Info describes a variant.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// AnyAngle reports whether paths may bend at arbitrary vertices rather
	// than follow the 8-connected lattice.
	AnyAngle bool `json:"any_angle"`
	// Optimal reports whether the variant returns shortest any-angle paths.
	Optimal bool `json:"optimal"`
}

// Request is one point-to-point query. Start and Goal are grid vertex ids.
type Request struct {
	Grid      *grid.Grid
	Start     int
	Goal      int
	Smoothing search.Smoothing

	// OnNodeSettled receives the grid vertex of every settled node.
	OnNodeSettled func(vertex int)
}

// GraphSource supplies the visibility graph of a grid.
type GraphSource interface {
	VisibilityGraph(ctx context.Context, g *grid.Grid) (*expand.VisibilityGraph, error)
}

// Env carries the resources a variant borrows.
type Env struct {
	// Lease hands out arenas. Nil uses a private lease on the global pool.
	Lease *search.Lease
	// Graphs supplies visibility graphs. Nil builds a fresh graph per query.
	Graphs GraphSource
}

// BuildGraphs is a GraphSource that builds a new graph on every call.
type BuildGraphs struct {
	Workers int
}

// VisibilityGraph builds the graph of g.
func (b BuildGraphs) VisibilityGraph(ctx context.Context, g *grid.Grid) (*expand.VisibilityGraph, error) {
	return expand.BuildVisibilityGraph(ctx, g, b.Workers)
}

// =============================================================================
// Variant
// =============================================================================

type solveFunc func(ctx context.Context, req *Request, env *Env) (*search.Result, error)

// Variant is a registered pathfinding algorithm.
type Variant struct {
	Info
	solve solveFunc
}

// Solve runs the variant for req. Result.Nodes holds grid vertex ids.
func (v *Variant) Solve(ctx context.Context, req *Request, env Env) (*search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Grid == nil {
		return nil, errors.New("request has no grid")
	}
	n := req.Grid.NodeCount()
	if req.Start < 0 || req.Start >= n || req.Goal < 0 || req.Goal >= n {
		return nil, fmt.Errorf("vertex out of range [0, %d)", n)
	}

	if env.Lease == nil {
		env.Lease = search.NewLease(nil)
		defer env.Lease.Release()
	}
	if env.Graphs == nil {
		env.Graphs = BuildGraphs{}
	}
	return v.solve(ctx, req, &env)
}

var registry = map[string]*Variant{}

func register(info Info, solve solveFunc) {
	if _, dup := registry[info.Name]; dup {
		panic("algorithms: duplicate variant " + info.Name)
	}
	registry[info.Name] = &Variant{Info: info, solve: solve}
}

// Lookup returns the variant registered under name.
func Lookup(name string) (*Variant, error) {
	v, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return v, nil
}

// Names returns the registered names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Catalog returns the descriptors of all variants sorted by name.
func Catalog() []Info {
	names := Names()
	out := make([]Info, len(names))
	for i, name := range names {
		out[i] = registry[name].Info
	}
	return out
}
