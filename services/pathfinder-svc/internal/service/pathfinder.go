// Package service implements point-to-point path queries on top of the
// algorithm registry: validation, reachability short-circuits, result caching,
// arena pooling, tracing and metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"anyangle/pkg/apperror"
	"anyangle/pkg/cache"
	"anyangle/pkg/config"
	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/pkg/telemetry"
	"anyangle/services/pathfinder-svc/internal/algorithms"
	"anyangle/services/pathfinder-svc/internal/grid"
	"anyangle/services/pathfinder-svc/internal/search"
)

// Short-circuit reasons reported to metrics and responses.
const (
	ReasonUnreachable = "unreachable"
	ReasonSameVertex  = "same_vertex"
)

// PathRequest is one query. Start and Goal are vertex coordinates, so valid
// values range over [0, SizeX] and [0, SizeY].
type PathRequest struct {
	Grid      *grid.Grid
	Start     search.Point
	Goal      search.Point
	Algorithm string // empty uses the configured default
	Smoothing string // none, once, repeated; empty uses the configured default
	// Trace returns the settled vertices with the response. Traced queries
	// always run the search.
	Trace bool
}

// PathResponse is the outcome of a query.
type PathResponse struct {
	Algorithm string         `json:"algorithm"`
	Smoothing string         `json:"smoothing"`
	Found     bool           `json:"found"`
	Path      []search.Point `json:"path"`
	// Length is nil when no path exists.
	Length   *float64 `json:"length"`
	Settled  int      `json:"settled"`
	Cached   bool     `json:"cached"`
	Reason   string   `json:"short_circuit,omitempty"`
	Duration float64  `json:"duration_ms"`
	// Explored lists the settled vertices in id order when a trace was requested.
	Explored []search.Point `json:"explored,omitempty"`
}

// PathLength returns the length, +Inf without a path.
func (r *PathResponse) PathLength() float64 {
	if r.Length == nil {
		return search.NoPath().Length
	}
	return *r.Length
}

// Pathfinder answers path queries. It is safe for concurrent use.
type Pathfinder struct {
	cfg        config.SearchConfig
	metrics    *metrics.Metrics
	paths      *cache.PathCache
	graphs     *GraphCache
	components *ComponentIndex
	arenas     *search.ArenaPool
}

// Option configures a Pathfinder.
type Option func(*Pathfinder)

// WithPathCache enables result caching.
func WithPathCache(pc *cache.PathCache) Option {
	return func(p *Pathfinder) { p.paths = pc }
}

// WithMetrics sets the metrics sink. The default is metrics.Get().
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pathfinder) { p.metrics = m }
}

// WithArenaPool sets the arena pool. The default is the process-wide pool.
func WithArenaPool(pool *search.ArenaPool) Option {
	return func(p *Pathfinder) { p.arenas = pool }
}

// NewPathfinder creates a Pathfinder with the given search limits.
func NewPathfinder(cfg config.SearchConfig, opts ...Option) *Pathfinder {
	p := &Pathfinder{
		cfg:    cfg,
		arenas: search.GetPool(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.Get()
	}
	p.graphs = NewGraphCache(cfg.GraphCacheSize, cfg.GraphWorkers, p.metrics)
	p.components = NewComponentIndex(cfg.GraphCacheSize)
	return p
}

// Graphs returns the shared visibility graph cache.
func (p *Pathfinder) Graphs() *GraphCache {
	return p.graphs
}

// Components returns the shared connectivity index.
func (p *Pathfinder) Components() *ComponentIndex {
	return p.components
}

// Algorithms returns the descriptors of every available algorithm.
func (p *Pathfinder) Algorithms() []algorithms.Info {
	return algorithms.Catalog()
}

// FindPath validates req and answers it from the cache, a short-circuit or a
// search.
func (p *Pathfinder) FindPath(ctx context.Context, req *PathRequest) (*PathResponse, error) {
	begin := time.Now()

	algorithm, smoothingName, smoothing, err := p.validate(req)
	if err != nil {
		return nil, err
	}
	variant, err := algorithms.Lookup(algorithm)
	if err != nil {
		return nil, apperror.NewWithField(apperror.CodeUnknownAlgorithm,
			fmt.Sprintf("unknown algorithm %q", algorithm), "algorithm").
			WithDetails("available", algorithms.Names())
	}

	g := req.Grid
	hash := g.Hash()

	ctx, span := telemetry.StartSpan(ctx, "Pathfinder.FindPath",
		trace.WithAttributes(telemetry.GridAttributes(g.SizeX, g.SizeY, g.BlockedRatio(), hash)...),
		trace.WithAttributes(telemetry.QueryAttributes(algorithm,
			req.Start.X, req.Start.Y, req.Goal.X, req.Goal.Y, smoothingName)...),
	)
	defer span.End()

	log := logger.WithContext(ctx, "algorithm", algorithm, "grid", hash[:12])

	start := g.ToIndex(req.Start.X, req.Start.Y)
	goal := g.ToIndex(req.Goal.X, req.Goal.Y)
	query := cache.PathQuery{
		GridHash:  hash,
		Algorithm: algorithm,
		Smoothing: smoothingName,
		StartX:    req.Start.X,
		StartY:    req.Start.Y,
		GoalX:     req.Goal.X,
		GoalY:     req.Goal.Y,
	}

	// Кэш; трассировка требует реального поиска
	if !req.Trace {
		if resp, ok := p.fromCache(ctx, query); ok {
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			resp.Smoothing = smoothingName
			resp.Duration = millis(time.Since(begin))
			return resp, nil
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	// Тривиальные случаи
	if reason, err := p.shortCircuit(ctx, g, hash, start, goal); err != nil {
		return nil, p.contextError(ctx, err)
	} else if reason != "" {
		p.metrics.RecordShortCircuit(reason)
		telemetry.AddEvent(ctx, "short_circuit", attribute.String("reason", reason))
		resp := &PathResponse{Algorithm: algorithm, Smoothing: smoothingName, Reason: reason}
		if reason == ReasonSameVertex {
			zero := 0.0
			resp.Found = true
			resp.Length = &zero
			resp.Path = []search.Point{req.Start}
		}
		resp.Duration = millis(time.Since(begin))
		log.Debug("query short-circuited", "reason", reason)
		return resp, nil
	}

	searchReq := &algorithms.Request{
		Grid:      g,
		Start:     start,
		Goal:      goal,
		Smoothing: smoothing,
	}
	var tr *search.Trace
	if req.Trace {
		tr = search.NewTrace()
		searchReq.OnNodeSettled = tr.Record
	}

	res, err := p.run(ctx, variant, searchReq)
	elapsed := time.Since(begin)
	if err != nil {
		p.metrics.RecordSearch(metrics.SearchOutcome{Algorithm: algorithm, Err: true, Duration: elapsed})
		err = p.contextError(ctx, err)
		telemetry.SetError(ctx, err)
		log.Warn("search failed", "error", err, "duration", elapsed)
		return nil, err
	}

	p.metrics.RecordSearch(metrics.SearchOutcome{
		Algorithm:   algorithm,
		Found:       res.Found,
		Duration:    elapsed,
		Settled:     res.Settled,
		Length:      res.Length,
		Reallocated: res.Reallocated,
	})
	span.SetAttributes(telemetry.ResultAttributes(res.Found, res.Length, res.Settled, len(res.Path), res.Reallocated)...)

	resp := &PathResponse{
		Algorithm: algorithm,
		Smoothing: smoothingName,
		Found:     res.Found,
		Path:      res.Path,
		Settled:   res.Settled,
		Duration:  millis(elapsed),
	}
	if res.Found {
		length := res.Length
		resp.Length = &length
	} else {
		resp.Path = []search.Point{}
	}

	p.toCache(ctx, query, resp)

	if tr != nil {
		nodes := tr.Nodes()
		resp.Explored = make([]search.Point, len(nodes))
		for i, id := range nodes {
			resp.Explored[i] = search.Point{X: g.X(id), Y: g.Y(id)}
		}
	}

	log.Info("path computed",
		"found", res.Found,
		"length", res.Length,
		"settled", res.Settled,
		"waypoints", len(res.Path),
		"duration", elapsed,
	)
	return resp, nil
}

// run executes the search on its own goroutine so the caller can stop waiting
// at the deadline. The goroutine owns the lease and releases it when the
// search returns.
func (p *Pathfinder) run(ctx context.Context, variant *algorithms.Variant, req *algorithms.Request) (*search.Result, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	type outcome struct {
		res *search.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		lease := search.NewLease(p.arenas)
		defer lease.Release()

		res, err := variant.Solve(ctx, req, algorithms.Env{Lease: lease, Graphs: p.graphs})
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.res, out.err
	}
}

// shortCircuit returns a non-empty reason when the query is answered without
// a search.
func (p *Pathfinder) shortCircuit(ctx context.Context, g *grid.Grid, hash string, start, goal int) (string, error) {
	if start == goal {
		return ReasonSameVertex, nil
	}
	if !p.cfg.CheckReachable {
		return "", nil
	}
	comps, err := p.components.Components(ctx, g, hash)
	if err != nil {
		return "", err
	}
	if !comps.Connected(start, goal) {
		return ReasonUnreachable, nil
	}
	return "", nil
}

// =============================================================================
// Cache
// =============================================================================

func (p *Pathfinder) fromCache(ctx context.Context, q cache.PathQuery) (*PathResponse, bool) {
	if p.paths == nil {
		return nil, false
	}
	cached, found, err := p.paths.Get(ctx, q)
	if err != nil {
		logger.WithContext(ctx).Warn("path cache read failed", "error", err)
		return nil, false
	}
	p.metrics.RecordCache("path", found)
	if !found {
		return nil, false
	}

	resp := &PathResponse{
		Algorithm: q.Algorithm,
		Found:     cached.Found,
		Path:      make([]search.Point, len(cached.Path)),
		Settled:   cached.Settled,
		Cached:    true,
	}
	for i, pt := range cached.Path {
		resp.Path[i] = search.Point{X: pt.X, Y: pt.Y}
	}
	if cached.Found {
		length := cached.PathLength()
		resp.Length = &length
	}
	return resp, true
}

func (p *Pathfinder) toCache(ctx context.Context, q cache.PathQuery, resp *PathResponse) {
	if p.paths == nil {
		return
	}
	entry := &cache.CachedPath{
		Found:   resp.Found,
		Path:    make([]cache.Point, len(resp.Path)),
		Length:  resp.PathLength(),
		Settled: resp.Settled,
	}
	for i, pt := range resp.Path {
		entry.Path[i] = cache.Point{X: pt.X, Y: pt.Y}
	}
	if err := p.paths.Set(ctx, q, entry, 0); err != nil {
		logger.WithContext(ctx).Warn("failed to cache path", "error", err)
	}
}

// InvalidateGrid drops cached paths of the grid with the given hash.
func (p *Pathfinder) InvalidateGrid(ctx context.Context, hash string) (int64, error) {
	if p.paths == nil {
		return 0, nil
	}
	n, err := p.paths.InvalidateGrid(ctx, hash)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeCacheError, "failed to invalidate cached paths")
	}
	return n, nil
}

// =============================================================================
// Validation
// =============================================================================

var smoothingModes = map[string]search.Smoothing{
	"none":     search.SmoothNone,
	"once":     search.SmoothOnce,
	"repeated": search.SmoothRepeated,
}

// ParseSmoothing resolves a smoothing mode name.
func ParseSmoothing(name string) (search.Smoothing, bool) {
	s, ok := smoothingModes[strings.ToLower(name)]
	return s, ok
}

func (p *Pathfinder) validate(req *PathRequest) (string, string, search.Smoothing, error) {
	if req == nil || req.Grid == nil {
		return "", "", 0, apperror.NewWithField(apperror.CodeInvalidGrid, "grid is required", "grid")
	}
	g := req.Grid

	if g.SizeX > p.cfg.MaxGridSide || g.SizeY > p.cfg.MaxGridSide {
		return "", "", 0, apperror.NewWithField(apperror.CodeGridTooLarge,
			fmt.Sprintf("grid side exceeds %d", p.cfg.MaxGridSide), "grid").
			WithDetails("width", g.SizeX).
			WithDetails("height", g.SizeY)
	}
	if cells := g.SizeX * g.SizeY; cells > p.cfg.MaxGridCells {
		return "", "", 0, apperror.NewWithField(apperror.CodeGridTooLarge,
			fmt.Sprintf("grid has %d cells, limit is %d", cells, p.cfg.MaxGridCells), "grid").
			WithDetails("cells", cells)
	}

	v := apperror.NewValidationErrors()
	checkPoint := func(field string, pt search.Point) {
		if !g.IsValidCoordinate(pt.X, pt.Y) {
			v.Add(apperror.NewWithField(apperror.CodeInvalidCoordinate,
				fmt.Sprintf("vertex (%d, %d) is outside the %dx%d grid", pt.X, pt.Y, g.SizeX, g.SizeY), field).
				WithDetails("x", pt.X).
				WithDetails("y", pt.Y))
		}
	}
	checkPoint("start", req.Start)
	checkPoint("goal", req.Goal)

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = p.cfg.DefaultAlgorithm
	}

	smoothingName := strings.ToLower(req.Smoothing)
	if smoothingName == "" {
		smoothingName = p.cfg.DefaultSmoothing
	}
	if smoothingName == "" {
		smoothingName = "none"
	}
	smoothing, ok := ParseSmoothing(smoothingName)
	if !ok {
		v.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("unknown smoothing %q, expected none, once or repeated", req.Smoothing), "smoothing")
	}

	if err := v.Err(); err != nil {
		return "", "", 0, err
	}
	return algorithm, smoothingName, smoothing, nil
}

// ParseGrid converts text rows into a grid, mapping parse failures to
// INVALID_GRID.
func ParseGrid(rows []string) (*grid.Grid, error) {
	g, err := grid.Parse(rows)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidGrid, err.Error()).WithField("grid")
	}
	return g, nil
}

// contextError maps context failures onto application errors.
func (p *Pathfinder) contextError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.CodeTimeout, "search timed out").
			WithDetails("timeout", p.cfg.Timeout.String())
	case errors.Is(err, context.Canceled):
		return apperror.Wrap(err, apperror.CodeCanceled, "request canceled")
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if ctx.Err() != nil {
		return p.contextError(ctx, ctx.Err())
	}
	return apperror.Wrap(err, apperror.CodeInternal, "search failed")
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
