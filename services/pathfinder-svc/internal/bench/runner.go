package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/services/pathfinder-svc/internal/algorithms"
	"anyangle/services/pathfinder-svc/internal/search"
	"anyangle/services/pathfinder-svc/internal/service"
)

// Config controls a benchmark run.
type Config struct {
	Algorithms []string
	// Workers is the number of concurrent searches, 0 means GOMAXPROCS.
	Workers int
	// Repetitions is the number of timed runs per query and algorithm.
	Repetitions int
	// Metrics receives one search outcome per run when set.
	Metrics *metrics.Metrics
}

// Sample is the outcome of one algorithm on one query.
type Sample struct {
	Map       string
	Query     int
	Start     search.Point
	Goal      search.Point
	Algorithm string

	Found   bool
	Length  float64
	Settled int
	// Durations holds one entry per repetition.
	Durations []time.Duration
}

// MeanDuration averages the repetitions.
func (s *Sample) MeanDuration() time.Duration {
	if len(s.Durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.Durations {
		total += d
	}
	return total / time.Duration(len(s.Durations))
}

// GraphBuild records the visibility graph construction for a map.
type GraphBuild struct {
	Map      string
	Nodes    int
	Edges    int
	Duration time.Duration
}

// Result is the raw output of Run.
type Result struct {
	Samples []Sample
	Graphs  []GraphBuild
	Elapsed time.Duration
}

type job struct {
	index   int
	c       *Case
	query   int
	variant *algorithms.Variant
}

// Run executes every selected algorithm on every query of every case.
//
// Visibility graphs are built once per map before timing starts and shared by
// all workers. Each worker owns a lease so arenas are recycled between its
// searches.
func Run(ctx context.Context, cfg Config, cases []Case) (*Result, error) {
	if len(cfg.Algorithms) == 0 {
		return nil, errors.New("no algorithms selected")
	}
	variants := make([]*algorithms.Variant, len(cfg.Algorithms))
	needGraphs := false
	for i, name := range cfg.Algorithms {
		v, err := algorithms.Lookup(name)
		if err != nil {
			return nil, err
		}
		variants[i] = v
		// Оптимальные варианты ищут по графу видимости
		needGraphs = needGraphs || v.Optimal
	}
	if cfg.Repetitions <= 0 {
		cfg.Repetitions = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	begin := time.Now()
	res := &Result{}

	graphs := service.NewGraphCache(len(cases), 0, cfg.Metrics)
	if needGraphs {
		for i := range cases {
			c := &cases[i]
			start := time.Now()
			vg, err := graphs.VisibilityGraph(ctx, c.Grid)
			if err != nil {
				return nil, fmt.Errorf("build visibility graph for %s: %w", c.Name, err)
			}
			build := GraphBuild{Map: c.Name, Nodes: vg.NodeCount(), Edges: vg.EdgeCount(), Duration: time.Since(start)}
			res.Graphs = append(res.Graphs, build)
			logger.Log.Debug("visibility graph ready", "map", c.Name, "nodes", build.Nodes, "duration", build.Duration)
		}
	}

	var jobs []job
	for i := range cases {
		c := &cases[i]
		for q := range c.Queries {
			for _, v := range variants {
				jobs = append(jobs, job{index: len(jobs), c: c, query: q, variant: v})
			}
		}
	}
	res.Samples = make([]Sample, len(jobs))

	pool := search.NewArenaPool()
	queue := make(chan job)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(queue)
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range workers {
		eg.Go(func() error {
			lease := search.NewLease(pool)
			defer lease.Release()

			for j := range queue {
				sample, err := runJob(ctx, cfg, j, lease, graphs)
				if err != nil {
					return err
				}
				// Каждый job пишет только в свой индекс
				res.Samples[j.index] = sample
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(begin)
	return res, nil
}

func runJob(ctx context.Context, cfg Config, j job, lease *search.Lease, graphs algorithms.GraphSource) (Sample, error) {
	q := j.c.Queries[j.query]
	g := j.c.Grid
	sample := Sample{
		Map:       j.c.Name,
		Query:     j.query,
		Start:     search.Point{X: g.X(q.Start), Y: g.Y(q.Start)},
		Goal:      search.Point{X: g.X(q.Goal), Y: g.Y(q.Goal)},
		Algorithm: j.variant.Name,
		Durations: make([]time.Duration, 0, cfg.Repetitions),
	}
	req := &algorithms.Request{Grid: g, Start: q.Start, Goal: q.Goal}

	for range cfg.Repetitions {
		start := time.Now()
		out, err := j.variant.Solve(ctx, req, algorithms.Env{Lease: lease, Graphs: graphs})
		elapsed := time.Since(start)
		lease.Release()
		if err != nil {
			return Sample{}, fmt.Errorf("%s on %s query %d: %w", j.variant.Name, j.c.Name, j.query, err)
		}

		sample.Durations = append(sample.Durations, elapsed)
		sample.Found = out.Found
		sample.Length = out.Length
		sample.Settled = out.Settled

		if cfg.Metrics != nil {
			cfg.Metrics.RecordSearch(metrics.SearchOutcome{
				Algorithm:   j.variant.Name,
				Found:       out.Found,
				Duration:    elapsed,
				Settled:     out.Settled,
				Length:      out.Length,
				Reallocated: out.Reallocated,
			})
		}
	}
	return sample, nil
}
