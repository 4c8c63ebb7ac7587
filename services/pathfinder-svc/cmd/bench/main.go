// Command bench compares the pathfinding algorithms on a scenario of maps and
// queries and writes the results to an xlsx workbook.
//
//	bench -scenario maps.yaml -algorithms theta,vg -reps 5 -out result.xlsx
//	bench -maps 8 -size 128 -ratio 0.3 -queries 100
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"anyangle/pkg/config"
	"anyangle/pkg/logger"
	"anyangle/services/pathfinder-svc/internal/algorithms"
	"anyangle/services/pathfinder-svc/internal/bench"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		scenario   = flag.String("scenario", "", "scenario yaml; random maps are used when empty")
		algs       = flag.String("algorithms", "", "comma separated algorithms ("+strings.Join(algorithms.Names(), ", ")+")")
		workers    = flag.Int("workers", 0, "concurrent searches, 0 means GOMAXPROCS")
		reps       = flag.Int("reps", 0, "timed runs per query and algorithm")
		out        = flag.String("out", "", "xlsx report path")
		seed       = flag.Uint64("seed", 0, "seed of the random maps")
		maps       = flag.Int("maps", 0, "number of random maps")
		size       = flag.Int("size", 0, "side of the random maps in tiles")
		ratio      = flag.Float64("ratio", 0, "share of blocked tiles on random maps")
		queries    = flag.Int("queries", 0, "random queries per map")
		logLevel   = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger.Init(*logLevel)

	// Флаги перекрывают конфиг, только если заданы явно
	keys := map[string]string{
		"scenario":   "bench.scenario",
		"workers":    "bench.workers",
		"reps":       "bench.repetitions",
		"out":        "bench.output",
		"seed":       "bench.seed",
		"maps":       "bench.random_maps",
		"size":       "bench.map_size",
		"ratio":      "bench.blocked_ratio",
		"queries":    "bench.random_queries",
		"algorithms": "bench.algorithms",
	}
	overrides := map[string]any{}
	flag.Visit(func(f *flag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			return
		}
		switch f.Name {
		case "algorithms":
			overrides[key] = splitList(*algs)
		case "scenario":
			overrides[key] = *scenario
		case "out":
			overrides[key] = *out
		case "workers":
			overrides[key] = *workers
		case "reps":
			overrides[key] = *reps
		case "seed":
			overrides[key] = *seed
		case "maps":
			overrides[key] = *maps
		case "size":
			overrides[key] = *size
		case "ratio":
			overrides[key] = *ratio
		case "queries":
			overrides[key] = *queries
		}
	})

	opts := []config.LoaderOption{config.WithOverrides(overrides)}
	if *configPath != "" {
		opts = append(opts, config.WithConfigPaths(*configPath))
	}
	cfg, err := config.NewLoader(opts...).Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Bench); err != nil {
		logger.Fatal("Benchmark failed", "error", err)
	}
}

func run(ctx context.Context, cfg config.BenchConfig) error {
	var s *bench.Scenario
	if cfg.Scenario != "" {
		loaded, err := bench.LoadScenario(cfg.Scenario)
		if err != nil {
			return err
		}
		s = loaded
	} else {
		s = bench.RandomScenario(cfg.RandomMaps, cfg.MapSize, cfg.BlockedRatio, cfg.RandomQueries, cfg.Seed)
	}

	cases, err := s.Cases()
	if err != nil {
		return err
	}
	queryCount := 0
	for _, c := range cases {
		queryCount += len(c.Queries)
	}
	logger.Log.Info("Running benchmark",
		"scenario", s.Name,
		"maps", len(cases),
		"queries", queryCount,
		"algorithms", cfg.Algorithms,
		"repetitions", cfg.Repetitions,
	)

	runCfg := bench.Config{
		Algorithms:  cfg.Algorithms,
		Workers:     cfg.Workers,
		Repetitions: cfg.Repetitions,
	}
	res, err := bench.Run(ctx, runCfg, cases)
	if err != nil {
		return err
	}

	summaries := bench.Summarize(res.Samples)
	for _, sum := range summaries {
		logger.Log.Info("Algorithm summary",
			"algorithm", sum.Algorithm,
			"found", fmt.Sprintf("%d/%d", sum.Found, sum.Queries),
			"optimal", sum.Optimal,
			"mean_ms", round(sum.MeanMs),
			"stddev_ms", round(sum.StdDevMs),
			"p95_ms", round(sum.P95Ms),
			"mean_settled", round(sum.MeanSettled),
			"suboptimality", round(sum.MeanSuboptimality),
		)
	}
	for _, g := range res.Graphs {
		logger.Log.Info("Visibility graph", "map", g.Map, "nodes", g.Nodes, "edges", g.Edges, "duration", g.Duration)
	}

	if cfg.Output == "" {
		return nil
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	report := &bench.Report{Scenario: s.Name, Config: runCfg, Result: res, Summaries: summaries}
	if err := report.WriteExcel(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}

	logger.Log.Info("Report written", "path", cfg.Output, "elapsed", res.Elapsed)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func round(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
