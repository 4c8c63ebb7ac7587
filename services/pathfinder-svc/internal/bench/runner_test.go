package bench

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/services/pathfinder-svc/internal/algorithms"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

func wallCases(t *testing.T) []Case {
	t.Helper()
	s, err := ParseScenario([]byte(wallScenario))
	require.NoError(t, err)
	cases, err := s.Cases()
	require.NoError(t, err)
	return cases[:1]
}

func TestRun(t *testing.T) {
	cases := wallCases(t)

	res, err := Run(context.Background(), Config{
		Algorithms:  []string{"astar", "theta", "vg"},
		Workers:     2,
		Repetitions: 3,
	}, cases)
	require.NoError(t, err)

	// 2 запроса x 3 алгоритма, в порядке запросов и алгоритмов
	require.Len(t, res.Samples, 6)
	assert.Equal(t, "astar", res.Samples[0].Algorithm)
	assert.Equal(t, "theta", res.Samples[1].Algorithm)
	assert.Equal(t, "vg", res.Samples[2].Algorithm)
	assert.Equal(t, 1, res.Samples[3].Query)

	for _, s := range res.Samples {
		assert.True(t, s.Found, "%s query %d", s.Algorithm, s.Query)
		assert.Len(t, s.Durations, 3)
		assert.Positive(t, s.Settled)
		assert.Equal(t, "wall", s.Map)
	}

	vg := res.Samples[2]
	assert.Equal(t, 0, vg.Start.X)
	assert.Equal(t, 2, vg.Start.Y)
	assert.InDelta(t, math.Hypot(2, 1)+1+math.Hypot(3, 1), vg.Length, 1e-9)
	// Theta* не короче оптимума
	assert.GreaterOrEqual(t, res.Samples[1].Length, vg.Length-1e-9)

	require.Len(t, res.Graphs, 1)
	assert.Equal(t, "wall", res.Graphs[0].Map)
	assert.Positive(t, res.Graphs[0].Nodes)
	assert.Positive(t, res.Elapsed)
}

func TestRun_SkipsGraphsForLatticeVariants(t *testing.T) {
	res, err := Run(context.Background(), Config{Algorithms: []string{"dijkstra"}}, wallCases(t))
	require.NoError(t, err)

	assert.Empty(t, res.Graphs)
	require.Len(t, res.Samples, 2)
	// По умолчанию одно повторение
	assert.Len(t, res.Samples[0].Durations, 1)
}

func TestRun_RecordsMetrics(t *testing.T) {
	m := metrics.NewIsolated("bench_test", "")

	_, err := Run(context.Background(), Config{
		Algorithms:  []string{"theta"},
		Repetitions: 2,
		Metrics:     m,
	}, wallCases(t))
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("theta", "found")))
}

func TestRun_Errors(t *testing.T) {
	cases := wallCases(t)

	_, err := Run(context.Background(), Config{}, cases)
	assert.Error(t, err)

	_, err = Run(context.Background(), Config{Algorithms: []string{"bfs"}}, cases)
	assert.ErrorIs(t, err, algorithms.ErrUnknownAlgorithm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, Config{Algorithms: []string{"theta"}}, cases)
	assert.ErrorIs(t, err, context.Canceled)
}
