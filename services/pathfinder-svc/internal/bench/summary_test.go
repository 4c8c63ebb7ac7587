package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(alg string, query int, found bool, length float64, settled int, ms ...int) Sample {
	s := Sample{Map: "m", Query: query, Algorithm: alg, Found: found, Length: length, Settled: settled}
	for _, d := range ms {
		s.Durations = append(s.Durations, time.Duration(d)*time.Millisecond)
	}
	return s
}

func TestSummarize(t *testing.T) {
	samples := []Sample{
		sample("vg", 0, true, 10, 20, 4, 6),
		sample("theta", 0, true, 11, 10, 1),
		sample("vg", 1, true, 5, 30, 10),
		sample("theta", 1, true, 5, 12, 3),
		sample("vg", 2, false, 0, 8, 2),
		sample("theta", 2, false, 0, 6, 2),
	}

	got := Summarize(samples)
	require.Len(t, got, 2)

	vg := got[0]
	assert.Equal(t, "vg", vg.Algorithm)
	assert.Equal(t, 3, vg.Queries)
	assert.Equal(t, 2, vg.Found)
	assert.Equal(t, 2, vg.Optimal)
	assert.InDelta(t, 1.0, vg.MeanSuboptimality, 1e-12)
	// Времена по запросам: 5, 10, 2 мс
	assert.InDelta(t, 17.0/3, vg.MeanMs, 1e-9)
	assert.InDelta(t, 10.0, vg.MaxMs, 1e-9)
	assert.InDelta(t, 5.0, vg.P50Ms, 1e-9)
	assert.InDelta(t, 10.0, vg.P95Ms, 1e-9)
	assert.Positive(t, vg.StdDevMs)
	assert.InDelta(t, 58.0/3, vg.MeanSettled, 1e-9)

	theta := got[1]
	assert.Equal(t, "theta", theta.Algorithm)
	assert.Equal(t, 2, theta.Found)
	assert.Equal(t, 1, theta.Optimal)
	assert.InDelta(t, (1.1+1.0)/2, theta.MeanSuboptimality, 1e-12)
}

func TestSummarize_SingleSample(t *testing.T) {
	got := Summarize([]Sample{sample("astar", 0, true, 3, 5, 7)})
	require.Len(t, got, 1)

	assert.InDelta(t, 7.0, got[0].MeanMs, 1e-9)
	assert.Zero(t, got[0].StdDevMs)
	assert.InDelta(t, 7.0, got[0].P95Ms, 1e-9)
}

func TestSummarize_ZeroLengthCountsAsOptimal(t *testing.T) {
	got := Summarize([]Sample{sample("theta", 0, true, 0, 1, 1)})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Optimal)
	assert.InDelta(t, 1.0, got[0].MeanSuboptimality, 1e-12)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}

func TestSample_MeanDuration(t *testing.T) {
	s := sample("a", 0, true, 1, 1, 2, 4)
	assert.Equal(t, 3*time.Millisecond, s.MeanDuration())

	var empty Sample
	assert.Zero(t, empty.MeanDuration())
}
