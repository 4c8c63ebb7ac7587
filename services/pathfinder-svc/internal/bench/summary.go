package bench

import (
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// optimalTolerance is the relative slack under which a length counts as the
// best known length of its query.
const optimalTolerance = 1e-9

// Summary aggregates the samples of one algorithm.
type Summary struct {
	Algorithm string
	Queries   int
	Found     int

	// Running time per query in milliseconds, averaged over repetitions.
	MeanMs   float64
	StdDevMs float64
	P50Ms    float64
	P95Ms    float64
	MaxMs    float64

	MeanSettled float64
	// MeanSuboptimality is the mean ratio of the path length to the shortest
	// length any algorithm found for the same query. 1 means always best.
	MeanSuboptimality float64
	// Optimal counts queries where the algorithm matched the best length.
	Optimal int
}

type queryKey struct {
	mapName string
	query   int
}

// Summarize groups samples by algorithm in order of first appearance.
func Summarize(samples []Sample) []Summary {
	best := make(map[queryKey]float64)
	for i := range samples {
		s := &samples[i]
		if !s.Found {
			continue
		}
		k := queryKey{s.Map, s.Query}
		if cur, ok := best[k]; !ok || s.Length < cur {
			best[k] = s.Length
		}
	}

	var order []string
	groups := make(map[string][]*Sample)
	for i := range samples {
		s := &samples[i]
		if _, ok := groups[s.Algorithm]; !ok {
			order = append(order, s.Algorithm)
		}
		groups[s.Algorithm] = append(groups[s.Algorithm], s)
	}

	out := make([]Summary, 0, len(order))
	for _, name := range order {
		out = append(out, summarize(name, groups[name], best))
	}
	return out
}

func summarize(name string, samples []*Sample, best map[queryKey]float64) Summary {
	sum := Summary{Algorithm: name, Queries: len(samples)}

	times := make([]float64, 0, len(samples))
	settled := make([]float64, 0, len(samples))
	var ratios []float64
	for _, s := range samples {
		times = append(times, millis(s.MeanDuration()))
		settled = append(settled, float64(s.Settled))
		if !s.Found {
			continue
		}
		sum.Found++

		b := best[queryKey{s.Map, s.Query}]
		if b == 0 {
			// Старт совпадает с целью
			ratios = append(ratios, 1)
			sum.Optimal++
			continue
		}
		ratio := s.Length / b
		ratios = append(ratios, ratio)
		if ratio <= 1+optimalTolerance {
			sum.Optimal++
		}
	}
	if len(times) == 0 {
		return sum
	}

	slices.Sort(times)
	sum.MeanMs, sum.StdDevMs = stat.MeanStdDev(times, nil)
	if math.IsNaN(sum.StdDevMs) {
		sum.StdDevMs = 0
	}
	sum.P50Ms = stat.Quantile(0.5, stat.Empirical, times, nil)
	sum.P95Ms = stat.Quantile(0.95, stat.Empirical, times, nil)
	sum.MaxMs = floats.Max(times)
	sum.MeanSettled = stat.Mean(settled, nil)
	if len(ratios) > 0 {
		sum.MeanSuboptimality = stat.Mean(ratios, nil)
	}
	return sum
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
