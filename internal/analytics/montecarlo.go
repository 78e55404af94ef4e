package analytics

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/moznion/go-optional"
)

// Distribution summarizes resampled outcomes.
type Distribution struct {
	Count  int     `yaml:"count" json:"count"`
	Mean   float64 `yaml:"mean" json:"mean"`
	StdDev float64 `yaml:"std_dev" json:"std_dev"`
	Min    float64 `yaml:"min" json:"min"`
	P5     float64 `yaml:"p5" json:"p5"`
	P50    float64 `yaml:"p50" json:"p50"`
	P95    float64 `yaml:"p95" json:"p95"`
	Max    float64 `yaml:"max" json:"max"`
}

// MonteCarloFinalEquity shuffles the pnls n times and returns the final equity
// (1 + sum of pnls) of each permutation.
func MonteCarloFinalEquity(pnls []float64, n int, seed optional.Option[int64]) []float64 {
	return resample(pnls, n, seed, func(shuffled []float64) float64 {
		equity := 1.0
		for _, p := range shuffled {
			equity += p
		}

		return equity
	})
}

// MonteCarloDrawdowns shuffles the pnls n times and returns the max drawdown
// percentage of each permutation's equity path starting at 1.
func MonteCarloDrawdowns(pnls []float64, n int, seed optional.Option[int64]) []float64 {
	return resample(pnls, n, seed, func(shuffled []float64) float64 {
		path := make([]float64, 0, len(shuffled)+1)
		path = append(path, 1.0)

		for _, p := range shuffled {
			path = append(path, path[len(path)-1]+p)
		}

		return MaxDrawdown(path)
	})
}

// resample draws every permutation from a single source so a seed reproduces the whole run.
func resample(pnls []float64, n int, seed optional.Option[int64], measure func([]float64) float64) []float64 {
	if len(pnls) == 0 || n <= 0 {
		return []float64{}
	}

	rng := rand.New(rand.NewSource(seed.TakeOr(time.Now().UnixNano())))
	shuffled := make([]float64, len(pnls))
	results := make([]float64, 0, n)

	for i := 0; i < n; i++ {
		copy(shuffled, pnls)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		results = append(results, measure(shuffled))
	}

	return results
}

// Summarize computes mean, standard deviation and percentiles of values.
func Summarize(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Distribution{
		Count:  len(sorted),
		Mean:   mean(sorted),
		StdDev: populationStd(sorted),
		Min:    sorted[0],
		P5:     percentile(sorted, 5),
		P50:    percentile(sorted, 50),
		P95:    percentile(sorted, 95),
		Max:    sorted[len(sorted)-1],
	}
}

// percentile uses linear interpolation between closest ranks on sorted input.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	frac := rank - float64(lower)

	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
