package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// DataGenerator generates synthetic bars for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	Count    int
	// InitialPrice is the first open
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns (0.002 = 0.2%)
	Volatility float64
	// Trend is a per-bar drift added to every return
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the relative variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// SpikeProbability is the chance that a bar's volume is multiplied by SpikeMultiplier
	SpikeProbability float64
	SpikeMultiplier  float64
}

// DefaultConfig returns a 5 minute series with occasional volume spikes.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:         5 * time.Minute,
		Count:            1000,
		InitialPrice:     100.0,
		Volatility:       0.004,
		Trend:            0.0,
		VolumeBase:       10000,
		VolumeVariance:   0.3,
		SpikeProbability: 0.15,
		SpikeMultiplier:  3,
	}
}

// Generate creates bars following a geometric random walk.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller
		u1 := math.Max(g.rng.Float64(), 1e-12)
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z + config.Trend)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := g.rng.Float64() * config.Volatility * open
		lowExtension := g.rng.Float64() * config.Volatility * open

		high := math.Max(open, closePrice) + highExtension
		low := math.Min(open, closePrice) - lowExtension

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if g.rng.Float64() < config.SpikeProbability {
			volume *= config.SpikeMultiplier
		}

		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = closePrice
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// GenerateBars is a convenience wrapper with the default config and the given count.
func GenerateBars(seed int64, count int) []types.Bar {
	config := DefaultConfig()
	config.Count = count

	return NewDataGenerator(seed).Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
