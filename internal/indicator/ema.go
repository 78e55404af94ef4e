package indicator

import (
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// EMA indicator implements Exponential Moving Average calculation on close.
// The series is seeded with the first close and uses alpha = 2/(period+1),
// which matches pandas ewm(span=period, adjust=False).
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	period, err := parsePeriodConfig(params)
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Compute returns the EMA of close for every bar.
func (e *EMA) Compute(bars []types.Bar, params ...any) ([]float64, error) {
	period, err := resolvePeriod(e.period, params)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	return exponentialMovingAverage(closes, period), nil
}

func exponentialMovingAverage(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)
	out[0] = values[0]

	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}
