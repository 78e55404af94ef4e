package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// ATR indicator implements Average True Range as a simple rolling mean of the
// true range. The first bar has no previous close, so its true range is high-low.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := parsePeriodConfig(params)
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Compute returns the ATR for every bar.
func (a *ATR) Compute(bars []types.Bar, params ...any) ([]float64, error) {
	period, err := resolvePeriod(a.period, params)
	if err != nil {
		return nil, err
	}

	return rollingMean(trueRange(bars), period), nil
}

func trueRange(bars []types.Bar) []float64 {
	tr := make([]float64, len(bars))

	for i, b := range bars {
		tr[i] = b.High - b.Low
		if i == 0 {
			continue
		}

		prevClose := bars[i-1].Close
		tr[i] = math.Max(tr[i], math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}

	return tr
}
