package indicator

import (
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// RSI indicator implements the Relative Strength Index using simple rolling
// means of gains and losses. Rows before the first full window are NaN, and so
// are rows where the average loss is zero.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	period, err := parsePeriodConfig(params)
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Compute returns the RSI of close for every bar.
func (r *RSI) Compute(bars []types.Bar, params ...any) ([]float64, error) {
	period, err := resolvePeriod(r.period, params)
	if err != nil {
		return nil, err
	}

	n := len(bars)
	gains := nanSeries(n)
	losses := nanSeries(n)

	for i := 1; i < n; i++ {
		delta := bars[i].Close - bars[i-1].Close
		gains[i] = max(delta, 0)
		losses[i] = max(-delta, 0)
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)

	out := nanSeries(n)

	for i := range out {
		if isNaN(avgGain[i]) || isNaN(avgLoss[i]) || avgLoss[i] == 0 {
			continue
		}

		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}

	return out, nil
}
