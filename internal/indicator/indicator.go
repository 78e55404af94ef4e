package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config sets the default parameters of the indicator
	Config(params ...any) error
	// Compute returns one value per bar. Rows without enough history are NaN.
	// An optional period (int or optional.Option[int]) overrides the configured one.
	Compute(bars []types.Bar, params ...any) ([]float64, error)
}

// resolvePeriod picks the period override from params, falling back to def.
func resolvePeriod(def int, params []any) (int, error) {
	period := def

	if len(params) >= 1 {
		switch p := params[0].(type) {
		case int:
			period = p
		case optional.Option[int]:
			if p.IsSome() {
				period = p.Unwrap()
			}
		default:
			return 0, errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int or optional.Option[int]")
		}
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return period, nil
}

// parsePeriodConfig validates the single period parameter of Config.
func parsePeriodConfig(params []any) (int, error) {
	if len(params) < 1 {
		return 0, errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return period, nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}

	return out
}

// rollingMean is a trailing simple mean over window values. A window containing
// NaN yields NaN, as do the first window-1 rows.
func rollingMean(values []float64, window int) []float64 {
	out := nanSeries(len(values))

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		valid := true

		for j := i - window + 1; j <= i; j++ {
			if isNaN(values[j]) {
				valid = false

				break
			}

			sum += values[j]
		}

		if valid {
			out[i] = sum / float64(window)
		}
	}

	return out
}
