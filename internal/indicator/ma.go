package indicator

import (
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// Source selects which bar field a moving average is taken over.
type Source string

const (
	SourceClose   Source = "close"
	SourceVolume  Source = "volume"
	SourceTypical Source = "typical"
)

// MA indicator implements a Simple Moving Average over a bar field.
type MA struct {
	period int
	source Source
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MA{
		period: 20,
		source: SourceVolume,
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Config configures the MA indicator. Expected parameters: period (int), optional source (Source).
func (m *MA) Config(params ...any) error {
	period, err := parsePeriodConfig(params)
	if err != nil {
		return err
	}

	source := m.source

	if len(params) >= 2 {
		s, ok := params[1].(Source)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for source parameter, expected indicator.Source")
		}

		switch s {
		case SourceClose, SourceVolume, SourceTypical:
			source = s
		default:
			return errors.Newf(errors.ErrCodeInvalidParameter, "unknown moving average source %q", s)
		}
	}

	m.period = period
	m.source = source

	return nil
}

// Compute returns the simple moving average of the configured source.
func (m *MA) Compute(bars []types.Bar, params ...any) ([]float64, error) {
	period, err := resolvePeriod(m.period, params)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(bars))

	for i, b := range bars {
		switch m.source {
		case SourceClose:
			values[i] = b.Close
		case SourceTypical:
			values[i] = b.TypicalPrice()
		default:
			values[i] = b.Volume
		}
	}

	return rollingMean(values, period), nil
}
