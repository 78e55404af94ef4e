package indicator

import (
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// VWAP indicator implements a volume weighted average price that accumulates
// from the first bar of the input.
type VWAP struct{}

// NewVWAP creates a new VWAP indicator.
func NewVWAP() Indicator {
	return &VWAP{}
}

// Name returns the name of the indicator.
func (v *VWAP) Name() types.IndicatorType {
	return types.IndicatorTypeVWAP
}

// Config accepts no parameters.
func (v *VWAP) Config(params ...any) error {
	return nil
}

// Compute returns cumulative(typical*volume) / cumulative(volume).
// Leading rows with zero cumulative volume divide by the first non-zero
// cumulative volume instead. If every bar has zero volume the result is NaN.
func (v *VWAP) Compute(bars []types.Bar, params ...any) ([]float64, error) {
	n := len(bars)
	pv := make([]float64, n)
	cumVolume := make([]float64, n)

	runningPV, runningVolume := 0.0, 0.0
	for i, b := range bars {
		runningPV += b.TypicalPrice() * b.Volume
		runningVolume += b.Volume
		pv[i] = runningPV
		cumVolume[i] = runningVolume
	}

	out := nanSeries(n)

	// backward fill zero denominators from the next non-zero one
	next := nan
	for i := n - 1; i >= 0; i-- {
		if cumVolume[i] != 0 {
			next = cumVolume[i]
		}

		if !isNaN(next) {
			out[i] = pv[i] / next
		}
	}

	return out, nil
}
