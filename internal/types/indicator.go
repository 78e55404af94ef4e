package types

import "math"

type IndicatorType string

const (
	IndicatorTypeEMA  IndicatorType = "ema"
	IndicatorTypeRSI  IndicatorType = "rsi"
	IndicatorTypeATR  IndicatorType = "atr"
	IndicatorTypeVWAP IndicatorType = "vwap"
	IndicatorTypeMA   IndicatorType = "ma"
)

// IndicatorFrame holds the bars together with one indicator column per series.
// Every column has the same length as Bars. Rows without enough history hold NaN.
type IndicatorFrame struct {
	Bars    []Bar
	EMAFast []float64
	EMASlow []float64
	RSI     []float64
	ATR     []float64
	VWAP    []float64
	VolMA   []float64
}

// IndicatorRow is a single row of an IndicatorFrame.
type IndicatorRow struct {
	Bar     Bar
	EMAFast float64
	EMASlow float64
	RSI     float64
	ATR     float64
	VWAP    float64
	VolMA   float64
}

// Len returns the number of rows.
func (f IndicatorFrame) Len() int {
	return len(f.Bars)
}

// Row returns row i.
func (f IndicatorFrame) Row(i int) IndicatorRow {
	return IndicatorRow{
		Bar:     f.Bars[i],
		EMAFast: at(f.EMAFast, i),
		EMASlow: at(f.EMASlow, i),
		RSI:     at(f.RSI, i),
		ATR:     at(f.ATR, i),
		VWAP:    at(f.VWAP, i),
		VolMA:   at(f.VolMA, i),
	}
}

// Slice returns a view on the first n rows. The backing arrays are shared.
func (f IndicatorFrame) Slice(n int) IndicatorFrame {
	if n > f.Len() {
		n = f.Len()
	}

	if n < 0 {
		n = 0
	}

	return IndicatorFrame{
		Bars:    f.Bars[:n],
		EMAFast: head(f.EMAFast, n),
		EMASlow: head(f.EMASlow, n),
		RSI:     head(f.RSI, n),
		ATR:     head(f.ATR, n),
		VWAP:    head(f.VWAP, n),
		VolMA:   head(f.VolMA, n),
	}
}

func at(column []float64, i int) float64 {
	if i < 0 || i >= len(column) {
		return math.NaN()
	}

	return column[i]
}

func head(column []float64, n int) []float64 {
	if len(column) < n {
		return column
	}

	return column[:n]
}
