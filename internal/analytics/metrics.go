// Package analytics computes performance statistics from trade pnls and
// estimates their sensitivity to trade ordering.
package analytics

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

const (
	DefaultPeriodsPerYear = 252.0
	DefaultRiskFreeRate   = 0.0

	// stdEpsilon treats smaller standard deviations as zero.
	stdEpsilon = 1e-12
)

// SharpeRatio is the annualized mean excess return over its standard deviation.
// Returns 0 for empty input or a flat series.
func SharpeRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	excess := excessReturns(returns, riskFreeRate, periodsPerYear)

	sd := populationStd(excess)
	if sd <= stdEpsilon {
		return 0
	}

	return math.Sqrt(periodsPerYear) * mean(excess) / sd
}

// SortinoRatio is like SharpeRatio but divides by the standard deviation of
// the negative raw returns. Without usable downside it falls back to SharpeRatio.
func SortinoRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	excess := excessReturns(returns, riskFreeRate, periodsPerYear)

	var downside []float64

	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	if len(downside) == 0 {
		return SharpeRatio(returns, riskFreeRate, periodsPerYear)
	}

	sd := populationStd(downside)
	if sd <= stdEpsilon {
		return SharpeRatio(returns, riskFreeRate, periodsPerYear)
	}

	return math.Sqrt(periodsPerYear) * mean(excess) / sd
}

// MaxDrawdown returns the largest decline from a running peak as a
// non-positive percentage. A zero peak is treated as 1.
func MaxDrawdown(cumulative []float64) float64 {
	if len(cumulative) == 0 {
		return 0
	}

	peak := cumulative[0]
	worst := 0.0

	for _, v := range cumulative {
		if v > peak {
			peak = v
		}

		denominator := peak
		if denominator == 0 {
			denominator = 1
		}

		if dd := (v - peak) / denominator; dd < worst {
			worst = dd
		}
	}

	return worst * 100
}

// WinRate is the fraction of pnls that are strictly positive.
func WinRate(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}

	wins := 0

	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}

	return float64(wins) / float64(len(pnls))
}

// ProfitFactor is gross profit over gross loss. Without losses it is +Inf when
// there is any profit and 0 otherwise.
func ProfitFactor(pnls []float64) float64 {
	grossProfit, grossLoss := 0.0, 0.0

	for _, p := range pnls {
		switch {
		case p > 0:
			grossProfit += p
		case p < 0:
			grossLoss += -p
		}
	}

	if grossLoss <= 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}

		return 0
	}

	return grossProfit / grossLoss
}

// Expectancy is the mean pnl per trade.
func Expectancy(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}

	return sum(pnls) / float64(len(pnls))
}

// ComputeMetrics uses the default risk-free rate and annualization.
func ComputeMetrics(pnls []float64, cumulative optional.Option[[]float64]) types.PerformanceMetrics {
	return ComputeMetricsWithOptions(pnls, cumulative, DefaultRiskFreeRate, DefaultPeriodsPerYear)
}

// ComputeMetricsWithOptions builds the full metrics bundle.
//
// cumulative is an equity series expressed relative to a starting value of 1
// (for a backtest: equity / initial capital, starting with 1). When it is None,
// the series is derived by adding each pnl to 1, without the leading 1.
// Per-period returns are the first differences of [1] + cumulative, or the
// total pnl alone when the series has a single point.
func ComputeMetricsWithOptions(pnls []float64, cumulative optional.Option[[]float64], riskFreeRate, periodsPerYear float64) types.PerformanceMetrics {
	if len(pnls) == 0 {
		return types.PerformanceMetrics{}
	}

	totalPnL := sum(pnls)

	var series []float64

	if cumulative.IsSome() && len(cumulative.Unwrap()) > 0 {
		series = cumulative.Unwrap()
	} else {
		series = make([]float64, 0, len(pnls))
		equity := 1.0

		for _, p := range pnls {
			equity += p
			series = append(series, equity)
		}
	}

	var returns []float64

	if len(series) > 1 {
		returns = make([]float64, len(series))
		prev := 1.0

		for i, v := range series {
			returns[i] = v - prev
			prev = v
		}
	} else {
		returns = []float64{totalPnL}
	}

	var wins, losses []float64

	for _, p := range pnls {
		switch {
		case p > 0:
			wins = append(wins, p)
		case p < 0:
			losses = append(losses, p)
		}
	}

	return types.PerformanceMetrics{
		TotalReturnPct: (series[len(series)-1] - 1) * 100,
		SharpeRatio:    SharpeRatio(returns, riskFreeRate, periodsPerYear),
		SortinoRatio:   SortinoRatio(returns, riskFreeRate, periodsPerYear),
		MaxDrawdownPct: MaxDrawdown(series),
		WinRate:        WinRate(pnls),
		ProfitFactor:   ProfitFactor(pnls),
		Expectancy:     Expectancy(pnls),
		TotalTrades:    len(pnls),
		WinningTrades:  len(wins),
		LosingTrades:   len(losses),
		AvgWin:         meanOrZero(wins),
		AvgLoss:        meanOrZero(losses),
		TotalPnL:       totalPnL,
	}
}

func excessReturns(returns []float64, riskFreeRate, periodsPerYear float64) []float64 {
	perPeriod := riskFreeRate / periodsPerYear
	excess := make([]float64, len(returns))

	for i, r := range returns {
		excess[i] = r - perPeriod
	}

	return excess
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}

	return total
}

func mean(values []float64) float64 {
	return sum(values) / float64(len(values))
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return mean(values)
}

// populationStd divides by n, not n-1.
func populationStd(values []float64) float64 {
	m := mean(values)
	variance := 0.0

	for _, v := range values {
		variance += (v - m) * (v - m)
	}

	return math.Sqrt(variance / float64(len(values)))
}
