package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceMetrics summarizes a list of trade pnls.
type PerformanceMetrics struct {
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	SharpeRatio    float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio   float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// WinRate is a fraction in [0, 1].
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// ProfitFactor is +Inf when there are wins and no losses.
	ProfitFactor  float64 `yaml:"profit_factor" json:"profit_factor"`
	Expectancy    float64 `yaml:"expectancy" json:"expectancy"`
	TotalTrades   int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades  int     `yaml:"losing_trades" json:"losing_trades"`
	AvgWin        float64 `yaml:"avg_win" json:"avg_win"`
	AvgLoss       float64 `yaml:"avg_loss" json:"avg_loss"`
	TotalPnL      float64 `yaml:"total_pnl" json:"total_pnl"`
}

// BacktestStats is written as stats.yaml next to the parquet exports of a run.
type BacktestStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp     time.Time `yaml:"timestamp" json:"timestamp"`
	Symbol        string    `yaml:"symbol" json:"symbol"`
	Strategy      string    `yaml:"strategy" json:"strategy"`
	EngineVersion string    `yaml:"engine_version" json:"engine_version"`
	Bars          int       `yaml:"bars" json:"bars"`
	// InitialCapital and FinalEquity are in quote currency.
	InitialCapital float64            `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64            `yaml:"final_equity" json:"final_equity"`
	TotalFees      float64            `yaml:"total_fees" json:"total_fees"`
	ExitReasons    map[ExitReason]int `yaml:"exit_reasons" json:"exit_reasons"`
	Metrics        PerformanceMetrics `yaml:"metrics" json:"metrics"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// EquityFilePath is the path to the equity parquet file.
	EquityFilePath string `yaml:"equity_file_path" json:"equity_file_path"`
}

// WriteBacktestStats writes the stats to a yaml file.
func WriteBacktestStats(path string, stats BacktestStats) error {
	yamlBytes, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest stats: %w", err)
	}

	return os.WriteFile(path, yamlBytes, 0644)
}

// ReadBacktestStats reads a stats.yaml written by WriteBacktestStats.
func ReadBacktestStats(path string) (BacktestStats, error) {
	var stats BacktestStats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("failed to read backtest stats: %w", err)
	}

	if err := yaml.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("failed to unmarshal backtest stats: %w", err)
	}

	return stats, nil
}

// BacktestResult is the in-memory outcome of one backtest run.
type BacktestResult struct {
	RunID string
	// InitialEquity is the capital before the first simulated bar.
	InitialEquity float64
	Trades        []TradeRecord
	// EquityCurve has one point per simulated bar.
	EquityCurve EquityCurve
	Metrics     PerformanceMetrics
}

// FinalEquity is the last point of the equity curve, or the initial equity
// when no bar was simulated.
func (r BacktestResult) FinalEquity() float64 {
	if len(r.EquityCurve) == 0 {
		return r.InitialEquity
	}

	return r.EquityCurve[len(r.EquityCurve)-1].Equity
}

// TotalFees sums the fees of every trade.
func (r BacktestResult) TotalFees() float64 {
	total := 0.0
	for _, t := range r.Trades {
		total += t.Fees
	}

	return total
}

// ExitReasons counts trades per exit reason.
func (r BacktestResult) ExitReasons() map[ExitReason]int {
	counts := make(map[ExitReason]int)
	for _, t := range r.Trades {
		counts[t.ExitReason]++
	}

	return counts
}
