package types

import "time"

type ExitReason string

const (
	ExitReasonStopLoss      ExitReason = "stop_loss"
	ExitReasonTakeProfit    ExitReason = "take_profit"
	ExitReasonEndOfData     ExitReason = "end_of_data"
	ExitReasonTrailingStop  ExitReason = "trailing_stop"
	ExitReasonManual        ExitReason = "manual"
	ExitReasonSignalReverse ExitReason = "signal_reverse"
)

// OpenPosition is the single position held by the backtest state machine.
type OpenPosition struct {
	Side            Side
	EntryPrice      float64
	Quantity        float64
	StopPrice       float64
	TakeProfitPrice float64
	EntryIndex      int
	EntryTime       time.Time
}

// TradeRecord is a closed round trip.
type TradeRecord struct {
	ID         string     `yaml:"id" json:"id" csv:"id"`
	Symbol     string     `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side       Side       `yaml:"side" json:"side" csv:"side"`
	Quantity   float64    `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice float64    `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64    `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	PnL        float64    `yaml:"pnl" json:"pnl" csv:"pnl"`
	PnLPct     float64    `yaml:"pnl_pct" json:"pnl_pct" csv:"pnl_pct"`
	EntryTime  time.Time  `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime   time.Time  `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitReason ExitReason `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
	Fees       float64    `yaml:"fees" json:"fees" csv:"fees"`
}

// HoldingTime is the time between entry and exit.
func (t TradeRecord) HoldingTime() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// PnLs extracts realized pnl of each trade in order.
func PnLs(trades []TradeRecord) []float64 {
	pnls := make([]float64, len(trades))
	for i, t := range trades {
		pnls[i] = t.PnL
	}

	return pnls
}

// EquityPoint is the account equity after processing one bar.
type EquityPoint struct {
	Index  int       `yaml:"index" json:"index"`
	Time   time.Time `yaml:"time" json:"time"`
	Equity float64   `yaml:"equity" json:"equity"`
}

type EquityCurve []EquityPoint

// Values returns the equity values in order.
func (c EquityCurve) Values() []float64 {
	values := make([]float64, len(c))
	for i, p := range c {
		values[i] = p.Equity
	}

	return values
}
