package types

import "time"

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

type PurchaseType string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

// Sign is +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}

	return 1
}

// OrderSide is the order side that opens a position on this side.
func (s Side) OrderSide() PurchaseType {
	if s == SideShort {
		return PurchaseTypeSell
	}

	return PurchaseTypeBuy
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideShort {
		return SideLong
	}

	return SideShort
}

// SignalIntent is a proposed entry produced by a strategy. Quantity is always
// zero here; the risk manager decides the size.
type SignalIntent struct {
	Side            Side      `yaml:"side" json:"side"`
	EntryPrice      float64   `yaml:"entry_price" json:"entry_price"`
	StopPrice       float64   `yaml:"stop_price" json:"stop_price"`
	TakeProfitPrice float64   `yaml:"take_profit_price" json:"take_profit_price"`
	Quantity        float64   `yaml:"quantity" json:"quantity"`
	Time            time.Time `yaml:"time" json:"time"`
	// ATR and RSI at the bar the signal was read from.
	ATR float64 `yaml:"atr" json:"atr"`
	RSI float64 `yaml:"rsi" json:"rsi"`
}

// StopDistance is |entry - stop|.
func (s SignalIntent) StopDistance() float64 {
	d := s.EntryPrice - s.StopPrice
	if d < 0 {
		return -d
	}

	return d
}

// TargetDistance is |take profit - entry|.
func (s SignalIntent) TargetDistance() float64 {
	d := s.TakeProfitPrice - s.EntryPrice
	if d < 0 {
		return -d
	}

	return d
}

// SizingDecision is the outcome of risk validation.
// Allowed decisions carry a positive quantity; rejected ones carry a reason.
type SizingDecision struct {
	Allowed  bool    `yaml:"allowed" json:"allowed"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
	Reason   string  `yaml:"reason" json:"reason"`
}

func Allow(quantity float64) SizingDecision {
	return SizingDecision{Allowed: true, Quantity: quantity}
}

func Reject(reason string) SizingDecision {
	return SizingDecision{Allowed: false, Reason: reason}
}
