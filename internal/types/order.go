package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// SymbolFilters are the exchange rounding constraints of a symbol.
type SymbolFilters struct {
	MinQty    float64 `yaml:"min_qty" json:"min_qty" validate:"gt=0"`
	LotStep   float64 `yaml:"lot_step" json:"lot_step" validate:"gt=0"`
	PriceTick float64 `yaml:"price_tick" json:"price_tick" validate:"gt=0"`
}

// DefaultSymbolFilters are used until the exchange reports the real ones.
func DefaultSymbolFilters() SymbolFilters {
	return SymbolFilters{
		MinQty:    0.001,
		LotStep:   0.0001,
		PriceTick: 0.01,
	}
}

// Validate checks that every filter is positive.
func (f SymbolFilters) Validate() error {
	if err := validator.New().Struct(f); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSymbolFilters, "invalid symbol filters", err)
	}

	return nil
}

// OrderRequest is an entry with attached protective stop and take-profit.
type OrderRequest struct {
	Symbol          string  `yaml:"symbol" json:"symbol" validate:"required"`
	Side            Side    `yaml:"side" json:"side" validate:"required,oneof=LONG SHORT"`
	Quantity        float64 `yaml:"quantity" json:"quantity" validate:"gt=0"`
	EntryPrice      float64 `yaml:"entry_price" json:"entry_price" validate:"gte=0"`
	StopPrice       float64 `yaml:"stop_price" json:"stop_price" validate:"gt=0"`
	TakeProfitPrice float64 `yaml:"take_profit_price" json:"take_profit_price" validate:"gt=0"`
}

// Validate checks required fields and that the stop and target sit on the
// correct side of the entry for the given direction.
func (r OrderRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order request", err)
	}

	if r.EntryPrice == 0 {
		return nil
	}

	switch r.Side {
	case SideLong:
		if r.StopPrice >= r.EntryPrice || r.TakeProfitPrice <= r.EntryPrice {
			return errors.New(errors.ErrCodeInvalidParameter, "long order needs stop below and target above entry")
		}
	case SideShort:
		if r.StopPrice <= r.EntryPrice || r.TakeProfitPrice >= r.EntryPrice {
			return errors.New(errors.ErrCodeInvalidParameter, "short order needs stop above and target below entry")
		}
	}

	return nil
}

// OrderResult is what the exchange adapter reports back for an entry.
type OrderResult struct {
	Success  bool    `yaml:"success" json:"success"`
	OrderID  string  `yaml:"order_id" json:"order_id"`
	AvgPrice float64 `yaml:"avg_price" json:"avg_price"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
	Message  string  `yaml:"message" json:"message"`
}

// Position is an exchange-side open position.
type Position struct {
	Symbol        string  `yaml:"symbol" json:"symbol"`
	Side          Side    `yaml:"side" json:"side"`
	Quantity      float64 `yaml:"quantity" json:"quantity"`
	EntryPrice    float64 `yaml:"entry_price" json:"entry_price"`
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	Leverage      int     `yaml:"leverage" json:"leverage"`
}

// AccountTrade is one fill from the account trade history.
type AccountTrade struct {
	ID          int64        `yaml:"id" json:"id"`
	OrderID     int64        `yaml:"order_id" json:"order_id"`
	Symbol      string       `yaml:"symbol" json:"symbol"`
	Side        PurchaseType `yaml:"side" json:"side"`
	Price       float64      `yaml:"price" json:"price"`
	Quantity    float64      `yaml:"quantity" json:"quantity"`
	Commission  float64      `yaml:"commission" json:"commission"`
	Time        time.Time    `yaml:"time" json:"time"`
	RealizedPnL float64      `yaml:"realized_pnl" json:"realized_pnl"`
}

// DailyLoss returns the realized loss of trades at or after since, floored at 0.
func DailyLoss(trades []AccountTrade, since time.Time) float64 {
	realized := 0.0

	for _, t := range trades {
		if !t.Time.Before(since) {
			realized += t.RealizedPnL
		}
	}

	if realized >= 0 {
		return 0
	}

	return -realized
}
