package risk

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// Config holds the pre-trade limits enforced by Manager.
type Config struct {
	// RiskPerTradeUSD is the loss taken if the stop is hit.
	RiskPerTradeUSD float64 `yaml:"risk_per_trade_usd" json:"risk_per_trade_usd" jsonschema:"title=Risk per trade (USD),default=10" validate:"gt=0"`
	MaxDailyLossUSD float64 `yaml:"max_daily_loss_usd" json:"max_daily_loss_usd" jsonschema:"title=Daily loss cap (USD),default=50" validate:"gt=0"`
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct" jsonschema:"title=Max drawdown (%),default=20" validate:"gt=0,lte=100"`
	MinNotional     float64 `yaml:"min_notional" json:"min_notional" jsonschema:"title=Minimum order notional,default=5" validate:"gte=0"`
	// MaxPositionPctCapital caps notional at this percentage of equity.
	MaxPositionPctCapital float64 `yaml:"max_position_pct_capital" json:"max_position_pct_capital" jsonschema:"title=Max position (% of capital),default=100" validate:"gt=0"`
	MinRiskReward         float64 `yaml:"min_risk_reward" json:"min_risk_reward" jsonschema:"title=Minimum reward/risk,default=1" validate:"gte=0"`
	UseATRPositionCap     bool    `yaml:"use_atr_position_cap" json:"use_atr_position_cap" jsonschema:"title=Scale size down in high volatility,default=true"`
	// ATRCapPct is the ATR as % of price above which size is scaled down.
	ATRCapPct float64 `yaml:"atr_cap_pct" json:"atr_cap_pct" jsonschema:"title=ATR cap threshold (% of price),default=5" validate:"gt=0"`
	// TrailingStopATRMult is reserved, not applied: no engine trails the stop, so
	// trailing_stop exits are never produced.
	TrailingStopATRMult float64 `yaml:"trailing_stop_atr_mult" json:"trailing_stop_atr_mult" jsonschema:"title=Trailing stop in ATR (reserved; not applied),default=0" validate:"gte=0"`
}

// DefaultConfig returns the default risk limits.
func DefaultConfig() Config {
	return Config{
		RiskPerTradeUSD:       10,
		MaxDailyLossUSD:       50,
		MaxDrawdownPct:        20,
		MinNotional:           5,
		MaxPositionPctCapital: 100,
		MinRiskReward:         1.0,
		UseATRPositionCap:     true,
		ATRCapPct:             5,
		TrailingStopATRMult:   0,
	}
}

// Validate checks the config against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeRiskConfigError, "invalid risk config", err)
	}

	return nil
}
