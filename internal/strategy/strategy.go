package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// Strategy turns bar history into entry proposals.
//
// GetSignal must only read rows up to Len()-2. The last row is the bar that is
// still forming in live mode, and in backtests it is the bar being acted on.
type Strategy interface {
	Name() string
	ComputeIndicators(bars []types.Bar) (types.IndicatorFrame, error)
	GetSignal(frame types.IndicatorFrame) optional.Option[types.SignalIntent]
	// MinBars is the number of rows GetSignal needs before it can fire.
	MinBars() int
	// CooldownBars is the number of flat bars to skip after an entry.
	CooldownBars() int
}

const (
	StrategyEmaRsiVwap = "ema_rsi_vwap"
)

// AvailableStrategies lists the strategy names NewStrategy accepts.
func AvailableStrategies() []string {
	return []string{StrategyEmaRsiVwap}
}

// NewStrategy builds the named strategy variant.
func NewStrategy(name string, config EmaRsiVwapConfig) (Strategy, error) {
	switch name {
	case StrategyEmaRsiVwap, "":
		return NewEmaRsiVwap(config)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q", name)
	}
}
