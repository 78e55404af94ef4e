package strategy

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/indicator"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// EmaRsiVwapConfig holds the parameters of the EMA crossover + RSI + VWAP +
// volume spike strategy.
type EmaRsiVwapConfig struct {
	EMAFast         int     `yaml:"ema_fast" json:"ema_fast" jsonschema:"title=Fast EMA,default=9" validate:"gt=0"`
	EMASlow         int     `yaml:"ema_slow" json:"ema_slow" jsonschema:"title=Slow EMA,default=21" validate:"gt=0"`
	RSILen          int     `yaml:"rsi_len" json:"rsi_len" jsonschema:"title=RSI length,default=7" validate:"gt=0"`
	ATRLen          int     `yaml:"atr_len" json:"atr_len" jsonschema:"title=ATR length,default=14" validate:"gt=0"`
	ATRStopMult     float64 `yaml:"atr_stop_mult" json:"atr_stop_mult" jsonschema:"title=Stop distance in ATR,default=0.8" validate:"gt=0"`
	ATRTPMult       float64 `yaml:"atr_tp_mult" json:"atr_tp_mult" jsonschema:"title=Target distance in ATR,default=1.6" validate:"gt=0"`
	VolMult         float64 `yaml:"vol_mult" json:"vol_mult" jsonschema:"title=Volume spike multiplier,default=1.5" validate:"gte=0"`
	VolMALen        int     `yaml:"vol_ma_len" json:"vol_ma_len" jsonschema:"title=Volume MA length,default=20" validate:"gt=0"`
	RSILongMin      float64 `yaml:"rsi_long_min" json:"rsi_long_min" jsonschema:"title=Minimum RSI for longs,default=48" validate:"gte=0,lte=100"`
	RSIShortMax     float64 `yaml:"rsi_short_max" json:"rsi_short_max" jsonschema:"title=Maximum RSI for shorts,default=52" validate:"gte=0,lte=100"`
	CooldownCandles int     `yaml:"cooldown_candles" json:"cooldown_candles" jsonschema:"title=Cooldown bars after entry,default=1" validate:"gte=0"`
}

// DefaultEmaRsiVwapConfig returns the default parameters.
func DefaultEmaRsiVwapConfig() EmaRsiVwapConfig {
	return EmaRsiVwapConfig{
		EMAFast:         9,
		EMASlow:         21,
		RSILen:          7,
		ATRLen:          14,
		ATRStopMult:     0.8,
		ATRTPMult:       1.6,
		VolMult:         1.5,
		VolMALen:        20,
		RSILongMin:      48,
		RSIShortMax:     52,
		CooldownCandles: 1,
	}
}

// EmaRsiVwap goes long when the fast EMA is above the slow EMA, close is above
// VWAP and RSI is above RSILongMin, and short in the mirrored case. Both sides
// need a volume spike and a positive ATR. Stop and target are ATR multiples
// around the close.
type EmaRsiVwap struct {
	config   EmaRsiVwapConfig
	registry indicator.IndicatorRegistry
}

// NewEmaRsiVwap validates the config and builds the strategy.
func NewEmaRsiVwap(config EmaRsiVwapConfig) (*EmaRsiVwap, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid ema_rsi_vwap config", err)
	}

	return &EmaRsiVwap{
		config:   config,
		registry: indicator.NewDefaultIndicatorRegistry(),
	}, nil
}

func (s *EmaRsiVwap) Name() string {
	return StrategyEmaRsiVwap
}

func (s *EmaRsiVwap) Config() EmaRsiVwapConfig {
	return s.config
}

func (s *EmaRsiVwap) MinBars() int {
	return max(s.config.EMASlow, s.config.ATRLen, s.config.VolMALen) + 2
}

func (s *EmaRsiVwap) CooldownBars() int {
	return s.config.CooldownCandles
}

// ComputeIndicators builds every column the strategy reads. The input is not modified.
func (s *EmaRsiVwap) ComputeIndicators(bars []types.Bar) (types.IndicatorFrame, error) {
	frame := types.IndicatorFrame{Bars: bars}

	columns := []struct {
		name   types.IndicatorType
		period any
		dest   *[]float64
	}{
		{types.IndicatorTypeEMA, s.config.EMAFast, &frame.EMAFast},
		{types.IndicatorTypeEMA, s.config.EMASlow, &frame.EMASlow},
		{types.IndicatorTypeRSI, s.config.RSILen, &frame.RSI},
		{types.IndicatorTypeATR, s.config.ATRLen, &frame.ATR},
		{types.IndicatorTypeVWAP, nil, &frame.VWAP},
		{types.IndicatorTypeMA, s.config.VolMALen, &frame.VolMA},
	}

	for _, c := range columns {
		ind, err := s.registry.GetIndicator(c.name)
		if err != nil {
			return types.IndicatorFrame{}, err
		}

		var params []any
		if c.period != nil {
			params = append(params, c.period)
		}

		values, err := ind.Compute(bars, params...)
		if err != nil {
			return types.IndicatorFrame{}, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to compute %s", c.name)
		}

		*c.dest = values
	}

	return frame, nil
}

// GetSignal reads the last closed row (Len()-2) and returns an entry proposal
// or None. Missing RSI reads as 50, missing ATR as 0 and a missing volume
// average as the bar's own volume.
func (s *EmaRsiVwap) GetSignal(frame types.IndicatorFrame) optional.Option[types.SignalIntent] {
	if frame.Len() < s.MinBars() {
		return optional.None[types.SignalIntent]()
	}

	row := frame.Row(frame.Len() - 2)
	closePrice := row.Bar.Close

	rsi := row.RSI
	if math.IsNaN(rsi) {
		rsi = 50
	}

	atr := row.ATR
	if math.IsNaN(atr) {
		atr = 0
	}

	volume := row.Bar.Volume

	volMA := row.VolMA
	if math.IsNaN(volMA) {
		volMA = volume
	}

	volumeSpike := volume > volMA*s.config.VolMult
	if atr <= 0 || !volumeSpike {
		return optional.None[types.SignalIntent]()
	}

	longOK := row.EMAFast > row.EMASlow && closePrice > row.VWAP && rsi > s.config.RSILongMin
	shortOK := row.EMAFast < row.EMASlow && closePrice < row.VWAP && rsi < s.config.RSIShortMax

	var side types.Side

	switch {
	case longOK:
		side = types.SideLong
	case shortOK:
		side = types.SideShort
	default:
		return optional.None[types.SignalIntent]()
	}

	sign := side.Sign()

	return optional.Some(types.SignalIntent{
		Side:            side,
		EntryPrice:      closePrice,
		StopPrice:       closePrice - sign*atr*s.config.ATRStopMult,
		TakeProfitPrice: closePrice + sign*atr*s.config.ATRTPMult,
		Quantity:        0,
		Time:            row.Bar.Time,
		ATR:             atr,
		RSI:             rsi,
	})
}
