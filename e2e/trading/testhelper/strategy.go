package testhelper

import (
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/strategy"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// FixedSignalStrategy proposes the same entry on every closed bar. The stop
// sits StopDistance away from the last closed price and the target twice as far.
type FixedSignalStrategy struct {
	Side         types.Side
	StopDistance float64
	// ATR is reported for every row.
	ATR float64

	mu    sync.Mutex
	calls int
}

var _ strategy.Strategy = (*FixedSignalStrategy)(nil)

// NewFixedSignalStrategy creates a strategy that always signals side.
func NewFixedSignalStrategy(side types.Side, stopDistance float64, atr float64) *FixedSignalStrategy {
	return &FixedSignalStrategy{
		Side:         side,
		StopDistance: stopDistance,
		ATR:          atr,
		mu:           sync.Mutex{},
		calls:        0,
	}
}

// Name implements strategy.Strategy.
func (s *FixedSignalStrategy) Name() string {
	return "fixed_signal"
}

// MinBars implements strategy.Strategy.
func (s *FixedSignalStrategy) MinBars() int {
	return 2
}

// CooldownBars implements strategy.Strategy.
func (s *FixedSignalStrategy) CooldownBars() int {
	return 0
}

// ComputeIndicators implements strategy.Strategy.
func (s *FixedSignalStrategy) ComputeIndicators(bars []types.Bar) (types.IndicatorFrame, error) {
	atr := make([]float64, len(bars))
	for i := range atr {
		atr[i] = s.ATR
	}

	return types.IndicatorFrame{
		Bars: bars,
		ATR:  atr,
	}, nil
}

// GetSignal implements strategy.Strategy.
func (s *FixedSignalStrategy) GetSignal(frame types.IndicatorFrame) optional.Option[types.SignalIntent] {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if frame.Len() < s.MinBars() {
		return optional.None[types.SignalIntent]()
	}

	row := frame.Row(frame.Len() - 2)
	entry := row.Bar.Close
	sign := s.Side.Sign()

	return optional.Some(types.SignalIntent{
		Side:            s.Side,
		EntryPrice:      entry,
		StopPrice:       entry - sign*s.StopDistance,
		TakeProfitPrice: entry + sign*2*s.StopDistance,
		Quantity:        0,
		Time:            row.Bar.Time,
		ATR:             row.ATR,
		RSI:             row.RSI,
	})
}

// Calls returns how many times GetSignal ran.
func (s *FixedSignalStrategy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}
