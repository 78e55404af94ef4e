package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"go.uber.org/zap"
)

const (
	ReasonZeroStopDistance = "zero stop distance"
	ReasonQtyRoundedToZero = "qty rounded to 0"
	ReasonCapitalLimit     = "position would exceed capital limit"
	ReasonATRCap           = "ATR cap reduced qty below min"
	ReasonDailyLossCap     = "daily loss cap"
	ReasonMaxDrawdown      = "max drawdown"
)

// State is the mutable bookkeeping of a Manager. Only Manager methods change it.
type State struct {
	PeakEquity        float64   `yaml:"peak_equity" json:"peak_equity"`
	CurrentEquity     float64   `yaml:"current_equity" json:"current_equity"`
	DailyLoss         float64   `yaml:"daily_loss" json:"daily_loss"`
	DailyResetDate    time.Time `yaml:"daily_reset_date" json:"daily_reset_date"`
	ConsecutiveLosses int       `yaml:"consecutive_losses" json:"consecutive_losses"`
}

// Manager sizes entries from a fixed dollar risk and enforces the pre-trade caps.
// It is not safe for concurrent use; one trading loop owns it.
type Manager struct {
	config  Config
	filters types.SymbolFilters
	state   State
	log     *logger.Logger
}

// NewManager validates config and filters and returns a Manager with empty state.
func NewManager(config Config, filters types.SymbolFilters, log *logger.Logger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := filters.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		config:  config,
		filters: filters,
		log:     log,
	}, nil
}

// Config returns the limits in use.
func (m *Manager) Config() Config {
	return m.config
}

// SymbolFilters returns the rounding filters in use.
func (m *Manager) SymbolFilters() types.SymbolFilters {
	return m.filters
}

// UpdateSymbolFilters replaces the lot and tick filters, e.g. after reading exchange info.
func (m *Manager) UpdateSymbolFilters(filters types.SymbolFilters) error {
	if err := filters.Validate(); err != nil {
		return err
	}

	m.filters = filters

	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	return m.state
}

// Reset starts a new run at equity with no losses recorded.
func (m *Manager) Reset(equity float64, date time.Time) {
	m.state = State{
		PeakEquity:     equity,
		CurrentEquity:  equity,
		DailyResetDate: utils.UTCDate(date),
	}
}

// SetEquity records the current equity and raises the peak if needed.
func (m *Manager) SetEquity(equity float64) {
	m.state.CurrentEquity = equity
	if equity > m.state.PeakEquity {
		m.state.PeakEquity = equity
	}
}

// SetDailyLoss sets the realized loss for date. A new date first resets the
// running loss. Negative values are stored as 0.
func (m *Manager) SetDailyLoss(loss float64, date time.Time) {
	day := utils.UTCDate(date)
	if !m.state.DailyResetDate.Equal(day) {
		m.state.DailyResetDate = day
		m.state.DailyLoss = 0
	}

	m.state.DailyLoss = math.Max(0, loss)
}

// ResetDaily clears the daily loss for date.
func (m *Manager) ResetDaily(date time.Time) {
	m.SetDailyLoss(0, date)
}

// RecordTradePnL adds a closed trade's pnl to the daily loss and loss streak.
func (m *Manager) RecordTradePnL(pnl float64) {
	if pnl < 0 {
		m.state.DailyLoss += -pnl
		m.state.ConsecutiveLosses++

		return
	}

	m.state.ConsecutiveLosses = 0
}

// CheckDailyLoss reports false once the daily loss reaches the cap.
func (m *Manager) CheckDailyLoss() bool {
	if m.state.DailyLoss >= m.config.MaxDailyLossUSD {
		m.log.Warn("Daily loss cap reached",
			zap.Float64("daily_loss", m.state.DailyLoss),
			zap.Float64("max_daily_loss", m.config.MaxDailyLossUSD))

		return false
	}

	return true
}

// CheckDrawdown reports false once drawdown from peak reaches the cap.
func (m *Manager) CheckDrawdown() bool {
	if m.state.PeakEquity <= 0 {
		return true
	}

	drawdownPct := m.DrawdownPct()
	if drawdownPct >= m.config.MaxDrawdownPct {
		m.log.Warn("Max drawdown exceeded",
			zap.Float64("drawdown_pct", drawdownPct),
			zap.Float64("max_drawdown_pct", m.config.MaxDrawdownPct))

		return false
	}

	return true
}

// DrawdownPct is (peak - current) / peak * 100, or 0 without a peak.
func (m *Manager) DrawdownPct() float64 {
	if m.state.PeakEquity <= 0 {
		return 0
	}

	return (m.state.PeakEquity - m.state.CurrentEquity) / m.state.PeakEquity * 100
}

// Validate sizes intent and runs the checks in order. The first failing check
// decides the rejection reason:
//
//  1. zero stop distance
//  2. reward/risk below MinRiskReward
//  3. quantity rounds to zero
//  4. notional below MinNotional
//  5. capital cap (equity supplied only)
//  6. ATR volatility cap
//  7. daily loss cap
//  8. drawdown cap (equity supplied only)
//
// atr is the ATR of the bar the signal was read from.
func (m *Manager) Validate(intent types.SignalIntent, atr float64, equity optional.Option[float64]) types.SizingDecision {
	entry := intent.EntryPrice

	distance := intent.StopDistance()
	if distance <= 0 {
		return types.Reject(ReasonZeroStopDistance)
	}

	riskReward := intent.TargetDistance() / distance
	if riskReward < m.config.MinRiskReward {
		return types.Reject(fmt.Sprintf("risk_reward %.2f < %.2f", riskReward, m.config.MinRiskReward))
	}

	qty := m.roundQuantity(m.config.RiskPerTradeUSD / distance)
	if qty <= 0 {
		return types.Reject(ReasonQtyRoundedToZero)
	}

	notional := qty * entry
	if notional < m.config.MinNotional {
		return types.Reject(fmt.Sprintf("notional %.2f < min %.2f", notional, m.config.MinNotional))
	}

	if e, ok := equityValue(equity); ok && e > 0 {
		maxNotional := e * m.config.MaxPositionPctCapital / 100
		if notional > maxNotional {
			qty = m.roundQuantity(maxNotional / entry)
			if qty < m.filters.MinQty {
				return types.Reject(ReasonCapitalLimit)
			}
		}
	}

	if m.config.UseATRPositionCap && atr > 0 && entry > 0 {
		atrPct := atr / entry * 100
		if atrPct > m.config.ATRCapPct {
			qty = m.roundQuantity(qty * m.config.ATRCapPct / atrPct)
			if qty < m.filters.MinQty {
				return types.Reject(ReasonATRCap)
			}
		}
	}

	if !m.CheckDailyLoss() {
		return types.Reject(ReasonDailyLossCap)
	}

	if equity.IsSome() && !m.CheckDrawdown() {
		return types.Reject(ReasonMaxDrawdown)
	}

	return types.Allow(qty)
}

// RoundPrice rounds price to the symbol's tick.
func (m *Manager) RoundPrice(price float64) float64 {
	return utils.RoundPrice(price, m.filters.PriceTick)
}

func (m *Manager) roundQuantity(qty float64) float64 {
	return utils.RoundQuantity(qty, m.filters.MinQty, m.filters.LotStep)
}

func equityValue(equity optional.Option[float64]) (float64, bool) {
	if equity.IsNone() {
		return 0, false
	}

	return equity.Unwrap(), true
}
