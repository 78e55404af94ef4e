package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/analytics"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	"github.com/rxtech-lab/argo-scalper/internal/strategy"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
)

// BacktestEngineV1 replays bars through one strategy and one risk manager
// holding at most one position at a time.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	strategy      strategy.Strategy
	riskManager   *risk.Manager
	commissionFee commission_fee.CommissionFee
	log           *logger.Logger
	state         *BacktestState
	dataPath      string
	barCount      int
}

func NewBacktestEngineV1(config BacktestEngineV1Config, strat strategy.Strategy, riskManager *risk.Manager, log *logger.Logger) (*BacktestEngineV1, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeBacktestConfigError, "strategy is required")
	}

	if riskManager == nil {
		return nil, errors.New(errors.ErrCodeBacktestConfigError, "risk manager is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:        config,
		strategy:      strat,
		riskManager:   riskManager,
		commissionFee: commission_fee.GetCommissionFeeHandler(config.FeeModel, config.FeeBps),
		log:           log,
	}, nil
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

// simulation is the mutable state of one run.
type simulation struct {
	capital  float64
	position optional.Option[types.OpenPosition]
	cooldown int
	lastDate optional.Option[time.Time]
	trades   []types.TradeRecord
	curve    types.EquityCurve
}

func (s *simulation) mark(i int, bar types.Bar) {
	s.curve = append(s.curve, types.EquityPoint{Index: i, Time: bar.Time, Equity: s.capital})
}

// MinBars returns the history the strategy needs before its first decision.
func (b *BacktestEngineV1) MinBars() int {
	return b.strategy.MinBars()
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, bars []types.Bar, callbacks engine.LifecycleCallbacks) (types.BacktestResult, error) {
	return b.RunWithWarmup(ctx, bars, 0, callbacks)
}

// RunWithWarmup is Run where the first warmup bars only feed indicators.
// Simulation starts at max(warmup, MinBars()).
func (b *BacktestEngineV1) RunWithWarmup(ctx context.Context, bars []types.Bar, warmup int, callbacks engine.LifecycleCallbacks) (result types.BacktestResult, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := types.ValidateBars(bars); err != nil {
		return types.BacktestResult{}, err
	}

	if warmup < 0 {
		return types.BacktestResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "negative warmup %d", warmup)
	}

	runID := uuid.New().String()
	minBars := b.strategy.MinBars()
	start := max(minBars, warmup)
	total := max(0, len(bars)-start)
	b.barCount = len(bars)

	b.log.Debug("Running backtest",
		zap.String("run_id", runID),
		zap.String("strategy", b.strategy.Name()),
		zap.Int("bars", len(bars)),
		zap.Int("min_bars", minBars),
		zap.Int("start", start),
	)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, total); err != nil {
			return types.BacktestResult{}, err
		}
	}

	sim := &simulation{capital: b.config.InitialCapital}

	if total > 0 {
		if err := b.simulate(ctx, sim, bars, start, total, callbacks); err != nil {
			return types.BacktestResult{}, err
		}
	} else {
		b.log.Info("Not enough bars to simulate",
			zap.Int("bars", len(bars)),
			zap.Int("min_bars", minBars),
			zap.Int("warmup", warmup),
		)
	}

	result = types.BacktestResult{
		RunID:         runID,
		InitialEquity: b.config.InitialCapital,
		Trades:        sim.trades,
		EquityCurve:   sim.curve,
		Metrics:       b.computeMetrics(sim.trades),
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_equity", result.FinalEquity()),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(result)
	}

	return result, nil
}

func (b *BacktestEngineV1) simulate(ctx context.Context, sim *simulation, bars []types.Bar, start int, total int, callbacks engine.LifecycleCallbacks) error {
	frame, err := b.strategy.ComputeIndicators(bars)
	if err != nil {
		return err
	}

	b.riskManager.Reset(sim.capital, bars[start].Time)

	slipMult := 1 + b.config.SlippageBps/10000

	for i := start; i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		bar := bars[i]

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i-start+1, total); err != nil {
				return err
			}
		}

		barDate := utils.UTCDate(bar.Time)
		if sim.lastDate.IsSome() && !sim.lastDate.Unwrap().Equal(barDate) {
			b.riskManager.ResetDaily(barDate)
		}

		sim.lastDate = optional.Some(barDate)

		// a bar that closes a position never opens one
		if sim.position.IsSome() {
			if err := b.checkExit(sim, bar, slipMult, callbacks); err != nil {
				return err
			}

			sim.mark(i, bar)

			continue
		}

		if sim.cooldown > 0 {
			sim.cooldown--
			sim.mark(i, bar)

			continue
		}

		if err := b.tryEnter(sim, frame, i, slipMult); err != nil {
			return err
		}

		sim.mark(i, bar)
	}

	if sim.position.IsSome() {
		if err := b.closeAtEnd(sim, bars[len(bars)-1], callbacks); err != nil {
			return err
		}
	}

	return nil
}

// exitLevel returns the stop or target touched by bar. The stop wins when
// both are inside the bar's range.
func exitLevel(pos types.OpenPosition, bar types.Bar) (float64, types.ExitReason, bool) {
	if pos.Side == types.SideLong {
		if bar.Low <= pos.StopPrice {
			return pos.StopPrice, types.ExitReasonStopLoss, true
		}

		if bar.High >= pos.TakeProfitPrice {
			return pos.TakeProfitPrice, types.ExitReasonTakeProfit, true
		}

		return 0, "", false
	}

	if bar.High >= pos.StopPrice {
		return pos.StopPrice, types.ExitReasonStopLoss, true
	}

	if bar.Low <= pos.TakeProfitPrice {
		return pos.TakeProfitPrice, types.ExitReasonTakeProfit, true
	}

	return 0, "", false
}

func (b *BacktestEngineV1) checkExit(sim *simulation, bar types.Bar, slipMult float64, callbacks engine.LifecycleCallbacks) error {
	pos := sim.position.Unwrap()

	level, reason, hit := exitLevel(pos, bar)
	if !hit {
		return nil
	}

	exitPrice := level * slipMult
	if pos.Side == types.SideLong {
		exitPrice = level / slipMult
	}

	fee := b.commissionFee.Calculate(pos.Quantity*pos.EntryPrice + pos.Quantity*exitPrice)
	pnl := (exitPrice-pos.EntryPrice)*pos.Quantity*pos.Side.Sign() - fee

	sim.capital += pnl
	sim.position = optional.None[types.OpenPosition]()

	b.riskManager.SetEquity(sim.capital)
	b.riskManager.RecordTradePnL(pnl)

	return b.recordTrade(sim, pos, exitPrice, pnl, fee, bar.Time, reason, callbacks)
}

func (b *BacktestEngineV1) tryEnter(sim *simulation, frame types.IndicatorFrame, i int, slipMult float64) error {
	signal := b.strategy.GetSignal(frame.Slice(i))
	if signal.IsNone() {
		return nil
	}

	intent := signal.Unwrap()

	atr := frame.Row(i - 1).ATR
	if math.IsNaN(atr) {
		atr = 0
	}

	decision := b.riskManager.Validate(intent, atr, optional.Some(sim.capital))
	if !decision.Allowed || decision.Quantity <= 0 {
		b.log.Debug("Signal rejected",
			zap.Time("time", frame.Bars[i].Time),
			zap.String("side", string(intent.Side)),
			zap.String("reason", decision.Reason),
		)

		return nil
	}

	if sim.position.IsSome() {
		return errors.Newf(errors.ErrCodeInvariantViolation,
			"entry at bar %d while a %s position is open", i, sim.position.Unwrap().Side)
	}

	// entry × (1 ± slip), against the trader
	entryPrice := intent.EntryPrice * (1 + intent.Side.Sign()*(slipMult-1))

	sim.position = optional.Some(types.OpenPosition{
		Side:            intent.Side,
		EntryPrice:      entryPrice,
		Quantity:        decision.Quantity,
		StopPrice:       intent.StopPrice,
		TakeProfitPrice: intent.TakeProfitPrice,
		EntryIndex:      i,
		EntryTime:       frame.Bars[i].Time,
	})
	sim.cooldown = b.strategy.CooldownBars()

	b.log.Debug("Opened position",
		zap.Time("time", frame.Bars[i].Time),
		zap.String("side", string(intent.Side)),
		zap.Float64("entry", entryPrice),
		zap.Float64("qty", decision.Quantity),
	)

	return nil
}

// closeAtEnd closes a position still open after the last bar at that bar's
// close. No slippage is applied and the fee is charged on twice the entry notional.
func (b *BacktestEngineV1) closeAtEnd(sim *simulation, last types.Bar, callbacks engine.LifecycleCallbacks) error {
	pos := sim.position.Unwrap()

	fee := b.commissionFee.Calculate(2 * pos.Quantity * pos.EntryPrice)
	pnl := (last.Close-pos.EntryPrice)*pos.Quantity*pos.Side.Sign() - fee

	sim.capital += pnl
	sim.position = optional.None[types.OpenPosition]()

	if len(sim.curve) > 0 {
		sim.curve[len(sim.curve)-1].Equity = sim.capital
	}

	return b.recordTrade(sim, pos, last.Close, pnl, fee, last.Time, types.ExitReasonEndOfData, callbacks)
}

func (b *BacktestEngineV1) recordTrade(sim *simulation, pos types.OpenPosition, exitPrice, pnl, fee float64, exitTime time.Time, reason types.ExitReason, callbacks engine.LifecycleCallbacks) error {
	trade := types.TradeRecord{
		ID:         uuid.New().String(),
		Symbol:     b.config.Symbol,
		Side:       pos.Side,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		PnL:        pnl,
		PnLPct:     pnl / (pos.Quantity * pos.EntryPrice) * 100,
		EntryTime:  pos.EntryTime,
		ExitTime:   exitTime,
		ExitReason: reason,
		Fees:       fee,
	}

	sim.trades = append(sim.trades, trade)

	b.log.Debug("Closed position",
		zap.String("side", string(trade.Side)),
		zap.String("reason", string(reason)),
		zap.Float64("exit", exitPrice),
		zap.Float64("pnl", pnl),
	)

	if callbacks.OnTrade != nil {
		return (*callbacks.OnTrade)(trade)
	}

	return nil
}

// computeMetrics scores the trade list against equity relative to the initial capital.
func (b *BacktestEngineV1) computeMetrics(trades []types.TradeRecord) types.PerformanceMetrics {
	pnls := types.PnLs(trades)

	cumulative := make([]float64, 0, len(pnls)+1)
	equity := b.config.InitialCapital
	cumulative = append(cumulative, 1)

	for _, pnl := range pnls {
		equity += pnl
		cumulative = append(cumulative, equity/b.config.InitialCapital)
	}

	return analytics.ComputeMetrics(pnls, optional.Some(cumulative))
}

// RunFromDataSource implements engine.Engine.
func (b *BacktestEngineV1) RunFromDataSource(ctx context.Context, ds datasource.DataSource, path string, callbacks engine.LifecycleCallbacks) (types.BacktestResult, error) {
	if ds == nil {
		return types.BacktestResult{}, errors.New(errors.ErrCodeBacktestConfigError, "no datasource set")
	}

	if err := ds.Initialize(path); err != nil {
		return types.BacktestResult{}, err
	}

	b.dataPath = path

	var (
		bars []types.Bar
		err  error
	)

	if b.config.Interval.IsSome() {
		start := b.config.StartTime.TakeOr(time.Unix(0, 0).UTC())
		end := b.config.EndTime.TakeOr(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))

		bars, err = ds.GetRange(start, end, b.config.Interval)
		if err == nil {
			err = types.ValidateBars(bars)
		}
	} else {
		bars, err = datasource.LoadBars(ds, b.config.StartTime, b.config.EndTime)
	}

	if err != nil {
		return types.BacktestResult{}, err
	}

	b.log.Debug("Loaded bars",
		zap.String("path", path),
		zap.Int("count", len(bars)),
	)

	return b.Run(ctx, bars, callbacks)
}

// WriteResults implements engine.Engine.
func (b *BacktestEngineV1) WriteResults(result types.BacktestResult) (string, error) {
	if b.config.ResultsFolder == "" {
		return "", errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.state == nil {
		state, err := NewBacktestState(b.log)
		if err != nil {
			return "", err
		}

		if err := state.Initialize(); err != nil {
			return "", err
		}

		b.state = state
	}

	if err := b.state.Cleanup(); err != nil {
		return "", err
	}

	if err := b.state.Record(result); err != nil {
		return "", err
	}

	folder := getResultFolder(b.config, b.strategy.Name(), b.dataPath)
	stats := NewBacktestStats(result, b.config.Symbol, b.strategy.Name(), b.barCount)

	if _, err := b.state.Write(folder, stats); err != nil {
		return "", err
	}

	return folder, nil
}

// Close releases the result database, if one was opened.
func (b *BacktestEngineV1) Close() error {
	if b.state == nil {
		return nil
	}

	return b.state.Close()
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}
