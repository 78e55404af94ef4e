package engine_v1

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/metrics"
	"github.com/rxtech-lab/argo-scalper/internal/notify"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	"github.com/rxtech-lab/argo-scalper/internal/strategy"
	"github.com/rxtech-lab/argo-scalper/internal/trading"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1/session"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1/stats"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1/writers"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
)

const shutdownNoticeTimeout = 10 * time.Second

// LiveTradingEngineV1 implements the LiveTradingEngine interface for a single
// symbol with at most one open position.
type LiveTradingEngineV1 struct {
	config      LiveTradingEngineV1Config
	client      trading.ExecutionClient
	strategy    strategy.Strategy
	riskManager *risk.Manager
	notifier    notify.Notifier
	log         *logger.Logger
	now         func() time.Time
	prepared    bool

	// Session management
	sessionManager *session.SessionManager

	// Statistics tracking
	statsTracker *stats.StatsTracker

	// Parquet journals, nil without a data output path
	ordersWriter *writers.OrdersWriter
	fillsWriter  *writers.FillsWriter

	statusMu sync.RWMutex
	status   types.LiveStatus
}

// NewLiveTradingEngineV1 wires the loop. A nil notifier disables notifications.
func NewLiveTradingEngineV1(
	config LiveTradingEngineV1Config,
	client trading.ExecutionClient,
	strat strategy.Strategy,
	riskManager *risk.Manager,
	notifier notify.Notifier,
	log *logger.Logger,
) (*LiveTradingEngineV1, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if client == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "execution client is required")
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "strategy is required")
	}

	if riskManager == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "risk manager is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	return &LiveTradingEngineV1{
		config:         config,
		client:         client,
		strategy:       strat,
		riskManager:    riskManager,
		notifier:       notifier,
		log:            log,
		now:            time.Now,
		prepared:       false,
		sessionManager: session.NewSessionManager(log),
		statsTracker:   stats.NewStatsTracker(log),
		ordersWriter:   nil,
		fillsWriter:    nil,
		statusMu:       sync.RWMutex{},
		status: types.LiveStatus{
			Symbol:       config.Symbol,
			Timeframe:    config.Timeframe,
			Testnet:      config.Testnet,
			MaxDailyLoss: riskManager.Config().MaxDailyLossUSD,
			LastSignalAt: optional.None[time.Time](),
			OpenPosition: optional.None[types.Position](),
		},
	}, nil
}

var _ engine.LiveTradingEngine = (*LiveTradingEngineV1)(nil)

// SetClock replaces the wall clock. Used by tests.
func (e *LiveTradingEngineV1) SetClock(now func() time.Time) {
	e.now = now
	e.statsTracker.SetClock(now)
}

// GetConfigSchema implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) GetConfigSchema() (string, error) {
	return e.config.GenerateSchemaJSON()
}

// Status implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Status() types.LiveStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	return e.status
}

func (e *LiveTradingEngineV1) updateStatus(fn func(status *types.LiveStatus)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	fn(&e.status)
}

// prepare sets leverage, loads symbol filters and opens the session.
func (e *LiveTradingEngineV1) prepare(ctx context.Context) error {
	if e.prepared {
		return nil
	}

	if err := e.client.SetLeverage(ctx, e.config.Symbol, e.config.Leverage); err != nil {
		return err
	}

	filters, err := e.client.GetSymbolFilters(ctx, e.config.Symbol)
	if err != nil {
		return err
	}

	if err := e.riskManager.UpdateSymbolFilters(filters); err != nil {
		return err
	}

	now := e.now().UTC()
	if err := e.sessionManager.Initialize(e.config.DataOutputPath, now); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize session manager", err)
	}

	e.statsTracker.Initialize(
		e.sessionManager.GetSessionID(),
		e.sessionManager.GetRunID(),
		e.config.Symbol,
		e.strategy.Name(),
		now,
	)

	if err := e.openWriters(); err != nil {
		return err
	}

	e.updateStatus(func(status *types.LiveStatus) {
		status.SessionID = e.sessionManager.GetSessionID()
		status.StartedAt = now
		status.Running = true
	})

	e.prepared = true

	e.log.Info("Live trading engine prepared",
		zap.String("symbol", e.config.Symbol),
		zap.String("timeframe", e.config.Timeframe),
		zap.Int("leverage", e.config.Leverage),
		zap.Bool("testnet", e.config.Testnet),
		zap.Float64("min_qty", filters.MinQty),
		zap.Float64("lot_step", filters.LotStep),
		zap.Float64("price_tick", filters.PriceTick),
	)

	notify.SendBestEffort(ctx, e.notifier, e.log, fmt.Sprintf(
		"Trading bot starting | %s | testnet=%t | leverage=%dx",
		e.config.Symbol, e.config.Testnet, e.config.Leverage,
	))

	return nil
}

// openWriters opens the parquet journals in the current run folder.
func (e *LiveTradingEngineV1) openWriters() error {
	ordersPath := e.sessionManager.GetFilePath("orders.parquet")
	fillsPath := e.sessionManager.GetFilePath("fills.parquet")
	e.statsTracker.SetFilePaths(ordersPath, fillsPath, e.sessionManager.GetFilePath("stats.yaml"))

	if ordersPath == "" {
		return nil
	}

	e.ordersWriter = writers.NewOrdersWriter(ordersPath)
	if err := e.ordersWriter.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize orders writer", err)
	}

	e.fillsWriter = writers.NewFillsWriter(fillsPath)
	if err := e.fillsWriter.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize fills writer", err)
	}

	return nil
}

func (e *LiveTradingEngineV1) closeWriters() {
	if e.ordersWriter != nil {
		if err := e.ordersWriter.Close(); err != nil {
			e.log.Warn("Failed to close orders writer", zap.Error(err))
		}

		e.ordersWriter = nil
	}

	if e.fillsWriter != nil {
		if err := e.fillsWriter.Close(); err != nil {
			e.log.Warn("Failed to close fills writer", zap.Error(err))
		}

		e.fillsWriter = nil
	}
}

// handleDateBoundary rolls stats and journals into the new UTC date folder.
func (e *LiveTradingEngineV1) handleDateBoundary(now time.Time) {
	changed, err := e.sessionManager.HandleDateBoundary(now)
	if err != nil {
		e.log.Warn("Failed to handle date boundary", zap.Error(err))

		return
	}

	if !changed {
		return
	}

	if err := e.statsTracker.WriteStatsYAML(); err != nil {
		e.log.Warn("Failed to write stats", zap.Error(err))
	}

	e.statsTracker.HandleDateBoundary(e.sessionManager.GetCurrentDate())
	e.closeWriters()

	if err := e.openWriters(); err != nil {
		e.log.Warn("Failed to reopen writers for new date", zap.Error(err))
	}
}

// Run implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Run(ctx context.Context, callbacks engine.LiveTradingCallbacks) error {
	var runErr error

	// Always call OnEngineStop and cleanup when Run exits
	defer func() {
		e.updateStatus(func(status *types.LiveStatus) {
			status.Running = false
		})

		if e.prepared {
			if err := e.statsTracker.WriteStatsYAML(); err != nil {
				e.log.Warn("Failed to write final stats", zap.Error(err))
			}
		}

		e.closeWriters()

		if callbacks.OnEngineStop != nil {
			(*callbacks.OnEngineStop)(runErr)
		}
	}()

	if err := e.prepare(ctx); err != nil {
		runErr = err

		return err
	}

	if callbacks.OnEngineStart != nil {
		if err := (*callbacks.OnEngineStart)(e.sessionManager.GetSessionID(), e.config.Symbol, e.config.Timeframe); err != nil {
			runErr = errors.Wrap(errors.ErrCodeCallbackFailed, "OnEngineStart callback failed", err)

			return runErr
		}
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdownNotice()

			return nil
		case <-timer.C:
		}

		wait, err := e.Step(ctx, callbacks)
		if err != nil && errors.HasCode(err, errors.ErrCodeCallbackFailed) {
			runErr = err

			return runErr
		}

		timer.Reset(wait)
	}
}

func (e *LiveTradingEngineV1) shutdownNotice() {
	e.log.Info("Live trading engine stopped by user")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownNoticeTimeout)
	defer cancel()

	notify.SendBestEffort(ctx, e.notifier, e.log, "Trading bot stopped (user request).")
}

// Step implements engine.LiveTradingEngine. A failed iteration is logged,
// reported through OnError and answered with the error wait.
func (e *LiveTradingEngineV1) Step(ctx context.Context, callbacks engine.LiveTradingCallbacks) (time.Duration, error) {
	if err := e.prepare(ctx); err != nil {
		return e.config.ErrorWait, err
	}

	now := e.now().UTC()
	e.handleDateBoundary(now)

	e.statsTracker.RecordPoll()
	metrics.PollsTotal.WithLabelValues(e.config.Symbol).Inc()

	wait, err := e.step(ctx, now, callbacks)

	e.updateStatus(func(status *types.LiveStatus) {
		loop := e.statsTracker.GetStats().Loop
		status.LastPollAt = now
		status.Polls = loop.Polls
		status.Entries = loop.Entries
		status.Rejections = loop.TotalRejections()
		status.LastSignalAt = e.sessionManager.LastSignalAt()

		if err != nil {
			status.LastError = err.Error()
		}
	})

	if err != nil {
		if errors.HasCode(err, errors.ErrCodeCallbackFailed) {
			return e.config.ErrorWait, err
		}

		e.statsTracker.RecordError()
		metrics.ErrorsTotal.WithLabelValues(e.config.Symbol).Inc()
		e.log.Error("Live loop iteration failed", zap.Error(err))

		if callbacks.OnError != nil {
			(*callbacks.OnError)(err)
		}

		return e.config.ErrorWait, err
	}

	if callbacks.OnStatusUpdate != nil {
		if err := (*callbacks.OnStatusUpdate)(e.Status()); err != nil {
			return e.config.ErrorWait, errors.Wrap(errors.ErrCodeCallbackFailed, "OnStatusUpdate callback failed", err)
		}
	}

	return wait, nil
}

//nolint:cyclop // one branch per loop stage
func (e *LiveTradingEngineV1) step(ctx context.Context, now time.Time, callbacks engine.LiveTradingCallbacks) (time.Duration, error) {
	dailyLoss, err := e.refreshDailyLoss(ctx, now)
	if err != nil {
		return 0, err
	}

	if !e.riskManager.CheckDailyLoss() {
		e.log.Warn("Daily loss cap hit, pausing entries",
			zap.Float64("daily_loss", dailyLoss),
			zap.Float64("max_daily_loss", e.riskManager.Config().MaxDailyLossUSD),
		)

		if e.sessionManager.ShouldNotifyDailyCap(now) {
			notify.SendBestEffort(ctx, e.notifier, e.log, fmt.Sprintf(
				"Daily loss cap hit: $%.2f. Pausing new entries until UTC reset.", dailyLoss,
			))
		}

		return e.config.CapWait, nil
	}

	position, err := e.client.GetOpenPosition(ctx, e.config.Symbol)
	if err != nil {
		return 0, err
	}

	e.updateStatus(func(status *types.LiveStatus) {
		status.OpenPosition = position
	})

	if position.IsSome() {
		e.sendSummaryIfDue(ctx, now, position.Unwrap(), dailyLoss)

		return e.config.PositionWait, nil
	}

	if e.sessionManager.CooldownRemaining(now, e.config.Cooldown()) > 0 {
		return e.config.PollInterval, nil
	}

	bars, err := e.client.GetKlines(ctx, e.config.Symbol, e.config.Timeframe, e.config.KlineLimit)
	if err != nil {
		return 0, err
	}

	frame, err := e.strategy.ComputeIndicators(bars)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			e.log.Debug("Not enough bars for indicators", zap.Int("bars", len(bars)))

			return e.config.PollInterval, nil
		}

		return 0, err
	}

	signal := e.strategy.GetSignal(frame)
	if signal.IsNone() || frame.Len() < 2 {
		return e.config.PollInterval, nil
	}

	intent := signal.Unwrap()

	e.statsTracker.RecordSignal()
	metrics.SignalsTotal.WithLabelValues(e.config.Symbol, string(intent.Side)).Inc()

	if callbacks.OnSignal != nil {
		if err := (*callbacks.OnSignal)(intent); err != nil {
			return 0, errors.Wrap(errors.ErrCodeCallbackFailed, "OnSignal callback failed", err)
		}
	}

	// The ATR of the last closed bar caps the size, the same row the signal was read from.
	atr := frame.Row(frame.Len() - 2).ATR
	if math.IsNaN(atr) {
		atr = 0
	}

	decision := e.riskManager.Validate(intent, atr, optional.None[float64]())
	if !decision.Allowed || decision.Quantity <= 0 {
		e.reject(intent, decision, callbacks)

		return e.config.PollInterval, nil
	}

	return e.enter(ctx, now, intent, decision, callbacks)
}

// refreshDailyLoss recomputes the realized loss since UTC midnight from account fills.
func (e *LiveTradingEngineV1) refreshDailyLoss(ctx context.Context, now time.Time) (float64, error) {
	midnight := utils.UTCDate(now)

	fills, err := e.client.FetchAccountTrades(ctx, e.config.Symbol, optional.Some(midnight), e.config.AccountTradeLimit)
	if err != nil {
		return 0, err
	}

	e.statsTracker.RecordFills(fills)

	if e.fillsWriter != nil {
		if err := e.fillsWriter.Write(fills); err != nil {
			e.log.Warn("Failed to persist fills", zap.Error(err))
		}
	}

	loss := types.DailyLoss(fills, midnight)
	e.riskManager.SetDailyLoss(loss, now)
	metrics.DailyLoss.WithLabelValues(e.config.Symbol).Set(loss)

	e.updateStatus(func(status *types.LiveStatus) {
		status.DailyLoss = loss
		status.DailyCapHit = !e.riskManager.CheckDailyLoss()
	})

	return loss, nil
}

func (e *LiveTradingEngineV1) sendSummaryIfDue(ctx context.Context, now time.Time, position types.Position, dailyLoss float64) {
	if !e.sessionManager.SummaryDue(now, e.config.SummaryInterval) {
		return
	}

	notify.SendBestEffort(ctx, e.notifier, e.log, fmt.Sprintf(
		"Hourly | %s | Open pos: %g @ %g | Daily loss: $%.2f",
		e.config.Symbol, position.Side.Sign()*position.Quantity, position.EntryPrice, dailyLoss,
	))
	e.sessionManager.MarkSummary(now)
}

func (e *LiveTradingEngineV1) reject(intent types.SignalIntent, decision types.SizingDecision, callbacks engine.LiveTradingCallbacks) {
	reason := decision.Reason
	if reason == "" {
		reason = risk.ReasonQtyRoundedToZero
	}

	e.statsTracker.RecordRejection(reason)
	metrics.RejectionsTotal.WithLabelValues(e.config.Symbol, reason).Inc()

	e.log.Info("Signal rejected",
		zap.String("side", string(intent.Side)),
		zap.Float64("entry", intent.EntryPrice),
		zap.String("reason", reason),
	)

	if callbacks.OnRejected != nil {
		(*callbacks.OnRejected)(intent, decision)
	}
}

func (e *LiveTradingEngineV1) enter(
	ctx context.Context,
	now time.Time,
	intent types.SignalIntent,
	decision types.SizingDecision,
	callbacks engine.LiveTradingCallbacks,
) (time.Duration, error) {
	req := types.OrderRequest{
		Symbol:          e.config.Symbol,
		Side:            intent.Side,
		Quantity:        decision.Quantity,
		EntryPrice:      intent.EntryPrice,
		StopPrice:       intent.StopPrice,
		TakeProfitPrice: intent.TakeProfitPrice,
	}

	result, err := e.client.PlaceMarketWithStopAndTarget(ctx, req)
	if err != nil {
		return 0, err
	}

	e.statsTracker.RecordOrder(result)

	outcome := "failed"
	if result.Success {
		outcome = "success"
	}

	metrics.OrdersTotal.WithLabelValues(e.config.Symbol, string(req.Side), outcome).Inc()

	if e.ordersWriter != nil {
		if err := e.ordersWriter.Write(writers.OrderEntry{Time: now, Request: req, Result: result}); err != nil {
			e.log.Warn("Failed to persist order", zap.Error(err))
		}
	}

	if callbacks.OnOrderPlaced != nil {
		if err := (*callbacks.OnOrderPlaced)(req, result); err != nil {
			return 0, errors.Wrap(errors.ErrCodeCallbackFailed, "OnOrderPlaced callback failed", err)
		}
	}

	if !result.Success {
		e.log.Warn("Entry order failed",
			zap.String("side", string(req.Side)),
			zap.Float64("quantity", req.Quantity),
			zap.String("message", result.Message),
		)

		return e.config.PollInterval, nil
	}

	e.sessionManager.RecordSignal(now)

	entry := result.AvgPrice
	if entry <= 0 {
		entry = intent.EntryPrice
	}

	e.log.Info("Entry placed",
		zap.String("side", string(req.Side)),
		zap.Float64("quantity", req.Quantity),
		zap.Float64("entry", entry),
		zap.Float64("stop", req.StopPrice),
		zap.Float64("target", req.TakeProfitPrice),
		zap.String("order_id", result.OrderID),
	)

	notify.SendBestEffort(ctx, e.notifier, e.log, fmt.Sprintf(
		"Entry %s %s qty=%g entry=%.3f SL=%.3f TP=%.3f",
		req.Side, e.config.Symbol, req.Quantity, entry, req.StopPrice, req.TakeProfitPrice,
	))

	return e.config.PollInterval, nil
}
