package engine_v1

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/mocks"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// LiveTradingEngineV1TestSuite is the test suite for LiveTradingEngineV1.
type LiveTradingEngineV1TestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	client   *mocks.MockExecutionClient
	strategy *mocks.MockStrategy
	notifier *mocks.MockNotifier
	now      time.Time
}

// TestLiveTradingEngineV1 runs the test suite.
func TestLiveTradingEngineV1(t *testing.T) {
	suite.Run(t, new(LiveTradingEngineV1TestSuite))
}

// SetupTest runs before each test.
func (s *LiveTradingEngineV1TestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockExecutionClient(s.ctrl)
	s.strategy = mocks.NewMockStrategy(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s.strategy.EXPECT().Name().Return("ema_rsi_vwap").AnyTimes()
}

// TearDownTest runs after each test.
func (s *LiveTradingEngineV1TestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func testConfig() LiveTradingEngineV1Config {
	config := DefaultLiveConfig()
	config.Symbol = "SOLUSDT"
	config.Timeframe = "1m"
	config.Leverage = 5

	return config
}

func (s *LiveTradingEngineV1TestSuite) newEngine(config LiveTradingEngineV1Config) *LiveTradingEngineV1 {
	log := logger.NewNopLogger()

	riskManager, err := risk.NewManager(risk.DefaultConfig(), types.DefaultSymbolFilters(), log)
	s.Require().NoError(err)

	e, err := NewLiveTradingEngineV1(config, s.client, s.strategy, riskManager, s.notifier, log)
	s.Require().NoError(err)
	e.SetClock(func() time.Time { return s.now })

	return e
}

func (s *LiveTradingEngineV1TestSuite) expectPrepare() {
	s.client.EXPECT().SetLeverage(gomock.Any(), "SOLUSDT", 5).Return(nil).Times(1)
	s.client.EXPECT().GetSymbolFilters(gomock.Any(), "SOLUSDT").Return(types.DefaultSymbolFilters(), nil).Times(1)
	s.notifier.EXPECT().Send(gomock.Any(), "Trading bot starting | SOLUSDT | testnet=true | leverage=5x").Return(nil).Times(1)
}

func (s *LiveTradingEngineV1TestSuite) expectFlatAccount() {
	s.client.EXPECT().FetchAccountTrades(gomock.Any(), "SOLUSDT", gomock.Any(), 500).Return(nil, nil).AnyTimes()
	s.client.EXPECT().GetOpenPosition(gomock.Any(), "SOLUSDT").Return(optional.None[types.Position](), nil).AnyTimes()
}

func testFrame() types.IndicatorFrame {
	start := time.Date(2024, 3, 1, 9, 57, 0, 0, time.UTC)
	bars := make([]types.Bar, 3)

	for i := range bars {
		bars[i] = types.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	}

	return types.IndicatorFrame{
		Bars: bars,
		ATR:  []float64{math.NaN(), 1, 1},
	}
}

func longIntent() types.SignalIntent {
	return types.SignalIntent{
		Side:            types.SideLong,
		EntryPrice:      100,
		StopPrice:       98,
		TakeProfitPrice: 104,
	}
}

func (s *LiveTradingEngineV1TestSuite) expectSignal(intent optional.Option[types.SignalIntent]) {
	frame := testFrame()
	s.client.EXPECT().GetKlines(gomock.Any(), "SOLUSDT", "1m", 300).Return(frame.Bars, nil).Times(1)
	s.strategy.EXPECT().ComputeIndicators(frame.Bars).Return(frame, nil).Times(1)
	s.strategy.EXPECT().GetSignal(gomock.Any()).Return(intent).Times(1)
}

// ============================================================================
// Constructor Tests
// ============================================================================

func (s *LiveTradingEngineV1TestSuite) TestNewLiveTradingEngineV1() {
	log := logger.NewNopLogger()
	riskManager, err := risk.NewManager(risk.DefaultConfig(), types.DefaultSymbolFilters(), log)
	s.Require().NoError(err)

	_, err = NewLiveTradingEngineV1(testConfig(), nil, s.strategy, riskManager, nil, log)
	s.Error(err)

	_, err = NewLiveTradingEngineV1(testConfig(), s.client, nil, riskManager, nil, log)
	s.Error(err)

	_, err = NewLiveTradingEngineV1(testConfig(), s.client, s.strategy, nil, nil, log)
	s.Error(err)

	bad := testConfig()
	bad.Timeframe = "7x"
	_, err = NewLiveTradingEngineV1(bad, s.client, s.strategy, riskManager, nil, log)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))

	e, err := NewLiveTradingEngineV1(testConfig(), s.client, s.strategy, riskManager, nil, nil)
	s.Require().NoError(err)
	s.Equal("SOLUSDT", e.Status().Symbol)
	s.Equal(50.0, e.Status().MaxDailyLoss)
	s.False(e.Status().Running)
}

func (s *LiveTradingEngineV1TestSuite) TestGetConfigSchema() {
	e := s.newEngine(testConfig())

	schema, err := e.GetConfigSchema()
	s.Require().NoError(err)
	s.Contains(schema, "kline_limit")
	s.Contains(schema, "live-trading-engine-v1-config")
}

func (s *LiveTradingEngineV1TestSuite) TestCooldownIsOneTimeframe() {
	config := testConfig()
	config.Timeframe = "5m"
	s.Equal(5*time.Minute, config.Cooldown())
}

// ============================================================================
// Step Tests
// ============================================================================

func (s *LiveTradingEngineV1TestSuite) TestStep_PreparesOnce() {
	s.expectPrepare()
	s.expectFlatAccount()
	s.expectSignal(optional.None[types.SignalIntent]())
	s.expectSignal(optional.None[types.SignalIntent]())

	e := s.newEngine(testConfig())

	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(time.Second, wait)

	wait, err = e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(time.Second, wait)

	status := e.Status()
	s.True(status.Running)
	s.NotEmpty(status.SessionID)
	s.Equal(int64(2), status.Polls)
	s.Equal(s.now, status.LastPollAt)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_DailyLossSinceUTCMidnight() {
	s.expectPrepare()

	midnight := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.client.EXPECT().FetchAccountTrades(gomock.Any(), "SOLUSDT", optional.Some(midnight), 500).Return([]types.AccountTrade{
		{ID: 1, RealizedPnL: -12.5, Time: midnight.Add(time.Hour)},
		{ID: 2, RealizedPnL: 2.5, Time: midnight.Add(2 * time.Hour)},
		{ID: 3, RealizedPnL: -100, Time: midnight.Add(-time.Hour)},
	}, nil).Times(1)
	s.client.EXPECT().GetOpenPosition(gomock.Any(), "SOLUSDT").Return(optional.None[types.Position](), nil).Times(1)
	s.expectSignal(optional.None[types.SignalIntent]())

	e := s.newEngine(testConfig())

	_, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.InDelta(10.0, e.Status().DailyLoss, 1e-9)
	s.False(e.Status().DailyCapHit)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_EntryPlacesOrderAndStartsCooldown() {
	s.expectPrepare()
	s.expectFlatAccount()
	s.expectSignal(optional.Some(longIntent()))

	expected := types.OrderRequest{
		Symbol:          "SOLUSDT",
		Side:            types.SideLong,
		Quantity:        5,
		EntryPrice:      100,
		StopPrice:       98,
		TakeProfitPrice: 104,
	}
	s.client.EXPECT().PlaceMarketWithStopAndTarget(gomock.Any(), expected).
		Return(types.OrderResult{Success: true, OrderID: "77", AvgPrice: 100.05, Quantity: 5}, nil).Times(1)
	s.notifier.EXPECT().Send(gomock.Any(), "Entry LONG SOLUSDT qty=5 entry=100.050 SL=98.000 TP=104.000").Return(nil).Times(1)

	var placed []types.OrderResult
	onOrder := engine.OnOrderPlacedCallback(func(_ types.OrderRequest, result types.OrderResult) error {
		placed = append(placed, result)

		return nil
	})

	e := s.newEngine(testConfig())
	callbacks := engine.LiveTradingCallbacks{OnOrderPlaced: &onOrder}

	wait, err := e.Step(context.Background(), callbacks)
	s.Require().NoError(err)
	s.Equal(time.Second, wait)
	s.Len(placed, 1)
	s.Equal(int64(1), e.Status().Entries)
	s.True(e.Status().LastSignalAt.IsSome())

	// still within one timeframe of the entry: no klines are fetched
	s.now = s.now.Add(30 * time.Second)
	wait, err = e.Step(context.Background(), callbacks)
	s.Require().NoError(err)
	s.Equal(time.Second, wait)

	// cooldown over
	s.now = s.now.Add(31 * time.Second)
	s.expectSignal(optional.None[types.SignalIntent]())
	_, err = e.Step(context.Background(), callbacks)
	s.Require().NoError(err)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_FailedOrderDoesNotStartCooldown() {
	s.expectPrepare()
	s.expectFlatAccount()
	s.expectSignal(optional.Some(longIntent()))
	s.client.EXPECT().PlaceMarketWithStopAndTarget(gomock.Any(), gomock.Any()).
		Return(types.OrderResult{Success: false, Message: "stop rejected"}, nil).Times(1)

	e := s.newEngine(testConfig())

	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(time.Second, wait)
	s.True(e.Status().LastSignalAt.IsNone())
	s.Equal(int64(0), e.Status().Entries)

	s.now = s.now.Add(time.Second)
	s.expectSignal(optional.None[types.SignalIntent]())
	_, err = e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_RejectedSignal() {
	s.expectPrepare()
	s.expectFlatAccount()

	intent := longIntent()
	intent.StopPrice = intent.EntryPrice
	s.expectSignal(optional.Some(intent))

	var reasons []string
	onRejected := engine.OnRejectedCallback(func(_ types.SignalIntent, decision types.SizingDecision) {
		reasons = append(reasons, decision.Reason)
	})

	var signals int
	onSignal := engine.OnSignalCallback(func(types.SignalIntent) error {
		signals++

		return nil
	})

	e := s.newEngine(testConfig())

	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{OnRejected: &onRejected, OnSignal: &onSignal})
	s.Require().NoError(err)
	s.Equal(time.Second, wait)
	s.Equal([]string{risk.ReasonZeroStopDistance}, reasons)
	s.Equal(1, signals)
	s.Equal(int64(1), e.Status().Rejections)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_DailyCapPausesAndNotifiesOncePerDay() {
	s.expectPrepare()
	s.client.EXPECT().FetchAccountTrades(gomock.Any(), "SOLUSDT", gomock.Any(), 500).Return([]types.AccountTrade{
		{ID: 1, RealizedPnL: -60, Time: s.now.Add(-time.Hour)},
	}, nil).Times(2)
	s.notifier.EXPECT().Send(gomock.Any(), "Daily loss cap hit: $60.00. Pausing new entries until UTC reset.").Return(nil).Times(1)

	e := s.newEngine(testConfig())

	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(time.Minute, wait)
	s.True(e.Status().DailyCapHit)

	s.now = s.now.Add(time.Minute)
	wait, err = e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(time.Minute, wait)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_OpenPositionSendsSummaryWhenDue() {
	s.expectPrepare()
	s.client.EXPECT().FetchAccountTrades(gomock.Any(), "SOLUSDT", gomock.Any(), 500).Return(nil, nil).AnyTimes()

	position := types.Position{Symbol: "SOLUSDT", Side: types.SideShort, Quantity: 2, EntryPrice: 100.5}
	s.client.EXPECT().GetOpenPosition(gomock.Any(), "SOLUSDT").Return(optional.Some(position), nil).Times(3)
	s.notifier.EXPECT().Send(gomock.Any(), "Hourly | SOLUSDT | Open pos: -2 @ 100.5 | Daily loss: $0.00").Return(nil).Times(1)

	e := s.newEngine(testConfig())

	// first summary is due one interval after start
	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(5*time.Second, wait)
	s.True(e.Status().OpenPosition.IsSome())

	s.now = s.now.Add(56 * time.Minute)
	_, err = e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)

	s.now = s.now.Add(time.Minute)
	_, err = e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_InsufficientDataWaits() {
	s.expectPrepare()
	s.expectFlatAccount()
	s.client.EXPECT().GetKlines(gomock.Any(), "SOLUSDT", "1m", 300).Return([]types.Bar{}, nil).Times(1)
	s.strategy.EXPECT().ComputeIndicators(gomock.Any()).
		Return(types.IndicatorFrame{}, errors.NewInsufficientDataError(50, 0, "SOLUSDT", "not enough bars")).Times(1)

	e := s.newEngine(testConfig())

	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(time.Second, wait)
}

func (s *LiveTradingEngineV1TestSuite) TestStep_ExchangeErrorReturnsErrorWait() {
	s.expectPrepare()
	s.client.EXPECT().FetchAccountTrades(gomock.Any(), "SOLUSDT", gomock.Any(), 500).Return(nil, nil).Times(1)
	s.client.EXPECT().GetOpenPosition(gomock.Any(), "SOLUSDT").
		Return(optional.None[types.Position](), errors.New(errors.ErrCodeExchangeRequestFailed, "boom")).Times(1)

	var reported []error
	onError := engine.OnErrorCallback(func(err error) {
		reported = append(reported, err)
	})

	e := s.newEngine(testConfig())

	wait, err := e.Step(context.Background(), engine.LiveTradingCallbacks{OnError: &onError})
	s.Error(err)
	s.Equal(5*time.Second, wait)
	s.Len(reported, 1)
	s.Contains(e.Status().LastError, "boom")
}

func (s *LiveTradingEngineV1TestSuite) TestStep_WritesJournals() {
	dir := s.T().TempDir()

	s.expectPrepare()
	s.client.EXPECT().FetchAccountTrades(gomock.Any(), "SOLUSDT", gomock.Any(), 500).Return([]types.AccountTrade{
		{ID: 9, OrderID: 90, Symbol: "SOLUSDT", Side: types.PurchaseTypeSell, Price: 101, Quantity: 1, RealizedPnL: 1, Time: s.now.Add(-time.Minute)},
	}, nil).Times(1)
	s.client.EXPECT().GetOpenPosition(gomock.Any(), "SOLUSDT").Return(optional.None[types.Position](), nil).Times(1)
	s.expectSignal(optional.Some(longIntent()))
	s.client.EXPECT().PlaceMarketWithStopAndTarget(gomock.Any(), gomock.Any()).
		Return(types.OrderResult{Success: true, OrderID: "1", AvgPrice: 100, Quantity: 5}, nil).Times(1)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	config := testConfig()
	config.DataOutputPath = dir
	e := s.newEngine(config)

	_, err := e.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)

	runPath := filepath.Join(dir, "2024-03-01", "run_1")
	s.FileExists(filepath.Join(runPath, "orders.parquet"))
	s.FileExists(filepath.Join(runPath, "fills.parquet"))

	e.closeWriters()
}

// ============================================================================
// Run Tests
// ============================================================================

func (s *LiveTradingEngineV1TestSuite) TestRun_StopsCleanlyOnCancel() {
	s.expectPrepare()
	s.expectFlatAccount()
	s.expectSignal(optional.None[types.SignalIntent]())
	s.notifier.EXPECT().Send(gomock.Any(), "Trading bot stopped (user request).").Return(nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started string
	onStart := engine.OnEngineStartCallback(func(sessionID, symbol, timeframe string) error {
		started = symbol + "/" + timeframe

		return nil
	})

	onStatus := engine.OnStatusUpdateCallback(func(types.LiveStatus) error {
		cancel()

		return nil
	})

	stopped := false
	var stopErr error
	onStop := engine.OnEngineStopCallback(func(err error) {
		stopped = true
		stopErr = err
	})

	config := testConfig()
	config.DataOutputPath = s.T().TempDir()
	e := s.newEngine(config)

	err := e.Run(ctx, engine.LiveTradingCallbacks{OnEngineStart: &onStart, OnStatusUpdate: &onStatus, OnEngineStop: &onStop})
	s.NoError(err)
	s.Equal("SOLUSDT/1m", started)
	s.True(stopped)
	s.NoError(stopErr)
	s.False(e.Status().Running)

	_, statErr := os.Stat(filepath.Join(config.DataOutputPath, "2024-03-01", "run_1", "stats.yaml"))
	s.NoError(statErr)
}

func (s *LiveTradingEngineV1TestSuite) TestRun_PrepareFailure() {
	s.client.EXPECT().SetLeverage(gomock.Any(), "SOLUSDT", 5).
		Return(errors.New(errors.ErrCodeExchangeRequestFailed, "leverage refused")).Times(1)

	var stopErr error
	onStop := engine.OnEngineStopCallback(func(err error) {
		stopErr = err
	})

	e := s.newEngine(testConfig())

	err := e.Run(context.Background(), engine.LiveTradingCallbacks{OnEngineStop: &onStop})
	s.Error(err)
	s.Equal(err, stopErr)
}

func (s *LiveTradingEngineV1TestSuite) TestRun_CallbackErrorAborts() {
	s.expectPrepare()
	s.expectFlatAccount()
	s.expectSignal(optional.Some(longIntent()))

	onSignal := engine.OnSignalCallback(func(types.SignalIntent) error {
		return errors.New(errors.ErrCodeUnknown, "stop")
	})

	e := s.newEngine(testConfig())

	err := e.Run(context.Background(), engine.LiveTradingCallbacks{OnSignal: &onSignal})
	s.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
}
