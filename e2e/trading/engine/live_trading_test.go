package engine_test

import (
	"context"
	"strings"

	"github.com/rxtech-lab/argo-scalper/e2e/trading/mockserver"
	"github.com/rxtech-lab/argo-scalper/e2e/trading/testhelper"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// expectedQuantity is 10 USD of risk over a 0.75 stop, floored to the 0.1 lot.
const expectedQuantity = 13.3

func (s *LiveTradingE2ETestSuite) entries() []mockserver.Order {
	var entries []mockserver.Order

	for _, o := range s.server.Orders() {
		if o.Type == mockserver.OrderTypeMarket && !o.ReduceOnly {
			entries = append(entries, o)
		}
	}

	return entries
}

func (s *LiveTradingE2ETestSuite) TestStepPlacesProtectedEntry() {
	eng := s.newEngine(risk.DefaultConfig())

	wait, err := eng.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(s.config.PollInterval, wait)

	s.Equal(5, s.server.Leverage(symbol))

	amount, _ := s.server.Position(symbol)
	s.InDelta(expectedQuantity, amount, 1e-9)

	open := s.server.OpenOrders(symbol)
	s.Require().Len(open, 2)
	s.Equal(mockserver.OrderTypeLimit, open[0].Type)
	s.Equal(mockserver.OrderTypeStopMarket, open[1].Type)

	s.Equal(1, s.notifier.Count("Trading bot starting | SOLUSDT"))
	s.Equal(1, s.notifier.Count("Entry LONG SOLUSDT"))

	status := eng.Status()
	s.True(status.Running)
	s.EqualValues(1, status.Entries)
	s.EqualValues(1, status.Polls)
}

func (s *LiveTradingE2ETestSuite) TestOpenPositionBlocksNewEntries() {
	eng := s.newEngine(risk.DefaultConfig())

	_, err := eng.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)

	wait, err := eng.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(s.config.PositionWait, wait)

	s.Len(s.entries(), 1)
	s.Equal(1, s.strategy.Calls())
	s.True(eng.Status().OpenPosition.IsSome())
}

func (s *LiveTradingE2ETestSuite) TestStopOutHitsDailyLossCap() {
	config := risk.DefaultConfig()
	config.MaxDailyLossUSD = 5
	eng := s.newEngine(config)

	_, err := eng.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)

	_, entry := s.server.Position(symbol)
	s.Require().NoError(s.server.TriggerStop(symbol, entry-2))

	wait, err := eng.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(s.config.CapWait, wait)

	// the cap notice goes out once per day
	wait, err = eng.Step(context.Background(), engine.LiveTradingCallbacks{})
	s.Require().NoError(err)
	s.Equal(s.config.CapWait, wait)
	s.Equal(1, s.notifier.Count("Daily loss cap hit"))

	status := eng.Status()
	s.True(status.DailyCapHit)
	s.InDelta(2*expectedQuantity, status.DailyLoss, 1e-6)
	s.Len(s.entries(), 1)

	fills, err := testhelper.ReadFills(s.dataDir)
	s.Require().NoError(err)
	s.Require().Len(fills, 2)
	s.InDelta(-2*expectedQuantity, fills[1].RealizedPnL, 1e-6)
}

func (s *LiveTradingE2ETestSuite) TestRejectedStopLeavesAccountFlat() {
	s.server.RejectOrderType(mockserver.OrderTypeStopMarket)
	eng := s.newEngine(risk.DefaultConfig())

	var results []types.OrderResult

	onOrderPlaced := engine.OnOrderPlacedCallback(func(_ types.OrderRequest, result types.OrderResult) error {
		results = append(results, result)

		return nil
	})
	callbacks := engine.LiveTradingCallbacks{OnOrderPlaced: &onOrderPlaced}

	for i := 0; i < 2; i++ {
		wait, err := eng.Step(context.Background(), callbacks)
		s.Require().NoError(err)
		s.Equal(s.config.PollInterval, wait)
	}

	// a failed entry does not start the cooldown, so the second poll retries
	s.Require().Len(results, 2)
	s.False(results[0].Success)
	s.False(results[1].Success)
	s.Len(s.entries(), 2)

	amount, _ := s.server.Position(symbol)
	s.Zero(amount)
	s.Empty(s.server.OpenOrders(symbol))
	s.Zero(s.notifier.Count("Entry "))
	s.EqualValues(0, eng.Status().Entries)
}

func (s *LiveTradingE2ETestSuite) TestRunWritesSessionJournals() {
	eng := s.newEngine(risk.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onOrderPlaced := engine.OnOrderPlacedCallback(func(_ types.OrderRequest, _ types.OrderResult) error {
		cancel()

		return nil
	})

	var (
		started   bool
		stopError error
	)

	onStart := engine.OnEngineStartCallback(func(sessionID string, sym string, _ string) error {
		started = sessionID != "" && sym == symbol

		return nil
	})
	onStop := engine.OnEngineStopCallback(func(err error) {
		stopError = err
	})

	err := eng.Run(ctx, engine.LiveTradingCallbacks{
		OnEngineStart: &onStart,
		OnEngineStop:  &onStop,
		OnOrderPlaced: &onOrderPlaced,
	})
	s.Require().NoError(err)
	s.True(started)
	s.NoError(stopError)
	s.False(eng.Status().Running)

	messages := s.notifier.Messages()
	s.Require().NotEmpty(messages)
	s.Equal("Trading bot stopped (user request).", messages[len(messages)-1])

	sessions, err := testhelper.ReadLiveStats(s.dataDir)
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(symbol, sessions[0].Symbol)
	s.Equal("fixed_signal", sessions[0].Strategy)
	s.Equal("run_1", sessions[0].RunID)
	s.EqualValues(1, sessions[0].Loop.Entries)
	s.True(strings.HasSuffix(sessions[0].OrdersFilePath, "orders.parquet"))

	orders, err := testhelper.ReadOrders(s.dataDir)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.True(orders[0].Result.Success)
	s.Equal(types.SideLong, orders[0].Request.Side)
	s.InDelta(expectedQuantity, orders[0].Request.Quantity, 1e-9)
}
