package mockserver

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	tradingprovider "github.com/rxtech-lab/argo-scalper/internal/trading/provider"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/mocks"
	"github.com/stretchr/testify/suite"
)

const testSymbol = "SOLUSDT"

type MockServerTestSuite struct {
	suite.Suite
	server   *MockBinanceFuturesServer
	provider *tradingprovider.BinanceFuturesProvider
	bars     []types.Bar
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	suite.bars = mocks.GenerateBars(3, 300)

	suite.server = NewMockBinanceFuturesServer(ServerConfig{
		Symbol: testSymbol,
		Filters: SymbolFilters{
			MinQty:   "0.1",
			StepSize: "0.1",
			TickSize: "0.01",
		},
		Bars:     suite.bars,
		Interval: 5 * time.Minute,
	})
	suite.Require().NoError(suite.server.Start(":0"))

	provider, err := tradingprovider.NewBinanceFuturesProvider(
		tradingprovider.BinanceProviderConfig{
			ApiKey:    "test-key",
			SecretKey: "test-secret",
			BaseURL:   suite.server.BaseURL(),
		},
		true,
		tradingprovider.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		logger.NewNopLogger(),
	)
	suite.Require().NoError(err)

	suite.provider = provider
}

func (suite *MockServerTestSuite) TearDownTest() {
	if suite.server != nil {
		suite.NoError(suite.server.Stop())
	}
}

func (suite *MockServerTestSuite) lastClose() float64 {
	return suite.bars[len(suite.bars)-1].Close
}

func (suite *MockServerTestSuite) longRequest(quantity float64) types.OrderRequest {
	entry := suite.lastClose()

	return types.OrderRequest{
		Symbol:          testSymbol,
		Side:            types.SideLong,
		Quantity:        quantity,
		EntryPrice:      entry,
		StopPrice:       entry - 1.004,
		TakeProfitPrice: entry + 2.006,
	}
}

func (suite *MockServerTestSuite) TestServerStartAndStop() {
	suite.NotEmpty(suite.server.Address())
	suite.Contains(suite.server.BaseURL(), "http://")
}

func (suite *MockServerTestSuite) TestGetKlinesReturnsLatestBars() {
	bars, err := suite.provider.GetKlines(context.Background(), testSymbol, "5m", 50)
	suite.Require().NoError(err)
	suite.Require().Len(bars, 50)

	suite.Equal(suite.bars[len(suite.bars)-50].Time, bars[0].Time)
	suite.Equal(suite.bars[len(suite.bars)-1].Time, bars[49].Time)
	suite.InDelta(suite.lastClose(), bars[49].Close, 1e-9)
}

func (suite *MockServerTestSuite) TestGetKlinesUnknownSymbol() {
	_, err := suite.provider.GetKlines(context.Background(), "DOGEUSDT", "5m", 50)
	suite.Error(err)
}

func (suite *MockServerTestSuite) TestGetKlinesRangePagesForward() {
	bars := mocks.GenerateBars(4, 2000)
	suite.server.SetBars(bars)

	got, err := suite.provider.GetKlinesRange(context.Background(), testSymbol, "5m", bars[0].Time, bars[len(bars)-1].Time)
	suite.Require().NoError(err)
	suite.Require().Len(got, 2000)
	suite.Equal(bars[1500].Time, got[1500].Time)
	suite.Equal(2, suite.server.RequestCount("/fapi/v1/klines"))
}

func (suite *MockServerTestSuite) TestSymbolFiltersAreCached() {
	for i := 0; i < 2; i++ {
		filters, err := suite.provider.GetSymbolFilters(context.Background(), testSymbol)
		suite.Require().NoError(err)
		suite.Equal(types.SymbolFilters{MinQty: 0.1, LotStep: 0.1, PriceTick: 0.01}, filters)
	}

	suite.Equal(1, suite.server.RequestCount("/fapi/v1/exchangeInfo"))
}

func (suite *MockServerTestSuite) TestSetLeverage() {
	suite.Require().NoError(suite.provider.SetLeverage(context.Background(), testSymbol, 5))
	suite.Equal(5, suite.server.Leverage(testSymbol))
}

func (suite *MockServerTestSuite) TestNoPositionWhenFlat() {
	position, err := suite.provider.GetOpenPosition(context.Background(), testSymbol)
	suite.Require().NoError(err)
	suite.True(position.IsNone())
}

func (suite *MockServerTestSuite) TestLongEntryIsProtected() {
	req := suite.longRequest(2)

	result, err := suite.provider.PlaceMarketWithStopAndTarget(context.Background(), req)
	suite.Require().NoError(err)
	suite.Require().True(result.Success, result.Message)
	suite.InDelta(suite.lastClose(), result.AvgPrice, 1e-9)
	suite.NotEmpty(result.OrderID)

	amount, entry := suite.server.Position(testSymbol)
	suite.InDelta(2.0, amount, 1e-9)
	suite.InDelta(suite.lastClose(), entry, 1e-9)

	open := suite.server.OpenOrders(testSymbol)
	suite.Require().Len(open, 2)

	suite.Equal(OrderTypeLimit, open[0].Type)
	suite.Equal("SELL", open[0].Side)
	suite.True(open[0].ReduceOnly)
	suite.InDelta(req.TakeProfitPrice, open[0].Price, 0.005+1e-9)

	suite.Equal(OrderTypeStopMarket, open[1].Type)
	suite.True(open[1].ReduceOnly)
	suite.InDelta(req.StopPrice, open[1].StopPrice, 0.005+1e-9)

	position, err := suite.provider.GetOpenPosition(context.Background(), testSymbol)
	suite.Require().NoError(err)
	suite.Require().True(position.IsSome())
	suite.Equal(types.SideLong, position.Unwrap().Side)
	suite.InDelta(2.0, position.Unwrap().Quantity, 1e-9)
}

func (suite *MockServerTestSuite) TestShortPositionIsReported() {
	entry := suite.lastClose()

	result, err := suite.provider.PlaceMarketWithStopAndTarget(context.Background(), types.OrderRequest{
		Symbol:          testSymbol,
		Side:            types.SideShort,
		Quantity:        1,
		EntryPrice:      entry,
		StopPrice:       entry + 1,
		TakeProfitPrice: entry - 2,
	})
	suite.Require().NoError(err)
	suite.Require().True(result.Success, result.Message)

	position, err := suite.provider.GetOpenPosition(context.Background(), testSymbol)
	suite.Require().NoError(err)
	suite.Require().True(position.IsSome())
	suite.Equal(types.SideShort, position.Unwrap().Side)
	suite.InDelta(1.0, position.Unwrap().Quantity, 1e-9)
}

func (suite *MockServerTestSuite) TestRejectedStopFlattensPosition() {
	suite.server.RejectOrderType(OrderTypeStopMarket)

	result, err := suite.provider.PlaceMarketWithStopAndTarget(context.Background(), suite.longRequest(1))
	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Contains(result.Message, "stop order failed")

	amount, _ := suite.server.Position(testSymbol)
	suite.Zero(amount)
	suite.Empty(suite.server.OpenOrders(testSymbol))
}

func (suite *MockServerTestSuite) TestRateLimitedReadIsRetried() {
	suite.server.RateLimitNext(2)

	bars, err := suite.provider.GetKlines(context.Background(), testSymbol, "5m", 10)
	suite.Require().NoError(err)
	suite.Len(bars, 10)
	suite.Equal(3, suite.server.RequestCount("/fapi/v1/klines"))
}

func (suite *MockServerTestSuite) TestRateLimitedReadGivesUp() {
	suite.server.RateLimitNext(5)

	_, err := suite.provider.GetKlines(context.Background(), testSymbol, "5m", 10)
	suite.Error(err)
	suite.Equal(3, suite.server.RequestCount("/fapi/v1/klines"))
}

func (suite *MockServerTestSuite) TestRateLimitedOrderIsNotRetried() {
	_, err := suite.provider.GetSymbolFilters(context.Background(), testSymbol)
	suite.Require().NoError(err)

	suite.server.RateLimitNext(1)

	result, err := suite.provider.PlaceMarketWithStopAndTarget(context.Background(), suite.longRequest(1))
	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Equal(1, suite.server.RequestCount("/fapi/v1/order"))

	amount, _ := suite.server.Position(testSymbol)
	suite.Zero(amount)
}

func (suite *MockServerTestSuite) TestStopOutShowsInAccountTrades() {
	start := time.Now().Add(-time.Minute)
	req := suite.longRequest(2)

	result, err := suite.provider.PlaceMarketWithStopAndTarget(context.Background(), req)
	suite.Require().NoError(err)
	suite.Require().True(result.Success, result.Message)

	stopPrice := suite.server.OpenOrders(testSymbol)[1].StopPrice
	suite.Require().NoError(suite.server.TriggerStop(testSymbol, stopPrice))
	suite.Empty(suite.server.OpenOrders(testSymbol))

	trades, err := suite.provider.FetchAccountTrades(context.Background(), testSymbol, optional.Some(start), 100)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)

	suite.Equal(types.PurchaseTypeBuy, trades[0].Side)
	suite.Zero(trades[0].RealizedPnL)
	suite.Equal(types.PurchaseTypeSell, trades[1].Side)

	expectedLoss := (result.AvgPrice - stopPrice) * 2
	suite.InDelta(-expectedLoss, trades[1].RealizedPnL, 1e-6)
	suite.InDelta(expectedLoss, types.DailyLoss(trades, start), 1e-6)
	suite.Greater(trades[1].Commission, 0.0)
}

func (suite *MockServerTestSuite) TestTriggerStopWithoutStop() {
	suite.Error(suite.server.TriggerStop(testSymbol, 100))
}
