package types

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) TestTypicalPrice() {
	bar := Bar{High: 12, Low: 6, Close: 9}
	suite.InDelta(9.0, bar.TypicalPrice(), 1e-12)
}

func (suite *TypesTestSuite) TestValidateBars() {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ordered := []Bar{{Time: t0}, {Time: t0.Add(time.Minute)}, {Time: t0.Add(2 * time.Minute)}}
	suite.NoError(ValidateBars(ordered))
	suite.NoError(ValidateBars(nil))

	duplicate := []Bar{{Time: t0}, {Time: t0}}
	suite.Error(ValidateBars(duplicate))

	reversed := []Bar{{Time: t0.Add(time.Minute)}, {Time: t0}}
	suite.Error(ValidateBars(reversed))
}

func (suite *TypesTestSuite) TestSide() {
	suite.Equal(1.0, SideLong.Sign())
	suite.Equal(-1.0, SideShort.Sign())
	suite.Equal(PurchaseTypeBuy, SideLong.OrderSide())
	suite.Equal(PurchaseTypeSell, SideShort.OrderSide())
	suite.Equal(SideShort, SideLong.Opposite())
	suite.Equal(SideLong, SideShort.Opposite())
}

func (suite *TypesTestSuite) TestSignalDistances() {
	intent := SignalIntent{Side: SideShort, EntryPrice: 100, StopPrice: 102, TakeProfitPrice: 96}
	suite.InDelta(2.0, intent.StopDistance(), 1e-12)
	suite.InDelta(4.0, intent.TargetDistance(), 1e-12)
}

func (suite *TypesTestSuite) TestSizingDecision() {
	allowed := Allow(5)
	suite.True(allowed.Allowed)
	suite.Equal(5.0, allowed.Quantity)
	suite.Empty(allowed.Reason)

	rejected := Reject("zero stop distance")
	suite.False(rejected.Allowed)
	suite.Zero(rejected.Quantity)
	suite.Equal("zero stop distance", rejected.Reason)
}

func (suite *TypesTestSuite) TestIndicatorFrameRowAndSlice() {
	frame := IndicatorFrame{
		Bars:    []Bar{{Close: 1}, {Close: 2}, {Close: 3}},
		EMAFast: []float64{1, 2, 3},
		EMASlow: []float64{1, 2, 3},
		RSI:     []float64{math.NaN(), 50, 60},
		ATR:     []float64{1, 1, 1},
		VWAP:    []float64{1, 1.5, 2},
		VolMA:   []float64{math.NaN(), math.NaN(), 10},
	}

	row := frame.Row(2)
	suite.Equal(3.0, row.Bar.Close)
	suite.Equal(60.0, row.RSI)
	suite.Equal(10.0, row.VolMA)

	sliced := frame.Slice(2)
	suite.Equal(2, sliced.Len())
	suite.Len(sliced.VWAP, 2)
	suite.True(math.IsNaN(sliced.Row(0).RSI))

	suite.Equal(3, frame.Slice(10).Len())
	suite.Equal(0, frame.Slice(-1).Len())
}

func (suite *TypesTestSuite) TestSymbolFilters() {
	suite.NoError(DefaultSymbolFilters().Validate())
	suite.Error(SymbolFilters{MinQty: 0, LotStep: 0.1, PriceTick: 0.1}.Validate())
}

func (suite *TypesTestSuite) TestOrderRequestValidate() {
	tests := []struct {
		name    string
		req     OrderRequest
		wantErr bool
	}{
		{"valid long", OrderRequest{Symbol: "ZECUSDT", Side: SideLong, Quantity: 1, EntryPrice: 100, StopPrice: 98, TakeProfitPrice: 104}, false},
		{"valid short", OrderRequest{Symbol: "ZECUSDT", Side: SideShort, Quantity: 1, EntryPrice: 100, StopPrice: 102, TakeProfitPrice: 96}, false},
		{"long with stop above", OrderRequest{Symbol: "ZECUSDT", Side: SideLong, Quantity: 1, EntryPrice: 100, StopPrice: 101, TakeProfitPrice: 104}, true},
		{"missing symbol", OrderRequest{Side: SideLong, Quantity: 1, StopPrice: 98, TakeProfitPrice: 104}, true},
		{"zero quantity", OrderRequest{Symbol: "ZECUSDT", Side: SideLong, StopPrice: 98, TakeProfitPrice: 104}, true},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			err := tt.req.Validate()
			if tt.wantErr {
				suite.Error(err)
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *TypesTestSuite) TestTradeHelpers() {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []TradeRecord{
		{PnL: 10, EntryTime: t0, ExitTime: t0.Add(10 * time.Minute)},
		{PnL: -5},
	}
	suite.Equal([]float64{10, -5}, PnLs(trades))
	suite.Equal(10*time.Minute, trades[0].HoldingTime())

	curve := EquityCurve{{Equity: 100}, {Equity: 110}}
	suite.Equal([]float64{100, 110}, curve.Values())
}

func (suite *TypesTestSuite) TestWriteAndReadBacktestStats() {
	path := filepath.Join(suite.T().TempDir(), "stats.yaml")
	stats := BacktestStats{
		ID:          "run-1",
		Symbol:      "ZECUSDT",
		Strategy:    "ema_rsi_vwap",
		FinalEquity: 10100,
		ExitReasons: map[ExitReason]int{ExitReasonStopLoss: 2},
		Metrics:     PerformanceMetrics{TotalTrades: 2, WinRate: 0.5},
	}

	suite.Require().NoError(WriteBacktestStats(path, stats))

	loaded, err := ReadBacktestStats(path)
	suite.Require().NoError(err)
	suite.Equal("run-1", loaded.ID)
	suite.Equal(2, loaded.ExitReasons[ExitReasonStopLoss])
	suite.Equal(0.5, loaded.Metrics.WinRate)
}
