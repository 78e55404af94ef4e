package tradingprovider

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/trading"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service interfaces for mocking the Binance futures API

// KlinesService interface for fetching candles.
type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	Limit(limit int) KlinesService
	StartTime(startTime int64) KlinesService
	EndTime(endTime int64) KlinesService
	Do(ctx context.Context) ([]*futures.Kline, error)
}

// ExchangeInfoService interface for reading symbol filters.
type ExchangeInfoService interface {
	Do(ctx context.Context) (*futures.ExchangeInfo, error)
}

// PositionRiskService interface for reading open positions.
type PositionRiskService interface {
	Symbol(symbol string) PositionRiskService
	Do(ctx context.Context) ([]*futures.PositionRisk, error)
}

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side futures.SideType) CreateOrderService
	Type(orderType futures.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	StopPrice(stopPrice string) CreateOrderService
	TimeInForce(tif futures.TimeInForceType) CreateOrderService
	ReduceOnly(reduceOnly bool) CreateOrderService
	Do(ctx context.Context) (*futures.CreateOrderResponse, error)
}

// CancelOpenOrdersService interface for canceling all open orders for a symbol.
type CancelOpenOrdersService interface {
	Symbol(symbol string) CancelOpenOrdersService
	Do(ctx context.Context) error
}

// ChangeLeverageService interface for setting the leverage of a symbol.
type ChangeLeverageService interface {
	Symbol(symbol string) ChangeLeverageService
	Leverage(leverage int) ChangeLeverageService
	Do(ctx context.Context) error
}

// ListAccountTradeService interface for listing account fills.
type ListAccountTradeService interface {
	Symbol(symbol string) ListAccountTradeService
	StartTime(startTime int64) ListAccountTradeService
	Limit(limit int) ListAccountTradeService
	Do(ctx context.Context) ([]*futures.AccountTrade, error)
}

// FuturesClient interface abstracts the Binance futures client for testing.
type FuturesClient interface {
	NewKlinesService() KlinesService
	NewExchangeInfoService() ExchangeInfoService
	NewGetPositionRiskService() PositionRiskService
	NewCreateOrderService() CreateOrderService
	NewCancelAllOpenOrdersService() CancelOpenOrdersService
	NewChangeLeverageService() ChangeLeverageService
	NewListAccountTradeService() ListAccountTradeService
}

// realFuturesClient wraps the actual futures.Client.
type realFuturesClient struct {
	client *futures.Client
}

func (r *realFuturesClient) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

func (r *realFuturesClient) NewExchangeInfoService() ExchangeInfoService {
	return &realExchangeInfoService{service: r.client.NewExchangeInfoService()}
}

func (r *realFuturesClient) NewGetPositionRiskService() PositionRiskService {
	return &realPositionRiskService{service: r.client.NewGetPositionRiskService()}
}

func (r *realFuturesClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realFuturesClient) NewCancelAllOpenOrdersService() CancelOpenOrdersService {
	return &realCancelOpenOrdersService{service: r.client.NewCancelAllOpenOrdersService()}
}

func (r *realFuturesClient) NewChangeLeverageService() ChangeLeverageService {
	return &realChangeLeverageService{service: r.client.NewChangeLeverageService()}
}

func (r *realFuturesClient) NewListAccountTradeService() ListAccountTradeService {
	return &realListAccountTradeService{service: r.client.NewListAccountTradeService()}
}

// Real service wrappers

type realKlinesService struct {
	service *futures.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) StartTime(startTime int64) KlinesService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *realKlinesService) EndTime(endTime int64) KlinesService {
	s.service = s.service.EndTime(endTime)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*futures.Kline, error) {
	return s.service.Do(ctx)
}

type realExchangeInfoService struct {
	service *futures.ExchangeInfoService
}

func (s *realExchangeInfoService) Do(ctx context.Context) (*futures.ExchangeInfo, error) {
	return s.service.Do(ctx)
}

type realPositionRiskService struct {
	service *futures.GetPositionRiskService
}

func (s *realPositionRiskService) Symbol(symbol string) PositionRiskService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realPositionRiskService) Do(ctx context.Context) ([]*futures.PositionRisk, error) {
	return s.service.Do(ctx)
}

type realCreateOrderService struct {
	service *futures.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side futures.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType futures.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) StopPrice(stopPrice string) CreateOrderService {
	s.service = s.service.StopPrice(stopPrice)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif futures.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) ReduceOnly(reduceOnly bool) CreateOrderService {
	s.service = s.service.ReduceOnly(reduceOnly)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*futures.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realCancelOpenOrdersService struct {
	service *futures.CancelAllOpenOrdersService
}

func (s *realCancelOpenOrdersService) Symbol(symbol string) CancelOpenOrdersService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOpenOrdersService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realChangeLeverageService struct {
	service *futures.ChangeLeverageService
}

func (s *realChangeLeverageService) Symbol(symbol string) ChangeLeverageService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realChangeLeverageService) Leverage(leverage int) ChangeLeverageService {
	s.service = s.service.Leverage(leverage)

	return s
}

func (s *realChangeLeverageService) Do(ctx context.Context) error {
	_, err := s.service.Do(ctx)

	return err
}

type realListAccountTradeService struct {
	service *futures.ListAccountTradeService
}

func (s *realListAccountTradeService) Symbol(symbol string) ListAccountTradeService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListAccountTradeService) StartTime(startTime int64) ListAccountTradeService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *realListAccountTradeService) Limit(limit int) ListAccountTradeService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realListAccountTradeService) Do(ctx context.Context) ([]*futures.AccountTrade, error) {
	return s.service.Do(ctx)
}

// BinanceFuturesProvider implements trading.ExecutionClient on Binance USDT-M futures.
// It keeps no trading state; only symbol filters are cached after the first lookup.
type BinanceFuturesProvider struct {
	client FuturesClient
	retry  RetryPolicy
	log    *logger.Logger

	mu      sync.Mutex
	filters map[string]types.SymbolFilters
}

var _ trading.ExecutionClient = (*BinanceFuturesProvider)(nil)

// NewBinanceFuturesProvider creates a provider for the live endpoint, or the futures testnet when useTestnet is set.
// A non-empty config.BaseURL takes precedence over both.
func NewBinanceFuturesProvider(config BinanceProviderConfig, useTestnet bool, retry RetryPolicy, log *logger.Logger) (*BinanceFuturesProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// go-binance reads the testnet switch when the client is built
	futures.UseTestnet = useTestnet

	client := futures.NewClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return NewBinanceFuturesProviderWithClient(&realFuturesClient{client: client}, retry, log), nil
}

// NewBinanceFuturesProviderWithClient creates a provider on top of an existing client.
func NewBinanceFuturesProviderWithClient(client FuturesClient, retry RetryPolicy, log *logger.Logger) *BinanceFuturesProvider {
	return &BinanceFuturesProvider{
		client:  client,
		retry:   retry,
		log:     log,
		mu:      sync.Mutex{},
		filters: make(map[string]types.SymbolFilters),
	}
}

// GetKlines implements trading.ExecutionClient.
func (b *BinanceFuturesProvider) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]types.Bar, error) {
	if _, err := utils.ParseTimeframe(interval); err != nil {
		return nil, err
	}

	klines, err := withRetry(ctx, b.retry, b.log, "klines", func() ([]*futures.Kline, error) {
		return b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExchangeRequestFailed, "failed to fetch klines from Binance", err)
	}

	return klinesToBars(klines)
}

// GetKlinesRange returns bars with open times in [start, end], paging forward
// through the exchange limit of 1500 candles per request.
func (b *BinanceFuturesProvider) GetKlinesRange(ctx context.Context, symbol string, interval string, start time.Time, end time.Time) ([]types.Bar, error) {
	step, err := utils.TimeframeDuration(interval)
	if err != nil {
		return nil, err
	}

	if end.Before(start) {
		return nil, errors.New(errors.ErrCodeInvalidPeriod, "end time is before start time")
	}

	const pageSize = 1500

	var bars []types.Bar

	cursor := start
	for !cursor.After(end) {
		from := cursor.UnixMilli()

		klines, err := withRetry(ctx, b.retry, b.log, "klines_range", func() ([]*futures.Kline, error) {
			return b.client.NewKlinesService().
				Symbol(symbol).
				Interval(interval).
				StartTime(from).
				EndTime(end.UnixMilli()).
				Limit(pageSize).
				Do(ctx)
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeExchangeRequestFailed, "failed to fetch klines from Binance", err)
		}

		page, err := klinesToBars(klines)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		bars = append(bars, page...)
		cursor = page[len(page)-1].Time.Add(step)

		if len(page) < pageSize {
			break
		}
	}

	return bars, nil
}

// GetSymbolFilters implements trading.ExecutionClient. Filters missing from
// exchange info fall back to the defaults.
func (b *BinanceFuturesProvider) GetSymbolFilters(ctx context.Context, symbol string) (types.SymbolFilters, error) {
	b.mu.Lock()
	cached, ok := b.filters[symbol]
	b.mu.Unlock()

	if ok {
		return cached, nil
	}

	info, err := withRetry(ctx, b.retry, b.log, "exchange_info", func() (*futures.ExchangeInfo, error) {
		return b.client.NewExchangeInfoService().Do(ctx)
	})
	if err != nil {
		return types.SymbolFilters{}, errors.Wrap(errors.ErrCodeExchangeRequestFailed, "failed to fetch exchange info from Binance", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}

		filters := types.DefaultSymbolFilters()

		if lot := s.LotSizeFilter(); lot != nil {
			filters.MinQty = parseOr(lot.MinQuantity, filters.MinQty)
			filters.LotStep = parseOr(lot.StepSize, filters.LotStep)
		}

		if price := s.PriceFilter(); price != nil {
			filters.PriceTick = parseOr(price.TickSize, filters.PriceTick)
		}

		b.mu.Lock()
		b.filters[symbol] = filters
		b.mu.Unlock()

		return filters, nil
	}

	return types.SymbolFilters{}, errors.Newf(errors.ErrCodeSymbolNotFound, "symbol %s not found in exchange info", symbol)
}

// GetOpenPosition implements trading.ExecutionClient.
func (b *BinanceFuturesProvider) GetOpenPosition(ctx context.Context, symbol string) (optional.Option[types.Position], error) {
	risks, err := withRetry(ctx, b.retry, b.log, "position_risk", func() ([]*futures.PositionRisk, error) {
		return b.client.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return optional.None[types.Position](), errors.Wrap(errors.ErrCodeExchangeRequestFailed, "failed to fetch position from Binance", err)
	}

	for _, risk := range risks {
		amount := parseOr(risk.PositionAmt, 0)
		if amount == 0 {
			continue
		}

		side := types.SideLong
		if amount < 0 {
			side = types.SideShort
			amount = -amount
		}

		leverage, _ := strconv.Atoi(risk.Leverage)

		return optional.Some(types.Position{
			Symbol:        risk.Symbol,
			Side:          side,
			Quantity:      amount,
			EntryPrice:    parseOr(risk.EntryPrice, 0),
			UnrealizedPnL: parseOr(risk.UnRealizedProfit, 0),
			Leverage:      leverage,
		}), nil
	}

	return optional.None[types.Position](), nil
}

// SetLeverage implements trading.ExecutionClient.
func (b *BinanceFuturesProvider) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := withRetry(ctx, b.retry, b.log, "leverage", func() (struct{}, error) {
		return struct{}{}, b.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	})
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExchangeRequestFailed, err, "failed to set leverage %d on %s", leverage, symbol)
	}

	return nil
}

// FetchAccountTrades implements trading.ExecutionClient.
func (b *BinanceFuturesProvider) FetchAccountTrades(ctx context.Context, symbol string, since optional.Option[time.Time], limit int) ([]types.AccountTrade, error) {
	fills, err := withRetry(ctx, b.retry, b.log, "account_trades", func() ([]*futures.AccountTrade, error) {
		service := b.client.NewListAccountTradeService().Symbol(symbol).Limit(limit)
		if since.IsSome() {
			service = service.StartTime(since.Unwrap().UnixMilli())
		}

		return service.Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExchangeRequestFailed, "failed to fetch account trades from Binance", err)
	}

	trades := make([]types.AccountTrade, 0, len(fills))
	for _, fill := range fills {
		trades = append(trades, types.AccountTrade{
			ID:          fill.ID,
			OrderID:     fill.OrderID,
			Symbol:      fill.Symbol,
			Side:        types.PurchaseType(fill.Side),
			Price:       parseOr(fill.Price, 0),
			Quantity:    parseOr(fill.Quantity, 0),
			Commission:  parseOr(fill.Commission, 0),
			Time:        time.UnixMilli(fill.Time).UTC(),
			RealizedPnL: parseOr(fill.RealizedPnl, 0),
		})
	}

	return trades, nil
}

// PlaceMarketWithStopAndTarget implements trading.ExecutionClient.
//
// The entry is a market order, then a reduce-only GTC limit at the target and
// a reduce-only stop-market at the stop, both rounded to the price tick. If a
// protective order is rejected the position is flattened and the result
// reports failure. Order placement is never retried so a timeout cannot
// produce a duplicate entry.
func (b *BinanceFuturesProvider) PlaceMarketWithStopAndTarget(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if err := req.Validate(); err != nil {
		return types.OrderResult{}, err
	}

	filters, err := b.GetSymbolFilters(ctx, req.Symbol)
	if err != nil {
		b.log.Warn("Using default symbol filters", zap.String("symbol", req.Symbol), zap.Error(err))

		filters = types.DefaultSymbolFilters()
	}

	entrySide, exitSide := futures.SideTypeBuy, futures.SideTypeSell
	if req.Side == types.SideShort {
		entrySide, exitSide = futures.SideTypeSell, futures.SideTypeBuy
	}

	quantity := formatDecimal(req.Quantity)

	entry, err := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(entrySide).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		Do(ctx)
	if err != nil {
		b.log.Error("Market order failed", zap.String("symbol", req.Symbol), zap.Error(err))

		return failedOrder("market order failed", err), nil
	}

	avgPrice := parseOr(entry.AvgPrice, 0)
	if avgPrice == 0 {
		avgPrice = parseOr(entry.Price, 0)
	}

	if avgPrice == 0 {
		avgPrice = req.EntryPrice
	}

	_, err = b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(exitSide).
		Type(futures.OrderTypeLimit).
		Quantity(quantity).
		Price(formatDecimal(utils.RoundPrice(req.TakeProfitPrice, filters.PriceTick))).
		TimeInForce(futures.TimeInForceTypeGTC).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		b.flatten(ctx, req.Symbol, exitSide, quantity)

		return failedOrder("take-profit order failed, position closed", err), nil
	}

	_, err = b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(exitSide).
		Type(futures.OrderTypeStopMarket).
		Quantity(quantity).
		StopPrice(formatDecimal(utils.RoundPrice(req.StopPrice, filters.PriceTick))).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		b.flatten(ctx, req.Symbol, exitSide, quantity)

		return failedOrder("stop order failed, position closed", err), nil
	}

	b.log.Info("Order placed",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.String("quantity", quantity),
		zap.Float64("avg_price", avgPrice),
	)

	return types.OrderResult{
		Success:  true,
		OrderID:  strconv.FormatInt(entry.OrderID, 10),
		AvgPrice: avgPrice,
		Quantity: req.Quantity,
		Message:  "",
	}, nil
}

// flatten cancels resting orders on symbol and closes the position at market.
func (b *BinanceFuturesProvider) flatten(ctx context.Context, symbol string, side futures.SideType, quantity string) {
	if err := b.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		b.log.Error("Failed to cancel open orders", zap.String("symbol", symbol), zap.Error(err))
	}

	_, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		b.log.Error("Failed to close unprotected position", zap.String("symbol", symbol), zap.Error(err))
	}
}

func failedOrder(message string, cause error) types.OrderResult {
	return types.OrderResult{
		Success:  false,
		OrderID:  "",
		AvgPrice: 0,
		Quantity: 0,
		Message:  errors.Wrap(errors.ErrCodeOrderFailed, message, cause).Error(),
	}
}

func klinesToBars(klines []*futures.Kline) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		bar := types.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   parseOr(k.Open, 0),
			High:   parseOr(k.High, 0),
			Low:    parseOr(k.Low, 0),
			Close:  parseOr(k.Close, 0),
			Volume: parseOr(k.Volume, 0),
		}

		bars = append(bars, bar)
	}

	if err := types.ValidateBars(bars); err != nil {
		return nil, err
	}

	return bars, nil
}

func parseOr(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}

	return parsed
}

func formatDecimal(value float64) string {
	return decimal.NewFromFloat(value).String()
}
