// Package mockserver provides a mock Binance USDT-M futures server for testing.
// It implements the REST endpoints the futures provider calls and keeps a
// single one-way position per symbol.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// Binance error codes returned by the mock.
const (
	CodeTooManyRequests int64 = -1003
	CodeOrderRejected   int64 = -2010
	CodeInvalidSymbol   int64 = -1121
	CodeBadParameter    int64 = -1102
)

// TakerFeeRate is charged on every fill.
const TakerFeeRate = 0.0004

// OrderType mirrors the futures order types the provider sends.
type OrderType string

const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "NEW"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// Order is an order accepted by the mock.
type Order struct {
	ID            int64
	ClientOrderID string
	Symbol        string
	Side          string
	Type          OrderType
	Quantity      float64
	Price         float64
	StopPrice     float64
	ReduceOnly    bool
	Status        OrderStatus
	AvgPrice      float64
	Time          time.Time
}

// Fill is an account trade produced by a filled order.
type Fill struct {
	ID          int64
	OrderID     int64
	Symbol      string
	Side        string
	Price       float64
	Quantity    float64
	Commission  float64
	RealizedPnL float64
	Time        time.Time
}

// SymbolFilters are served through exchange info as strings, like Binance does.
type SymbolFilters struct {
	MinQty   string
	StepSize string
	TickSize string
}

// ServerConfig configures a mock server.
type ServerConfig struct {
	Symbol  string
	Filters SymbolFilters
	// Bars are served by the klines endpoint. The last close is the fill price of market orders.
	Bars []types.Bar
	// Interval is the bar duration used for kline close times. Defaults to one minute.
	Interval time.Duration
}

// position is the one-way position of a symbol. A negative amount is short.
type position struct {
	amount     float64
	entryPrice float64
}

// MockBinanceFuturesServer provides a mock Binance futures server for testing.
type MockBinanceFuturesServer struct {
	mu sync.RWMutex

	// HTTP server
	httpServer *http.Server
	listener   net.Listener

	config    ServerConfig
	bars      []types.Bar
	leverage  map[string]int
	positions map[string]*position
	orders    map[int64]*Order
	fills     []*Fill

	orderIDSeq int64
	tradeIDSeq int64

	// Failure injection
	rejectedTypes map[OrderType]bool
	rateLimited   int

	requests map[string]int
	now      func() time.Time
}

// NewMockBinanceFuturesServer creates a server for config. Missing filters
// default to a 0.01 lot and a 0.001 tick.
func NewMockBinanceFuturesServer(config ServerConfig) *MockBinanceFuturesServer {
	if config.Filters.MinQty == "" {
		config.Filters.MinQty = "0.01"
	}

	if config.Filters.StepSize == "" {
		config.Filters.StepSize = "0.01"
	}

	if config.Filters.TickSize == "" {
		config.Filters.TickSize = "0.001"
	}

	if config.Interval == 0 {
		config.Interval = time.Minute
	}

	return &MockBinanceFuturesServer{
		mu:            sync.RWMutex{},
		httpServer:    nil,
		listener:      nil,
		config:        config,
		bars:          append([]types.Bar(nil), config.Bars...),
		leverage:      make(map[string]int),
		positions:     make(map[string]*position),
		orders:        make(map[int64]*Order),
		fills:         make([]*Fill, 0),
		orderIDSeq:    1000,
		tradeIDSeq:    1,
		rejectedTypes: make(map[OrderType]bool),
		rateLimited:   0,
		requests:      make(map[string]int),
		now:           time.Now,
	}
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBinanceFuturesServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.countAndThrottle)

	router.HandleFunc("/fapi/v1/klines", s.handleKlines).Methods(http.MethodGet)
	router.HandleFunc("/fapi/v1/exchangeInfo", s.handleExchangeInfo).Methods(http.MethodGet)
	// the client library has moved between position risk versions
	router.HandleFunc("/fapi/v2/positionRisk", s.handlePositionRisk).Methods(http.MethodGet)
	router.HandleFunc("/fapi/v3/positionRisk", s.handlePositionRisk).Methods(http.MethodGet)
	router.HandleFunc("/fapi/v1/order", s.handleCreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/fapi/v1/allOpenOrders", s.handleCancelAllOrders).Methods(http.MethodDelete)
	router.HandleFunc("/fapi/v1/leverage", s.handleLeverage).Methods(http.MethodPost)
	router.HandleFunc("/fapi/v1/userTrades", s.handleUserTrades).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBinanceFuturesServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *MockBinanceFuturesServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceFuturesServer) BaseURL() string {
	return "http://" + s.Address()
}

// SetClock replaces the clock used to stamp orders and fills.
func (s *MockBinanceFuturesServer) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

// SetBars replaces the bars served by the klines endpoint.
func (s *MockBinanceFuturesServer) SetBars(bars []types.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bars = append([]types.Bar(nil), bars...)
}

// RejectOrderType makes every order of type t fail with CodeOrderRejected.
func (s *MockBinanceFuturesServer) RejectOrderType(t OrderType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rejectedTypes[t] = true
}

// RateLimitNext answers the next n requests with HTTP 429 and CodeTooManyRequests.
func (s *MockBinanceFuturesServer) RateLimitNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rateLimited = n
}

// RequestCount returns how many requests reached path, throttled ones included.
func (s *MockBinanceFuturesServer) RequestCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requests[path]
}

// Leverage returns the leverage last set for symbol.
func (s *MockBinanceFuturesServer) Leverage(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.leverage[symbol]
}

// Position returns the signed position amount and entry price of symbol.
func (s *MockBinanceFuturesServer) Position(symbol string) (float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[symbol]
	if !ok {
		return 0, 0
	}

	return p.amount, p.entryPrice
}

// Orders returns a copy of every accepted order, oldest first.
func (s *MockBinanceFuturesServer) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]Order, 0, len(s.orders))
	for id := int64(1001); id <= s.orderIDSeq; id++ {
		if o, ok := s.orders[id]; ok {
			orders = append(orders, *o)
		}
	}

	return orders
}

// OpenOrders returns the resting orders of symbol.
func (s *MockBinanceFuturesServer) OpenOrders(symbol string) []Order {
	var open []Order

	for _, o := range s.Orders() {
		if o.Symbol == symbol && o.Status == OrderStatusNew {
			open = append(open, o)
		}
	}

	return open
}

// Fills returns a copy of every fill.
func (s *MockBinanceFuturesServer) Fills() []Fill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fills := make([]Fill, 0, len(s.fills))
	for _, f := range s.fills {
		fills = append(fills, *f)
	}

	return fills
}

// TriggerStop fills the resting stop-market order of symbol at price, closes
// the position and cancels the other resting orders, as the exchange does
// when a reduce-only stop fires.
func (s *MockBinanceFuturesServer) TriggerStop(symbol string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.Symbol != symbol || o.Type != OrderTypeStopMarket || o.Status != OrderStatusNew {
			continue
		}

		s.fill(o, price)

		for _, other := range s.orders {
			if other.Symbol == symbol && other.Status == OrderStatusNew {
				other.Status = OrderStatusCanceled
			}
		}

		return nil
	}

	return fmt.Errorf("no resting stop order for %s", symbol)
}

// countAndThrottle counts requests per path and answers throttled ones.
func (s *MockBinanceFuturesServer) countAndThrottle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		throttled := s.rateLimited > 0
		if throttled {
			s.rateLimited--
		}
		s.mu.Unlock()

		if throttled {
			writeError(w, http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests; current limit is 2400 requests per minute.")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleKlines handles GET /fapi/v1/klines
func (s *MockBinanceFuturesServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	symbol := query.Get("symbol")
	if symbol == "" || query.Get("interval") == "" {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Mandatory parameter was not sent")

		return
	}

	if symbol != s.config.Symbol {
		writeError(w, http.StatusBadRequest, CodeInvalidSymbol, "Invalid symbol.")

		return
	}

	limit := 500
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = min(l, 1500)
	}

	var start, end time.Time
	if ms, err := strconv.ParseInt(query.Get("startTime"), 10, 64); err == nil {
		start = time.UnixMilli(ms)
	}

	if ms, err := strconv.ParseInt(query.Get("endTime"), 10, 64); err == nil {
		end = time.UnixMilli(ms)
	}

	s.mu.RLock()
	selected := make([]types.Bar, 0, limit)
	for _, bar := range s.bars {
		if !start.IsZero() && bar.Time.Before(start) {
			continue
		}

		if !end.IsZero() && bar.Time.After(end) {
			continue
		}

		selected = append(selected, bar)
	}
	s.mu.RUnlock()

	// with a start time Binance pages forward, otherwise it returns the latest candles
	if len(selected) > limit {
		if start.IsZero() {
			selected = selected[len(selected)-limit:]
		} else {
			selected = selected[:limit]
		}
	}

	// Binance kline format: [openTime, open, high, low, close, volume, closeTime, ...]
	klines := make([][]interface{}, 0, len(selected))
	for _, bar := range selected {
		klines = append(klines, []interface{}{
			bar.Time.UnixMilli(),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
			bar.Time.Add(s.config.Interval).UnixMilli() - 1,
			"0",
			0,
			"0",
			"0",
			"0",
		})
	}

	writeJSON(w, klines)
}

// handleExchangeInfo handles GET /fapi/v1/exchangeInfo
func (s *MockBinanceFuturesServer) handleExchangeInfo(w http.ResponseWriter, _ *http.Request) {
	filters := s.config.Filters

	s.mu.RLock()
	serverTime := s.now()
	s.mu.RUnlock()

	writeJSON(w, map[string]interface{}{
		"timezone":   "UTC",
		"serverTime": serverTime.UnixMilli(),
		"symbols": []map[string]interface{}{
			{
				"symbol":      s.config.Symbol,
				"status":      "TRADING",
				"marginAsset": "USDT",
				"filters": []map[string]interface{}{
					{
						"filterType": "PRICE_FILTER",
						"minPrice":   "0.001",
						"maxPrice":   "100000",
						"tickSize":   filters.TickSize,
					},
					{
						"filterType": "LOT_SIZE",
						"minQty":     filters.MinQty,
						"maxQty":     "1000000",
						"stepSize":   filters.StepSize,
					},
				},
			},
		},
	})
}

// handlePositionRisk handles GET /fapi/v2/positionRisk
func (s *MockBinanceFuturesServer) handlePositionRisk(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")

	s.mu.RLock()
	defer s.mu.RUnlock()

	amount, entry := 0.0, 0.0
	if p, ok := s.positions[symbol]; ok {
		amount, entry = p.amount, p.entryPrice
	}

	mark := s.lastClose()

	writeJSON(w, []map[string]interface{}{
		{
			"symbol":           symbol,
			"positionAmt":      formatFloat(amount),
			"entryPrice":       formatFloat(entry),
			"markPrice":        formatFloat(mark),
			"unRealizedProfit": formatFloat((mark - entry) * amount),
			"leverage":         strconv.Itoa(s.leverage[symbol]),
			"positionSide":     "BOTH",
		},
	})
}

// handleLeverage handles POST /fapi/v1/leverage
func (s *MockBinanceFuturesServer) handleLeverage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Failed to parse form")

		return
	}

	symbol := r.FormValue("symbol")

	leverage, err := strconv.Atoi(r.FormValue("leverage"))
	if err != nil || leverage < 1 || leverage > 125 {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Invalid leverage")

		return
	}

	s.mu.Lock()
	s.leverage[symbol] = leverage
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"symbol":           symbol,
		"leverage":         leverage,
		"maxNotionalValue": "1000000",
	})
}

// handleCreateOrder handles POST /fapi/v1/order
func (s *MockBinanceFuturesServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Failed to parse form")

		return
	}

	symbol := r.FormValue("symbol")
	side := r.FormValue("side")
	orderType := OrderType(r.FormValue("type"))

	if symbol == "" || side == "" || orderType == "" {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Mandatory parameter was not sent")

		return
	}

	if symbol != s.config.Symbol {
		writeError(w, http.StatusBadRequest, CodeInvalidSymbol, "Invalid symbol.")

		return
	}

	quantity, err := strconv.ParseFloat(r.FormValue("quantity"), 64)
	if err != nil || quantity <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Invalid quantity")

		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	stopPrice, _ := strconv.ParseFloat(r.FormValue("stopPrice"), 64)
	reduceOnly := r.FormValue("reduceOnly") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectedTypes[orderType] {
		writeError(w, http.StatusBadRequest, CodeOrderRejected, "Order would immediately trigger.")

		return
	}

	if reduceOnly {
		p, ok := s.positions[symbol]
		if !ok || p.amount == 0 || sideSign(side) == sign(p.amount) {
			writeError(w, http.StatusBadRequest, CodeOrderRejected, "ReduceOnly Order is rejected.")

			return
		}
	}

	s.orderIDSeq++
	order := &Order{
		ID:            s.orderIDSeq,
		ClientOrderID: uuid.New().String(),
		Symbol:        symbol,
		Side:          side,
		Type:          orderType,
		Quantity:      quantity,
		Price:         price,
		StopPrice:     stopPrice,
		ReduceOnly:    reduceOnly,
		Status:        OrderStatusNew,
		AvgPrice:      0,
		Time:          s.now(),
	}
	s.orders[order.ID] = order

	switch orderType {
	case OrderTypeMarket:
		s.fill(order, s.lastClose())
	case OrderTypeLimit, OrderTypeStopMarket:
		// rests until filled by the test
	default:
		delete(s.orders, order.ID)
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Invalid orderType.")

		return
	}

	writeJSON(w, orderResponse(order))
}

// handleCancelAllOrders handles DELETE /fapi/v1/allOpenOrders
func (s *MockBinanceFuturesServer) handleCancelAllOrders(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	symbol := r.FormValue("symbol")

	s.mu.Lock()
	for _, o := range s.orders {
		if o.Status != OrderStatusNew {
			continue
		}

		// the symbol may travel in a DELETE body the server does not parse
		if symbol == "" || o.Symbol == symbol {
			o.Status = OrderStatusCanceled
		}
	}
	s.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"code": 200,
		"msg":  "The operation of cancel all open order is done.",
	})
}

// handleUserTrades handles GET /fapi/v1/userTrades
func (s *MockBinanceFuturesServer) handleUserTrades(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	symbol := query.Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Mandatory parameter 'symbol' was not sent")

		return
	}

	limit := 500
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}

	var start time.Time
	if ms, err := strconv.ParseInt(query.Get("startTime"), 10, 64); err == nil {
		start = time.UnixMilli(ms)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]map[string]interface{}, 0)
	for _, f := range s.fills {
		if f.Symbol != symbol {
			continue
		}

		if !start.IsZero() && f.Time.Before(start) {
			continue
		}

		trades = append(trades, map[string]interface{}{
			"buyer":           f.Side == "BUY",
			"commission":      formatFloat(f.Commission),
			"commissionAsset": "USDT",
			"id":              f.ID,
			"maker":           false,
			"orderId":         f.OrderID,
			"price":           formatFloat(f.Price),
			"qty":             formatFloat(f.Quantity),
			"quoteQty":        formatFloat(f.Price * f.Quantity),
			"realizedPnl":     formatFloat(f.RealizedPnL),
			"side":            f.Side,
			"positionSide":    "BOTH",
			"symbol":          f.Symbol,
			"time":            f.Time.UnixMilli(),
		})

		if len(trades) >= limit {
			break
		}
	}

	writeJSON(w, trades)
}

// fill executes order at price, updates the position and records the fill.
// Must be called with the lock held.
func (s *MockBinanceFuturesServer) fill(order *Order, price float64) {
	p, ok := s.positions[order.Symbol]
	if !ok {
		p = &position{amount: 0, entryPrice: 0}
		s.positions[order.Symbol] = p
	}

	signed := sideSign(order.Side) * order.Quantity
	realized := 0.0

	switch {
	case p.amount == 0 || sign(p.amount) == sign(signed):
		total := math.Abs(p.amount) + order.Quantity
		p.entryPrice = (p.entryPrice*math.Abs(p.amount) + price*order.Quantity) / total
		p.amount += signed
	default:
		closed := math.Min(math.Abs(p.amount), order.Quantity)
		realized = (price - p.entryPrice) * closed * sign(p.amount)
		p.amount += signed

		if math.Abs(p.amount) < 1e-12 {
			p.amount = 0
			p.entryPrice = 0
		}
	}

	order.Status = OrderStatusFilled
	order.AvgPrice = price

	s.fills = append(s.fills, &Fill{
		ID:          s.tradeIDSeq,
		OrderID:     order.ID,
		Symbol:      order.Symbol,
		Side:        order.Side,
		Price:       price,
		Quantity:    order.Quantity,
		Commission:  price * order.Quantity * TakerFeeRate,
		RealizedPnL: realized,
		Time:        s.now(),
	})
	s.tradeIDSeq++
}

// lastClose must be called with the lock held.
func (s *MockBinanceFuturesServer) lastClose() float64 {
	if len(s.bars) == 0 {
		return 0
	}

	return s.bars[len(s.bars)-1].Close
}

func orderResponse(o *Order) map[string]interface{} {
	executed := 0.0
	if o.Status == OrderStatusFilled {
		executed = o.Quantity
	}

	return map[string]interface{}{
		"symbol":        o.Symbol,
		"orderId":       o.ID,
		"clientOrderId": o.ClientOrderID,
		"price":         formatFloat(o.Price),
		"avgPrice":      formatFloat(o.AvgPrice),
		"origQty":       formatFloat(o.Quantity),
		"executedQty":   formatFloat(executed),
		"cumQuote":      formatFloat(executed * o.AvgPrice),
		"reduceOnly":    o.ReduceOnly,
		"closePosition": false,
		"status":        string(o.Status),
		"stopPrice":     formatFloat(o.StopPrice),
		"timeInForce":   "GTC",
		"type":          string(o.Type),
		"origType":      string(o.Type),
		"side":          o.Side,
		"positionSide":  "BOTH",
		"workingType":   "CONTRACT_PRICE",
		"priceProtect":  false,
		"updateTime":    o.Time.UnixMilli(),
	}
}

func sideSign(side string) float64 {
	if side == "SELL" {
		return -1
	}

	return 1
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}

	return 1
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code int64, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": code, "msg": msg})
}
