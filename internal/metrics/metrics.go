// Package metrics exposes live trading counters to Prometheus and serves a
// JSON status endpoint next to them.
package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

var (
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_polls_total", Help: "Iterations of the live trading loop"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_signals_total", Help: "Entry signals produced by the strategy"},
		[]string{"symbol", "side"},
	)
	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_rejections_total", Help: "Signals rejected by the risk manager"},
		[]string{"symbol", "reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_orders_total", Help: "Entry orders submitted"},
		[]string{"symbol", "side", "result"},
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scalper_loop_errors_total", Help: "Loop iterations that ended in an error"},
		[]string{"symbol"},
	)
	DailyLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "scalper_daily_loss_usd", Help: "Realized loss since UTC midnight"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(PollsTotal, SignalsTotal, RejectionsTotal, OrdersTotal, ErrorsTotal, DailyLoss)
}

// StatusFunc returns the current loop status.
type StatusFunc func() types.LiveStatus

// NewRouter routes /metrics to Prometheus and /status to statusFn.
func NewRouter(statusFn StatusFunc) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusFn())
	}).Methods(http.MethodGet)

	return router
}

// Serve starts the HTTP server in the background. Close the returned server to stop it.
func Serve(addr string, statusFn StatusFunc) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(statusFn),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() { _ = srv.ListenAndServe() }()

	return srv
}
