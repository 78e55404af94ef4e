package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/metrics"
	"github.com/rxtech-lab/argo-scalper/internal/notify"
	"github.com/rxtech-lab/argo-scalper/internal/risk"
	tradingengine "github.com/rxtech-lab/argo-scalper/internal/trading/engine"
	live "github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1"
	tradingprovider "github.com/rxtech-lab/argo-scalper/internal/trading/provider"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func liveCommand() *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "Poll the exchange and trade the configured symbol until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve /metrics and /status on this address (overrides metrics.addr)",
			},
			&cli.StringFlag{
				Name:  "data-output",
				Usage: "Directory for order and fill journals (overrides live.data_output_path)",
			},
		},
		Action: liveAction,
	}
}

func liveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if addr := cmd.String("metrics-addr"); addr != "" {
		cfg.Metrics.Addr = addr
	}

	if out := cmd.String("data-output"); out != "" {
		cfg.Live.DataOutputPath = out
	}

	client, err := tradingprovider.NewExecutionClient(cfg.ProviderType(), cfg.ProviderConfig(), cfg.Execution.Retry, log)
	if err != nil {
		return err
	}

	strat, err := cfg.BuildStrategy()
	if err != nil {
		return err
	}

	// real filters are loaded from the exchange when the engine prepares
	riskManager, err := risk.NewManager(cfg.Risk, types.DefaultSymbolFilters(), log)
	if err != nil {
		return err
	}

	eng, err := live.NewLiveTradingEngineV1(cfg.LiveEngineConfig(), client, strat, riskManager, notify.New(cfg.Telegram, log), log)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr, eng.Status)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Info("Metrics server listening", zap.String("addr", cfg.Metrics.Addr))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return eng.Run(ctx, liveCallbacks(cfg.Strategy.Symbol, log))
}

// liveCallbacks echoes the engine lifecycle to the terminal.
func liveCallbacks(symbol string, log *logger.Logger) tradingengine.LiveTradingCallbacks {
	onStart := tradingengine.OnEngineStartCallback(func(sessionID string, symbol string, timeframe string) error {
		fmt.Printf("Live trading started: symbol=%s timeframe=%s session=%s\n", symbol, timeframe, sessionID)

		return nil
	})
	onStop := tradingengine.OnEngineStopCallback(func(err error) {
		if err != nil {
			fmt.Printf("Live trading stopped with error: %v\n", err)

			return
		}

		fmt.Println("Live trading stopped")
	})
	onSignal := tradingengine.OnSignalCallback(func(intent types.SignalIntent) error {
		fmt.Printf("Signal %s %s entry=%.4f SL=%.4f TP=%.4f\n",
			intent.Side, symbol, intent.EntryPrice, intent.StopPrice, intent.TakeProfitPrice)

		return nil
	})
	onRejected := tradingengine.OnRejectedCallback(func(intent types.SignalIntent, decision types.SizingDecision) {
		fmt.Printf("Rejected %s %s: %s\n", intent.Side, symbol, decision.Reason)
	})
	onOrderPlaced := tradingengine.OnOrderPlacedCallback(func(req types.OrderRequest, result types.OrderResult) error {
		if !result.Success {
			fmt.Printf("Order failed %s %s qty=%g: %s\n", req.Side, req.Symbol, req.Quantity, result.Message)

			return nil
		}

		fmt.Printf("Order placed %s %s qty=%g avg=%.4f\n", req.Side, req.Symbol, req.Quantity, result.AvgPrice)

		return nil
	})
	onError := tradingengine.OnErrorCallback(func(err error) {
		log.Debug("Iteration failed", zap.Error(err))
	})

	return tradingengine.LiveTradingCallbacks{
		OnEngineStart: &onStart,
		OnEngineStop:  &onStop,
		OnSignal:      &onSignal,
		OnRejected:    &onRejected,
		OnOrderPlaced: &onOrderPlaced,
		OnError:       &onError,
	}
}
