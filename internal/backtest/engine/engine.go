package engine

import (
	"context"

	"github.com/rxtech-lab/argo-scalper/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called before the first bar is simulated.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, totalBars int) error

// OnRunEndCallback is called after a run completes successfully.
type OnRunEndCallback func(result types.BacktestResult)

// OnBacktestEndCallback is called when a run finishes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// OnTradeCallback is called each time a position is closed.
type OnTradeCallback func(trade types.TradeRecord) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnBacktestEnd *OnBacktestEndCallback
	OnProcessData *OnProcessDataCallback
	OnTrade       *OnTradeCallback
}

type Engine interface {
	// Run simulates the strategy bar by bar over bars.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, bars []types.Bar, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// RunFromDataSource initializes ds with path, loads the configured time
	// range and runs the simulation over it.
	RunFromDataSource(ctx context.Context, ds datasource.DataSource, path string, callbacks LifecycleCallbacks) (types.BacktestResult, error)
	// WriteResults exports trades, equity and stats of the last run to the results folder.
	WriteResults(result types.BacktestResult) (string, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
