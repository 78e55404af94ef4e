package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// Lifecycle callback types for live trading phases.
// All callbacks with error return can abort execution if they return an error.

// OnEngineStartCallback is called once the exchange has been prepared and before the first poll.
type OnEngineStartCallback func(sessionID string, symbol string, timeframe string) error

// OnEngineStopCallback is called when the engine stops (always called via defer).
type OnEngineStopCallback func(err error)

// OnSignalCallback is called for every entry proposal, before risk validation.
type OnSignalCallback func(intent types.SignalIntent) error

// OnRejectedCallback is called when the risk manager refuses a signal.
type OnRejectedCallback func(intent types.SignalIntent, decision types.SizingDecision)

// OnOrderPlacedCallback is called after an entry attempt, successful or not.
type OnOrderPlacedCallback func(req types.OrderRequest, result types.OrderResult) error

// OnErrorCallback is called when a loop iteration fails. The loop keeps running.
type OnErrorCallback func(err error)

// OnStatusUpdateCallback is called after every iteration with the current status.
type OnStatusUpdateCallback func(status types.LiveStatus) error

// LiveTradingCallbacks holds all lifecycle callback functions for the live trading engine.
// All fields are pointers - nil means no callback will be invoked.
type LiveTradingCallbacks struct {
	OnEngineStart  *OnEngineStartCallback
	OnEngineStop   *OnEngineStopCallback
	OnSignal       *OnSignalCallback
	OnRejected     *OnRejectedCallback
	OnOrderPlaced  *OnOrderPlacedCallback
	OnError        *OnErrorCallback
	OnStatusUpdate *OnStatusUpdateCallback
}

// LiveTradingEngine polls the exchange, asks the strategy for entries and
// places risk-sized orders with attached stop and target.
type LiveTradingEngine interface {
	// Run prepares the exchange and polls until ctx is cancelled.
	// Cancellation is a clean stop and returns nil.
	Run(ctx context.Context, callbacks LiveTradingCallbacks) error

	// Step runs a single iteration and returns how long to wait before the next one.
	Step(ctx context.Context, callbacks LiveTradingCallbacks) (time.Duration, error)

	// Status returns a snapshot of the loop. Safe to call from any goroutine.
	Status() types.LiveStatus

	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
