package trading

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// ExecutionClient is the exchange boundary of the live loop.
// Implementations apply exchange rounding themselves and never leave a
// partially placed entry behind: an entry either succeeds with its stop and
// target attached or reports Success=false.
type ExecutionClient interface {
	// GetKlines returns the most recent limit bars, oldest first. The last bar may still be forming.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]types.Bar, error)
	// GetSymbolFilters returns the lot and tick filters of symbol.
	GetSymbolFilters(ctx context.Context, symbol string) (types.SymbolFilters, error)
	// GetOpenPosition returns the open position of symbol, if any.
	GetOpenPosition(ctx context.Context, symbol string) (optional.Option[types.Position], error)
	// PlaceMarketWithStopAndTarget opens a position at market and attaches a
	// reduce-only stop and take-profit.
	PlaceMarketWithStopAndTarget(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
	// SetLeverage sets the leverage used for new positions on symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	// FetchAccountTrades returns up to limit account fills of symbol since the given time.
	FetchAccountTrades(ctx context.Context, symbol string, since optional.Option[time.Time], limit int) ([]types.AccountTrade, error)
}
