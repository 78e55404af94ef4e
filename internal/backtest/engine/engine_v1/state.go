package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/version"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
)

const (
	tradesFileName = "trades.parquet"
	equityFileName = "equity.parquet"
	statsFileName  = "stats.yaml"
)

// BacktestState records the trades and equity of a run in an in-memory
// DuckDB database so they can be exported as parquet.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades and equity tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			entry_price DOUBLE,
			exit_price DOUBLE,
			pnl DOUBLE,
			pnl_pct DOUBLE,
			fees DOUBLE,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			exit_reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trades table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			run_id TEXT,
			bar_index INTEGER,
			time TIMESTAMP,
			equity DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create equity table", err)
	}

	return nil
}

// Record stores every trade and equity point of result.
func (b *BacktestState) Record(result types.BacktestResult) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to begin transaction", err)
	}

	for _, trade := range result.Trades {
		_, err := b.sq.
			Insert("trades").
			Columns(
				"id", "run_id", "symbol", "side", "quantity", "entry_price", "exit_price",
				"pnl", "pnl_pct", "fees", "entry_time", "exit_time", "exit_reason",
			).
			Values(
				trade.ID, result.RunID, trade.Symbol, string(trade.Side), trade.Quantity, trade.EntryPrice, trade.ExitPrice,
				trade.PnL, trade.PnLPct, trade.Fees, trade.EntryTime, trade.ExitTime, string(trade.ExitReason),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert trade", err)
		}
	}

	for _, point := range result.EquityCurve {
		_, err := b.sq.
			Insert("equity").
			Columns("run_id", "bar_index", "time", "equity").
			Values(result.RunID, point.Index, point.Time, point.Equity).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to commit results", err)
	}

	return nil
}

// GetAllTrades returns the recorded trades ordered by exit time.
func (b *BacktestState) GetAllTrades() ([]types.TradeRecord, error) {
	rows, err := b.sq.
		Select(
			"id", "symbol", "side", "quantity", "entry_price", "exit_price",
			"pnl", "pnl_pct", "fees", "entry_time", "exit_time", "exit_reason",
		).
		From("trades").
		OrderBy("exit_time ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.TradeRecord

	for rows.Next() {
		var trade types.TradeRecord

		err := rows.Scan(
			&trade.ID, &trade.Symbol, &trade.Side, &trade.Quantity, &trade.EntryPrice, &trade.ExitPrice,
			&trade.PnL, &trade.PnLPct, &trade.Fees, &trade.EntryTime, &trade.ExitTime, &trade.ExitReason,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.EntryTime = trade.EntryTime.UTC()
		trade.ExitTime = trade.ExitTime.UTC()
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// CountEquityPoints returns the number of stored equity points.
func (b *BacktestState) CountEquityPoints() (int, error) {
	var count int

	err := b.sq.Select("COUNT(*)").From("equity").RunWith(b.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count equity points", err)
	}

	return count, nil
}

// Cleanup resets the database state
func (b *BacktestState) Cleanup() error {
	// Squirrel doesn't have DROP syntax
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS equity;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to cleanup tables", err)
	}

	return b.Initialize()
}

// Write exports trades.parquet, equity.parquet and stats.yaml into path.
func (b *BacktestState) Write(path string, stats types.BacktestStats) (types.BacktestStats, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return stats, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create directory", err)
	}

	tradesPath := filepath.Join(path, tradesFileName)
	equityPath := filepath.Join(path, equityFileName)

	// Squirrel doesn't support COPY
	if _, err := b.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, escapePath(tradesPath))); err != nil {
		return stats, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to export trades to parquet", err)
	}

	if _, err := b.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM equity ORDER BY bar_index) TO '%s' (FORMAT PARQUET)`, escapePath(equityPath))); err != nil {
		return stats, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to export equity to parquet", err)
	}

	stats.TradesFilePath = tradesPath
	stats.EquityFilePath = equityPath

	if stats.EngineVersion == "" {
		stats.EngineVersion = version.GetVersion()
	}

	if err := types.WriteBacktestStats(filepath.Join(path, statsFileName), stats); err != nil {
		return stats, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to write stats", err)
	}

	b.logger.Info("Exported backtest results",
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath),
	)

	return stats, nil
}

// Close releases the database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}

// NewBacktestStats builds the stats.yaml payload for a result.
func NewBacktestStats(result types.BacktestResult, symbol string, strategy string, bars int) types.BacktestStats {
	return types.BacktestStats{
		ID:             result.RunID,
		Timestamp:      time.Now().UTC(),
		Symbol:         symbol,
		Strategy:       strategy,
		EngineVersion:  version.GetVersion(),
		Bars:           bars,
		InitialCapital: result.InitialEquity,
		FinalEquity:    result.FinalEquity(),
		TotalFees:      result.TotalFees(),
		ExitReasons:    result.ExitReasons(),
		Metrics:        result.Metrics,
	}
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
