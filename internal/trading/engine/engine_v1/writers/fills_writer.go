package writers

import (
	"database/sql"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// FillsWriter mirrors the account fills seen by the live loop into a parquet file.
// Fills are keyed by exchange id, so refetched fills are stored once.
type FillsWriter struct {
	db         *sql.DB
	sq         squirrel.StatementBuilderType
	outputPath string
	mu         sync.Mutex
}

// NewFillsWriter creates a new FillsWriter.
// outputPath is the full path to the parquet file.
func NewFillsWriter(outputPath string) *FillsWriter {
	return &FillsWriter{
		db:         nil,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize sets up the fills writer with DuckDB.
//
//nolint:dupl // Writers have similar initialization but different table schemas
func (w *FillsWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	db, err := openJournal(w.outputPath, `
		CREATE TABLE IF NOT EXISTS fills (
			id BIGINT PRIMARY KEY,
			order_id BIGINT,
			symbol TEXT,
			side TEXT,
			price DOUBLE,
			quantity DOUBLE,
			commission DOUBLE,
			realized_pnl DOUBLE,
			time TIMESTAMP
		)
	`, "fills", "id")
	if err != nil {
		return err
	}

	w.db = db

	return nil
}

// Write stores fills not seen before and exports to parquet when anything changed.
func (w *FillsWriter) Write(fills []types.AccountTrade) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeDataWriteFailed, "fills writer not initialized")
	}

	if len(fills) == 0 {
		return nil
	}

	insert := w.sq.Insert("fills").
		Columns("id", "order_id", "symbol", "side", "price", "quantity", "commission", "realized_pnl", "time").
		Suffix("ON CONFLICT (id) DO NOTHING")

	for _, fill := range fills {
		insert = insert.Values(fill.ID, fill.OrderID, fill.Symbol, string(fill.Side), fill.Price,
			fill.Quantity, fill.Commission, fill.RealizedPnL, fill.Time.UTC())
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to build fills insert", err)
	}

	result, err := w.db.Exec(query, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert fills", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil
	}

	return exportToParquet(w.db, "fills", "time", w.outputPath)
}

// GetOutputPath returns the parquet file path.
func (w *FillsWriter) GetOutputPath() string {
	return w.outputPath
}

// GetFillCount returns the number of fills stored.
func (w *FillsWriter) GetFillCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return countRows(w.db, "fills")
}

// Close releases database resources.
func (w *FillsWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := closeJournal(w.db)
	w.db = nil

	return err
}
