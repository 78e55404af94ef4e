package writers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// OrderEntry is one entry attempt of the live loop.
type OrderEntry struct {
	Time    time.Time
	Request types.OrderRequest
	Result  types.OrderResult
}

// OrdersWriter journals entry attempts to a parquet file with real-time persistence.
type OrdersWriter struct {
	db         *sql.DB
	sq         squirrel.StatementBuilderType
	outputPath string
	mu         sync.Mutex
}

// NewOrdersWriter creates a new OrdersWriter.
// outputPath is the full path to the parquet file.
func NewOrdersWriter(outputPath string) *OrdersWriter {
	return &OrdersWriter{
		db:         nil,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize sets up the orders writer with DuckDB. Rows already in the
// parquet file are loaded so a restarted session keeps appending.
//
//nolint:dupl // Writers have similar initialization but different table schemas
func (w *OrdersWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	db, err := openJournal(w.outputPath, `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			time TIMESTAMP,
			symbol TEXT,
			side TEXT,
			quantity DOUBLE,
			entry_price DOUBLE,
			stop_price DOUBLE,
			take_profit_price DOUBLE,
			success BOOLEAN,
			exchange_order_id TEXT,
			avg_price DOUBLE,
			message TEXT
		)
	`, "orders", "id")
	if err != nil {
		return err
	}

	w.db = db

	return nil
}

// Write persists an entry attempt and exports to parquet.
func (w *OrdersWriter) Write(entry OrderEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeDataWriteFailed, "orders writer not initialized")
	}

	query, args, err := w.sq.Insert("orders").
		Columns("id", "time", "symbol", "side", "quantity", "entry_price", "stop_price",
			"take_profit_price", "success", "exchange_order_id", "avg_price", "message").
		Values(uuid.New().String(), entry.Time.UTC(), entry.Request.Symbol, string(entry.Request.Side),
			entry.Request.Quantity, entry.Request.EntryPrice, entry.Request.StopPrice,
			entry.Request.TakeProfitPrice, entry.Result.Success, entry.Result.OrderID,
			entry.Result.AvgPrice, entry.Result.Message).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to build order insert", err)
	}

	if _, err := w.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert order", err)
	}

	return exportToParquet(w.db, "orders", "time", w.outputPath)
}

// GetOutputPath returns the parquet file path.
func (w *OrdersWriter) GetOutputPath() string {
	return w.outputPath
}

// GetOrderCount returns the number of orders stored.
func (w *OrdersWriter) GetOrderCount() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return countRows(w.db, "orders")
}

// Close releases database resources.
func (w *OrdersWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := closeJournal(w.db)
	w.db = nil

	return err
}

func openJournal(outputPath string, schema string, table string, key string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create data directory", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to create %s table", table)
	}

	if _, err := os.Stat(outputPath); err == nil {
		// a corrupt file is overwritten on the next export
		_, _ = db.Exec(fmt.Sprintf(
			`INSERT INTO %s SELECT * FROM read_parquet('%s') ON CONFLICT (%s) DO NOTHING`,
			table, quote(outputPath), key,
		))
	}

	return db, nil
}

func exportToParquet(db *sql.DB, table string, orderBy string, outputPath string) error {
	// squirrel has no COPY support
	_, err := db.Exec(fmt.Sprintf(
		`COPY (SELECT * FROM %s ORDER BY %s ASC) TO '%s' (FORMAT PARQUET)`,
		table, orderBy, quote(outputPath),
	))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to export to parquet", err)
	}

	return nil
}

func countRows(db *sql.DB, table string) (int, error) {
	if db == nil {
		return 0, errors.New(errors.ErrCodeDataWriteFailed, "writer not initialized")
	}

	var count int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", table)
	}

	return count, nil
}

func closeJournal(db *sql.DB) error {
	if db == nil {
		return nil
	}

	if err := db.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to close database", err)
	}

	return nil
}

func quote(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
