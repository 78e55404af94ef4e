package testhelper

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1/stats"
	"github.com/rxtech-lab/argo-scalper/internal/trading/engine/engine_v1/writers"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"gopkg.in/yaml.v3"
)

// findFiles returns every file named name below root.
func findFiles(root string, name string) ([]string, error) {
	var paths []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Base(path) == name {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", name, root)
	}

	return paths, nil
}

// ReadLiveStats reads every stats.yaml written below the session folder.
func ReadLiveStats(folder string) ([]stats.SessionStats, error) {
	paths, err := findFiles(folder, "stats.yaml")
	if err != nil {
		return nil, err
	}

	result := make([]stats.SessionStats, 0, len(paths))

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read stats file %s: %w", path, err)
		}

		var s stats.SessionStats
		if err := yaml.Unmarshal(content, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats file %s: %w", path, err)
		}

		result = append(result, s)
	}

	return result, nil
}

// ReadOrders reads the entry attempts journaled in orders.parquet files.
func ReadOrders(folder string) ([]writers.OrderEntry, error) {
	paths, err := findFiles(folder, "orders.parquet")
	if err != nil {
		return nil, err
	}

	var entries []writers.OrderEntry

	for _, path := range paths {
		err := queryParquet(path, func(sq squirrel.StatementBuilderType) squirrel.SelectBuilder {
			return sq.Select("time", "symbol", "side", "quantity", "entry_price", "stop_price",
				"take_profit_price", "success", "exchange_order_id", "avg_price", "message").
				From("journal").
				OrderBy("time")
		}, func(rows *sql.Rows) error {
			var (
				entry writers.OrderEntry
				side  string
			)

			if err := rows.Scan(&entry.Time, &entry.Request.Symbol, &side, &entry.Request.Quantity,
				&entry.Request.EntryPrice, &entry.Request.StopPrice, &entry.Request.TakeProfitPrice,
				&entry.Result.Success, &entry.Result.OrderID, &entry.Result.AvgPrice, &entry.Result.Message); err != nil {
				return err
			}

			entry.Request.Side = types.Side(side)
			entry.Result.Quantity = entry.Request.Quantity
			entries = append(entries, entry)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// ReadFills reads the account fills journaled in fills.parquet files.
func ReadFills(folder string) ([]types.AccountTrade, error) {
	paths, err := findFiles(folder, "fills.parquet")
	if err != nil {
		return nil, err
	}

	var fills []types.AccountTrade

	for _, path := range paths {
		err := queryParquet(path, func(sq squirrel.StatementBuilderType) squirrel.SelectBuilder {
			return sq.Select("id", "order_id", "symbol", "side", "price", "quantity", "commission", "realized_pnl", "time").
				From("journal").
				OrderBy("id")
		}, func(rows *sql.Rows) error {
			var (
				fill types.AccountTrade
				side string
			)

			if err := rows.Scan(&fill.ID, &fill.OrderID, &fill.Symbol, &side, &fill.Price,
				&fill.Quantity, &fill.Commission, &fill.RealizedPnL, &fill.Time); err != nil {
				return err
			}

			fill.Side = types.PurchaseType(side)
			fills = append(fills, fill)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return fills, nil
}

// queryParquet exposes path as the journal view of an in-memory DuckDB and
// scans every row of the built query.
func queryParquet(path string, build func(squirrel.StatementBuilderType) squirrel.SelectBuilder, scan func(*sql.Rows) error) error {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf(`CREATE VIEW journal AS SELECT * FROM read_parquet('%s');`, path)); err != nil {
		return fmt.Errorf("failed to create view from parquet file: %w", err)
	}

	query, args, err := build(squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", path, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan row of %s: %w", path, err)
		}
	}

	return rows.Err()
}
