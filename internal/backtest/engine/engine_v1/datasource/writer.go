package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// WriteBars writes bars to a parquet file, or csv when path ends in .csv.
// The file can be read back with DuckDBDataSource.
func WriteBars(path string, bars []types.Bar) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	if _, err := db.Exec(`
		CREATE TABLE bars (
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create bars table", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to begin transaction", err)
	}

	sq := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	for _, bar := range bars {
		query, args, err := sq.Insert("bars").
			Columns("time", "open", "high", "low", "close", "volume").
			Values(bar.Time.UTC(), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume).
			ToSql()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to build insert", err)
		}

		if _, err := tx.Exec(query, args...); err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert bar", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to commit bars", err)
	}

	format := "PARQUET"
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		format = "CSV, HEADER"
	}

	quoted := strings.ReplaceAll(path, "'", "''")
	if _, err := db.Exec(fmt.Sprintf(`COPY (SELECT * FROM bars ORDER BY time) TO '%s' (FORMAT %s)`, quoted, format)); err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
