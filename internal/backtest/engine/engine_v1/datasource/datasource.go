package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Minutes returns the interval length in minutes.
func (i Interval) Minutes() (int, error) {
	return utils.ParseTimeframe(string(i))
}

type DataSource interface {
	// Initialize points the data source at a parquet or csv file with
	// time, open, high, low, close and volume columns.
	Initialize(path string) error
	// ReadAll yields bars in ascending time order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// GetRange returns bars in [start, end], optionally aggregated to a coarser interval.
	GetRange(start time.Time, end time.Time, interval optional.Option[Interval]) ([]types.Bar, error)
	// Count returns the number of rows in the data source
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// LoadBars drains ReadAll into a slice and checks ordering.
func LoadBars(ds DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	var bars []types.Bar

	for bar, err := range ds.ReadAll(start, end) {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read bars", err)
		}

		bars = append(bars, bar)
	}

	if err := types.ValidateBars(bars); err != nil {
		return nil, err
	}

	return bars, nil
}
