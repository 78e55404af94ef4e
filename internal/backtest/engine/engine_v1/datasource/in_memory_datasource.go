package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

// InMemoryDataSource serves bars held in memory. Used for tests and for the
// kline window fetched by the live loop.
type InMemoryDataSource struct {
	bars []types.Bar
}

func NewInMemoryDataSource(bars []types.Bar) *InMemoryDataSource {
	return &InMemoryDataSource{bars: bars}
}

// Initialize is a no-op; the bars are supplied at construction.
func (m *InMemoryDataSource) Initialize(path string) error {
	return nil
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}

func (m *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if !inRange(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

func (m *InMemoryDataSource) GetRange(start time.Time, end time.Time, interval optional.Option[Interval]) ([]types.Bar, error) {
	var bars []types.Bar

	for bar := range m.ReadAll(optional.Some(start), optional.Some(end)) {
		bars = append(bars, bar)
	}

	if interval.IsNone() {
		return bars, nil
	}

	minutes, err := interval.Unwrap().Minutes()
	if err != nil {
		return nil, err
	}

	return Aggregate(bars, time.Duration(minutes)*time.Minute), nil
}

func (m *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if inRange(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

func (m *InMemoryDataSource) Close() error {
	return nil
}

// Aggregate groups ordered bars into buckets of width d aligned to the Unix epoch.
func Aggregate(bars []types.Bar, d time.Duration) []types.Bar {
	var out []types.Bar

	for _, bar := range bars {
		bucket := bar.Time.UTC().Truncate(d)

		if len(out) == 0 || !out[len(out)-1].Time.Equal(bucket) {
			bar.Time = bucket
			out = append(out, bar)

			continue
		}

		last := &out[len(out)-1]
		last.High = max(last.High, bar.High)
		last.Low = min(last.Low, bar.Low)
		last.Close = bar.Close
		last.Volume += bar.Volume
	}

	return out
}
