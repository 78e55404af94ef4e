package stats

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/rxtech-lab/argo-scalper/internal/version"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// StatsAccumulator holds running statistics of realized exchange fills.
type StatsAccumulator struct {
	Fills        int       `yaml:"fills"`
	ClosingFills int       `yaml:"closing_fills"`
	WinningFills int       `yaml:"winning_fills"`
	LosingFills  int       `yaml:"losing_fills"`
	RealizedPnL  float64   `yaml:"realized_pnl"`
	TotalFees    float64   `yaml:"total_fees"`
	MaxProfit    float64   `yaml:"max_profit"`
	MaxLoss      float64   `yaml:"max_loss"`
	MaxDrawdown  float64   `yaml:"max_drawdown"`
	PeakPnL      float64   `yaml:"peak_pnl"`
	TradedVolume float64   `yaml:"traded_volume"`
	LastFillTime time.Time `yaml:"last_fill_time"`
}

// LoopCounters counts what the polling loop did.
type LoopCounters struct {
	Polls        int64            `yaml:"polls"`
	Signals      int64            `yaml:"signals"`
	Entries      int64            `yaml:"entries"`
	FailedOrders int64            `yaml:"failed_orders"`
	Errors       int64            `yaml:"errors"`
	Rejections   map[string]int64 `yaml:"rejections"`
}

// SessionStats is the content of stats.yaml.
type SessionStats struct {
	SessionID      string           `yaml:"session_id"`
	RunID          string           `yaml:"run_id"`
	Symbol         string           `yaml:"symbol"`
	Strategy       string           `yaml:"strategy"`
	EngineVersion  string           `yaml:"engine_version"`
	Date           string           `yaml:"date"`
	SessionStart   time.Time        `yaml:"session_start"`
	LastUpdated    time.Time        `yaml:"last_updated"`
	Daily          StatsAccumulator `yaml:"daily"`
	Cumulative     StatsAccumulator `yaml:"cumulative"`
	Loop           LoopCounters     `yaml:"loop"`
	OrdersFilePath string           `yaml:"orders_file_path,omitempty"`
	FillsFilePath  string           `yaml:"fills_file_path,omitempty"`
}

// TotalRejections sums rejections over all reasons.
func (c LoopCounters) TotalRejections() int64 {
	var total int64
	for _, n := range c.Rejections {
		total += n
	}

	return total
}

// StatsTracker tracks live session statistics.
type StatsTracker struct {
	sessionID    string
	runID        string
	symbol       string
	strategy     string
	sessionStart time.Time
	currentDate  string

	// Daily accumulators (reset on date boundary)
	dailyStats *StatsAccumulator

	// Cumulative accumulators (from session start)
	cumulativeStats *StatsAccumulator

	loop LoopCounters

	// seen holds fill ids already counted; the loop refetches the same fills every poll.
	seen map[int64]struct{}

	ordersFilePath  string
	fillsFilePath   string
	statsOutputPath string

	now    func() time.Time
	mu     sync.Mutex
	logger *logger.Logger
}

// NewStatsTracker creates a new StatsTracker instance.
func NewStatsTracker(log *logger.Logger) *StatsTracker {
	return &StatsTracker{
		sessionID:       "",
		runID:           "",
		symbol:          "",
		strategy:        "",
		sessionStart:    time.Time{},
		currentDate:     "",
		dailyStats:      &StatsAccumulator{},
		cumulativeStats: &StatsAccumulator{},
		loop:            LoopCounters{Rejections: make(map[string]int64)},
		seen:            make(map[int64]struct{}),
		ordersFilePath:  "",
		fillsFilePath:   "",
		statsOutputPath: "",
		now:             time.Now,
		mu:              sync.Mutex{},
		logger:          log,
	}
}

// Initialize sets up the stats tracker with session information.
func (s *StatsTracker) Initialize(sessionID, runID, symbol, strategy string, sessionStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = sessionID
	s.runID = runID
	s.symbol = symbol
	s.strategy = strategy
	s.sessionStart = sessionStart
	s.currentDate = sessionStart.UTC().Format("2006-01-02")

	s.logger.Info("Stats tracker initialized",
		zap.String("session_id", sessionID),
		zap.String("symbol", symbol),
	)
}

// SetClock replaces the wall clock used for LastUpdated.
func (s *StatsTracker) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

// SetFilePaths sets the output paths. Empty paths disable the corresponding output.
func (s *StatsTracker) SetFilePaths(ordersPath, fillsPath, statsPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ordersFilePath = ordersPath
	s.fillsFilePath = fillsPath
	s.statsOutputPath = statsPath
}

// RecordPoll counts one loop iteration.
func (s *StatsTracker) RecordPoll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loop.Polls++
}

// RecordSignal counts one strategy signal.
func (s *StatsTracker) RecordSignal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loop.Signals++
}

// RecordRejection counts a signal refused by the risk manager.
func (s *StatsTracker) RecordRejection(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loop.Rejections[reason]++
}

// RecordOrder counts an entry attempt.
func (s *StatsTracker) RecordOrder(result types.OrderResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result.Success {
		s.loop.Entries++
	} else {
		s.loop.FailedOrders++
	}
}

// RecordError counts a failed loop iteration.
func (s *StatsTracker) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loop.Errors++
}

// RecordFills adds fills not seen before and returns how many were new.
func (s *StatsTracker) RecordFills(fills []types.AccountTrade) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0

	for _, fill := range fills {
		if _, ok := s.seen[fill.ID]; ok {
			continue
		}

		s.seen[fill.ID] = struct{}{}
		added++

		if fill.Time.UTC().Format("2006-01-02") == s.currentDate {
			updateAccumulator(s.dailyStats, fill)
		}

		updateAccumulator(s.cumulativeStats, fill)
	}

	if added > 0 {
		s.logger.Debug("Fills recorded",
			zap.Int("new_fills", added),
			zap.Float64("realized_pnl", s.cumulativeStats.RealizedPnL),
		)
	}

	return added
}

func updateAccumulator(acc *StatsAccumulator, fill types.AccountTrade) {
	acc.Fills++
	acc.TotalFees += fill.Commission
	acc.TradedVolume += fill.Price * fill.Quantity

	if fill.Time.After(acc.LastFillTime) {
		acc.LastFillTime = fill.Time
	}

	// opening fills carry no realized pnl
	if fill.RealizedPnL == 0 {
		return
	}

	acc.ClosingFills++
	acc.RealizedPnL += fill.RealizedPnL

	if fill.RealizedPnL > 0 {
		acc.WinningFills++
	} else {
		acc.LosingFills++
	}

	if fill.RealizedPnL > acc.MaxProfit {
		acc.MaxProfit = fill.RealizedPnL
	}

	if fill.RealizedPnL < acc.MaxLoss {
		acc.MaxLoss = fill.RealizedPnL
	}

	if acc.RealizedPnL > acc.PeakPnL {
		acc.PeakPnL = acc.RealizedPnL
	}

	if drawdown := acc.PeakPnL - acc.RealizedPnL; drawdown > acc.MaxDrawdown {
		acc.MaxDrawdown = drawdown
	}
}

// HandleDateBoundary handles the transition to a new date.
// Resets daily stats while keeping cumulative stats.
func (s *StatsTracker) HandleDateBoundary(newDate string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newDate == s.currentDate {
		return
	}

	oldDate := s.currentDate
	s.currentDate = newDate
	s.dailyStats = &StatsAccumulator{}

	s.logger.Info("Date boundary handled, daily stats reset",
		zap.String("old_date", oldDate),
		zap.String("new_date", newDate),
	)
}

// GetStats returns a snapshot of all statistics.
func (s *StatsTracker) GetStats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buildStats()
}

//nolint:funcorder // helper method used by GetStats and WriteStatsYAML
func (s *StatsTracker) buildStats() SessionStats {
	rejections := make(map[string]int64, len(s.loop.Rejections))
	for reason, n := range s.loop.Rejections {
		rejections[reason] = n
	}

	loop := s.loop
	loop.Rejections = rejections

	return SessionStats{
		SessionID:      s.sessionID,
		RunID:          s.runID,
		Symbol:         s.symbol,
		Strategy:       s.strategy,
		EngineVersion:  version.GetVersion(),
		Date:           s.currentDate,
		SessionStart:   s.sessionStart,
		LastUpdated:    s.now().UTC(),
		Daily:          *s.dailyStats,
		Cumulative:     *s.cumulativeStats,
		Loop:           loop,
		OrdersFilePath: s.ordersFilePath,
		FillsFilePath:  s.fillsFilePath,
	}
}

// WriteStatsYAML writes the current stats to the stats.yaml file.
func (s *StatsTracker) WriteStatsYAML() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statsOutputPath == "" {
		return nil // No output path configured
	}

	data, err := yaml.Marshal(s.buildStats())
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to marshal session stats", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.statsOutputPath), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create stats directory", err)
	}

	if err := os.WriteFile(s.statsOutputPath, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to write stats file", err)
	}

	return nil
}

// GetStatsOutputPath returns the stats output path.
func (s *StatsTracker) GetStatsOutputPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.statsOutputPath
}
