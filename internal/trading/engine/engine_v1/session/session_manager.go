package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/internal/utils"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var runPattern = regexp.MustCompile(`^run_(\d+)$`)

// SessionManager owns the output folder and the loop timers of one live session.
// Output goes to:
//
//	{dataOutputPath}/{YYYY-MM-DD}/run_N/
//
// Dates are UTC. An empty dataOutputPath keeps the session in memory.
type SessionManager struct {
	dataOutputPath string
	sessionID      string
	runID          string
	runNumber      int
	sessionStart   time.Time
	currentDate    string
	currentRunPath string

	lastSignalAt    optional.Option[time.Time]
	lastSummaryAt   time.Time
	capNotifiedDate time.Time

	mu     sync.Mutex
	logger *logger.Logger
}

// NewSessionManager creates a new SessionManager instance.
func NewSessionManager(log *logger.Logger) *SessionManager {
	return &SessionManager{
		dataOutputPath:  "",
		sessionID:       "",
		runID:           "",
		runNumber:       0,
		sessionStart:    time.Time{},
		currentDate:     "",
		currentRunPath:  "",
		lastSignalAt:    optional.None[time.Time](),
		lastSummaryAt:   time.Time{},
		capNotifiedDate: time.Time{},
		mu:              sync.Mutex{},
		logger:          log,
	}
}

// Initialize starts the session at now. The first hourly summary is due one
// summary interval after the start.
func (s *SessionManager) Initialize(dataOutputPath string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataOutputPath = dataOutputPath
	s.sessionID = uuid.New().String()
	s.sessionStart = now.UTC()
	s.lastSummaryAt = s.sessionStart
	s.lastSignalAt = optional.None[time.Time]()
	s.currentDate = s.sessionStart.Format(dateLayout)

	if dataOutputPath != "" {
		runNumber, err := s.determineRunNumber(s.currentDate)
		if err != nil {
			return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to determine run number", err)
		}

		s.runNumber = runNumber
		s.runID = fmt.Sprintf("run_%d", runNumber)

		if err := s.createFolderStructure(); err != nil {
			return err
		}
	}

	s.logger.Info("Session initialized",
		zap.String("session_id", s.sessionID),
		zap.String("run_id", s.runID),
		zap.String("date", s.currentDate),
		zap.String("path", s.currentRunPath),
	)

	return nil
}

// determineRunNumber scans the date folder for existing run folders and returns the next run number.
//
//nolint:funcorder // helper method used by Initialize
func (s *SessionManager) determineRunNumber(date string) (int, error) {
	datePath := filepath.Join(s.dataOutputPath, date)

	if _, err := os.Stat(datePath); os.IsNotExist(err) {
		return 1, nil
	}

	entries, err := os.ReadDir(datePath)
	if err != nil {
		return 0, err
	}

	maxRunNumber := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		matches := runPattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}

		if num, err := strconv.Atoi(matches[1]); err == nil && num > maxRunNumber {
			maxRunNumber = num
		}
	}

	return maxRunNumber + 1, nil
}

//nolint:funcorder // helper method used by Initialize and HandleDateBoundary
func (s *SessionManager) createFolderStructure() error {
	s.currentRunPath = filepath.Join(s.dataOutputPath, s.currentDate, s.runID)

	if err := os.MkdirAll(s.currentRunPath, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create run folder", err)
	}

	return nil
}

// HandleDateBoundary moves the run folder to the new UTC date, keeping the run number.
// Returns true if the date changed.
func (s *SessionManager) HandleDateBoundary(timestamp time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newDate := timestamp.UTC().Format(dateLayout)
	if newDate == s.currentDate {
		return false, nil
	}

	oldDate := s.currentDate
	s.currentDate = newDate

	if s.dataOutputPath != "" {
		if err := s.createFolderStructure(); err != nil {
			return false, err
		}
	}

	s.logger.Info("Date boundary crossed",
		zap.String("old_date", oldDate),
		zap.String("new_date", newDate),
		zap.String("run_id", s.runID),
		zap.String("new_path", s.currentRunPath),
	)

	return true, nil
}

// RecordSignal stores the time of the last successful entry.
func (s *SessionManager) RecordSignal(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSignalAt = optional.Some(at)
}

// LastSignalAt returns the time of the last successful entry, if any.
func (s *SessionManager) LastSignalAt() optional.Option[time.Time] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSignalAt
}

// CooldownRemaining is how much of cooldown is left at now. Zero when no entry has been made.
func (s *SessionManager) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSignalAt.IsNone() {
		return 0
	}

	remaining := cooldown - now.Sub(s.lastSignalAt.Unwrap())
	if remaining < 0 {
		return 0
	}

	return remaining
}

// SummaryDue reports whether interval has passed since the last summary.
func (s *SessionManager) SummaryDue(now time.Time, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return now.Sub(s.lastSummaryAt) >= interval
}

// MarkSummary records that a summary was sent at now.
func (s *SessionManager) MarkSummary(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSummaryAt = now
}

// ShouldNotifyDailyCap returns true the first time it is called on each UTC date.
func (s *SessionManager) ShouldNotifyDailyCap(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := utils.UTCDate(now)
	if s.capNotifiedDate.Equal(day) {
		return false
	}

	s.capNotifiedDate = day

	return true
}

// GetSessionID returns the unique id of this session.
func (s *SessionManager) GetSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionID
}

// GetRunID returns the session run ID (e.g., "run_1"). Empty without an output path.
func (s *SessionManager) GetRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}

// GetSessionStart returns the session start time.
func (s *SessionManager) GetSessionStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionStart
}

// GetCurrentDate returns the current date in YYYY-MM-DD format.
func (s *SessionManager) GetCurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}

// GetCurrentRunPath returns the current run folder path.
func (s *SessionManager) GetCurrentRunPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentRunPath
}

// GetFilePath returns the full path for a file in the current run folder,
// or an empty string when the session has no output folder.
func (s *SessionManager) GetFilePath(filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentRunPath == "" {
		return ""
	}

	return filepath.Join(s.currentRunPath, filename)
}

// ListSessionsForDate returns all run IDs for a given date, ordered by run number.
func (s *SessionManager) ListSessionsForDate(date string) ([]string, error) {
	datePath := filepath.Join(s.dataOutputPath, date)

	if _, err := os.Stat(datePath); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(datePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, "failed to read date directory", err)
	}

	var runs []string

	for _, entry := range entries {
		if entry.IsDir() && runPattern.MatchString(entry.Name()) {
			runs = append(runs, entry.Name())
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		numI, _ := strconv.Atoi(runs[i][4:])
		numJ, _ := strconv.Atoi(runs[j][4:])

		return numI < numJ
	})

	return runs, nil
}
