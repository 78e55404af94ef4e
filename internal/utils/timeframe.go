package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// ParseTimeframe converts a timeframe such as "5m", "1h" or "1d" to minutes.
func ParseTimeframe(timeframe string) (int, error) {
	tf := strings.ToLower(strings.TrimSpace(timeframe))
	if len(tf) < 2 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid timeframe %q", timeframe)
	}

	unit := tf[len(tf)-1]

	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid timeframe %q", timeframe)
	}

	switch unit {
	case 'm':
		return n, nil
	case 'h':
		return n * 60, nil
	case 'd':
		return n * 1440, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe unit in %q", timeframe)
	}
}

// TimeframeDuration is ParseTimeframe expressed as a time.Duration.
func TimeframeDuration(timeframe string) (time.Duration, error) {
	minutes, err := ParseTimeframe(timeframe)
	if err != nil {
		return 0, err
	}

	return time.Duration(minutes) * time.Minute, nil
}

// UTCDate truncates t to midnight UTC.
func UTCDate(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
