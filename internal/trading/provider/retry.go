package tradingprovider

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-scalper/internal/logger"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
	"go.uber.org/zap"
)

// Binance answers with these codes when the request weight or order rate is exceeded.
const (
	binanceCodeTooManyRequests int64 = -1003
	binanceCodeTooManyOrders   int64 = -1015
)

// RetryPolicy retries rate-limited exchange calls with exponential backoff.
// The delay doubles after every attempt and carries no jitter.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" validate:"gte=1"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay" validate:"gte=0"`
}

// DefaultRetryPolicy makes three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// IsRateLimitError reports whether err means the exchange asked us to slow down.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if errors.HasCode(err, errors.ErrCodeRateLimited) {
		return true
	}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == binanceCodeTooManyRequests || apiErr.Code == binanceCodeTooManyOrders
	}

	return false
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Minute
	exp.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// withRetry runs fn under the policy. Errors other than rate limits are returned at once.
func withRetry[T any](ctx context.Context, p RetryPolicy, log *logger.Logger, op string, fn func() (T, error)) (T, error) {
	operation := func() (T, error) {
		result, err := fn()
		if err != nil && !IsRateLimitError(err) {
			return result, backoff.Permanent(err)
		}

		return result, err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("Rate limited, retrying",
			zap.String("operation", op),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	return backoff.RetryNotifyWithData(operation, p.backOff(ctx), notify)
}
