package messages

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"

	log "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts = uint(3)
	defaultRetryDelay    = 500 * time.Millisecond
)

// Retrier retries chain reads that fail transiently. Precondition and decode
// failures are returned at once.
type Retrier struct {
	attempts uint
	delay    time.Duration
}

func NewRetrier(config RetryConfig) Retrier {
	r := Retrier{
		attempts: config.Attempts,
		delay:    time.Duration(config.DelayMs) * time.Millisecond,
	}
	if r.attempts == 0 {
		r.attempts = defaultRetryAttempts
	}
	if r.delay == 0 {
		r.delay = defaultRetryDelay
	}
	return r
}

func (r Retrier) Do(ctx context.Context, operation string, fn func() error) error {
	var permanent error
	err := retry.Do(func() error {
		err := fn()
		if err != nil && !retryable(err) {
			permanent = err
			return retry.Unrecoverable(err)
		}
		return err
	},
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).WithFields(log.Fields{
				"operation": operation,
				"attempt":   n + 1,
				"max":       r.attempts,
			}).Debug("Retrying")
		}),
	)
	if permanent != nil {
		return permanent
	}
	return err
}

func retryable(err error) bool {
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &decodeErr):
		return false
	case errors.Is(err, ErrHeaderNotFinalized):
		return false
	case errors.Is(err, ErrInvalidBatchLimit), errors.Is(err, ErrInvalidLaneState):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
