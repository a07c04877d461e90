package httputil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// Default retry policy.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Notify is called before each retry with the failed attempt's error and the
// wait until the next one.
type Notify func(err error, wait time.Duration)

// Retry executes fn up to attempts times with exponential backoff starting at
// delay. It only retries errors wrapped with [RetryableError]; other errors
// are returned immediately. Returns the last error if all attempts fail, or
// ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return RetryNotify(ctx, attempts, delay, fn, nil)
}

// RetryNotify is [Retry] with a callback before every retry.
func RetryNotify(ctx context.Context, attempts int, delay time.Duration, fn func() error, notify Notify) error {
	attempts = max(attempts, 1)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = delay
	b.Multiplier = 2
	b.RandomizationFactor = 0.1
	b.MaxElapsedTime = 0

	// fatal carries a non-retryable error out of the loop; the operation
	// reports success so backoff stops immediately.
	var fatal error
	op := func() error {
		err := fn()
		if err != nil && !isRetryable(err) {
			fatal = err
			return nil
		}
		return err
	}
	var n backoff.Notify
	if notify != nil {
		n = func(err error, wait time.Duration) { notify(err, wait) }
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	err := backoff.RetryNotify(op, policy, n)
	if fatal != nil {
		return fatal
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
