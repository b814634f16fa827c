package cache

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure that may succeed when attempted again, such
// as a dropped connection or a lock held by another editor.
type RetryableError struct{ Err error }

// Retryable marks err as retryable. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether any error in err's chain is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryAttempts and retryBaseDelay define the backoff schedule: three calls,
// waiting retryBaseDelay and then twice that in between.
const retryAttempts = 3

var retryBaseDelay = 200 * time.Millisecond

// RetryWithBackoff calls fn until it succeeds, fails with an error that is
// not retryable, or has been called three times. It returns ctx.Err() if the
// context ends while waiting.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := retryBaseDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}
