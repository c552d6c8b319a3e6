package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a redis failure worth retrying, such as a timeout or refused connection.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrCacheMiss is what the redis backend's classify maps redis.Nil to.
	// Get turns it into a plain miss; it never reaches the pipeline.
	ErrCacheMiss = errors.New("cache miss")
)

// RetryableError marks a backend error that RetryWithBackoff should retry.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError; nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err has a RetryableError in its chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

const retryAttempts = 3

// RetryWithBackoff runs fn up to three times, doubling a one-second delay
// between attempts. Only Retryable errors are retried, so a slow redis delays
// a composite lookup by at most a few seconds before the pipeline recomputes.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	delay := time.Second
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == retryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
