package scrape

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/mcscrape"
)

// DefaultRetryDelays returns the backoff delays between attempts: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFunc is called before each retry with the attempt number about to
// start and the error that caused it.
type RetryFunc func(attempt int, err error)

// withRetry calls fn until it succeeds, returns an error retryable rejects,
// or the delays are exhausted. Waiting between attempts honors ctx.
func withRetry[T any](ctx context.Context, delays []time.Duration, retryable func(error) bool, onRetry RetryFunc, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 || !retryable(err) {
			break
		}
		if ctx.Err() != nil {
			return zero, lastErr
		}
		if onRetry != nil {
			onRetry(attempt+2, err)
		}

		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// RetryableFetch reports whether a fetch error is worth another attempt:
// network failures other than client-side HTTP statuses.
func RetryableFetch(err error) bool {
	if mcscrape.ErrorCode(err) != mcscrape.ENETWORK {
		return false
	}
	var statusErr *mcscrape.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

// RetryableClassify reports whether a classification error is worth another
// attempt. Only rate limiting is.
func RetryableClassify(err error) bool {
	return mcscrape.ErrorCode(err) == mcscrape.ERATELIMITED
}
