// Package retry re-runs API calls that failed for transient reasons.
//
// The recruitee client never retries on its own; the CLI opts in through
// this package with the attempt count from its config.
package retry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ochronus/gorecruitee/recruitee"
)

const (
	DefaultAttempts  = 1
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 30 * time.Second
)

// Policy controls how often and how long Do waits between attempts.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	// Zero or negative means DefaultAttempts.
	Attempts int

	// BaseDelay is doubled for every retry. Zero means DefaultBaseDelay.
	BaseDelay time.Duration

	// MaxDelay caps both the backoff and an advised Retry-After.
	// Zero means DefaultMaxDelay.
	MaxDelay time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Retryable reports whether err is worth another attempt: transport
// failures, rate limiting and server errors.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if recruitee.IsTransportError(err) {
		return true
	}
	status := recruitee.StatusCode(err)
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// RetryAfterDelay parses an HTTP Retry-After header value and returns the advised
// delay. If parsing fails or the header is empty, fallback is returned.
func RetryAfterDelay(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}

	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}

	if ts, err := http.ParseTime(header); err == nil {
		now := time.Now()
		if ts.After(now) {
			return ts.Sub(now)
		}
		return 0
	}

	return fallback
}

// Delay returns the wait before retry number attempt (zero based). An API
// error carrying Retry-After takes precedence over exponential backoff.
func (p Policy) Delay(attempt int, err error) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = DefaultMaxDelay
	}

	delay := base * time.Duration(1<<attempt)
	if apiErr, ok := recruitee.AsAPIError(err); ok && apiErr.Header != nil {
		delay = RetryAfterDelay(apiErr.Header.Get("Retry-After"), delay)
	}
	if delay > limit || delay < 0 {
		delay = limit
	}
	return delay
}

// Do calls op until it succeeds, returns an error Retryable rejects, or the
// attempts are used up. The last error is returned unchanged so callers can
// still inspect it with errors.As.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		// A canceled caller context also shows up as a transport error.
		if ctx.Err() != nil || attempt == attempts-1 || !Retryable(lastErr) {
			return lastErr
		}

		delay := p.Delay(attempt, lastErr)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, lastErr)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
