package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"albumportal/internal/logging"

	"github.com/sethvargo/go-retry"
)

// ErrUnavailable reports that the datastore kept timing out after every
// allowed attempt.
var ErrUnavailable = errors.New("database unavailable")

// Retrier re-runs an operation on timeout-class failures only, with a fixed
// pause between attempts. The zero value runs the operation once.
type Retrier struct {
	Attempts int
	Backoff  time.Duration
	Logger   logging.Logger
}

// Once returns a Retrier that runs each operation a single time. Writes that
// are not idempotent use it: a commit whose acknowledgement timed out must
// not be replayed.
func (r Retrier) Once() Retrier {
	return Retrier{Attempts: 1, Logger: r.Logger}
}

// Do runs fn until it succeeds, fails with a non-timeout error, or the
// attempts are used up. Exhausted retries are reported as ErrUnavailable.
func (r Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	pause := r.Backoff
	if pause <= 0 {
		pause = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(pause))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !IsTimeout(err) {
			return err
		}
		if r.Logger != nil && attempt < attempts {
			r.Logger.Warn(ctx, "database timeout, retrying", "op", op, "attempt", attempt, "error", err)
		}
		return retry.RetryableError(err)
	})
	if err != nil && IsTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	return err
}

// IsTimeout reports whether err is a timeout-class failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}
