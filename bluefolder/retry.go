package bluefolder

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// ErrRateLimitExceeded is surfaced when the bounded retry cannot recover from
// upstream throttling. The run for the current target should abort rather
// than spin.
var ErrRateLimitExceeded = errors.New("bluefolder: rate limit exceeded")

// RateLimitError is returned by the transport when BlueFolder rejects a call
// with HTTP 429. Message holds the free-text error body, which may embed a
// "Try again after <timestamp>" hint.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "bluefolder: rate limited: " + e.Message
}

var retryAfterRe = regexp.MustCompile(`Try again after (\d{4}\.\d{2}\.\d{2} \d{1,2}:\d{2} [AP]M)`)

// ParseRetryAt extracts the server-supplied retry timestamp from a rate-limit
// message. The upstream formats it with TimeLayout in account-local time.
func ParseRetryAt(msg string) (time.Time, bool) {
	m := retryAfterRe.FindStringSubmatch(msg)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RetryPolicy wraps a fallible call against the rate-limited ticketing API.
//
// It alternates between two states: CALLING (issue the wrapped operation) and
// WAITING (back off until the timestamp the server supplied). A rate-limit
// rejection with a parseable "try again after" timestamp moves the policy to
// WAITING, then back to CALLING for exactly one more attempt. An unparseable
// timestamp, a wait beyond MaxWait, or a second consecutive rejection gives
// up with ErrRateLimitExceeded. Callers never observe more than two physical
// attempts per logical call.
type RetryPolicy struct {
	// MaxWait caps how long the policy will honor a server-supplied backoff.
	MaxWait time.Duration

	Log zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultMaxWait bounds the server-supplied backoff window.
const DefaultMaxWait = 5 * time.Minute

// NewRetryPolicy creates a policy with the default wait cap.
func NewRetryPolicy(log zerolog.Logger) *RetryPolicy {
	return &RetryPolicy{
		MaxWait: DefaultMaxWait,
		Log:     log,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn, retrying once after a parseable rate-limit rejection.
// Non-rate-limit failures propagate immediately.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	var waited bool
	for {
		// CALLING
		err := fn()
		if err == nil {
			return nil
		}

		var rl *RateLimitError
		if !errors.As(err, &rl) {
			return err
		}

		if waited {
			// Second consecutive rejection after honoring the backoff.
			return fmt.Errorf("%w: %s rejected again after backoff", ErrRateLimitExceeded, op)
		}

		retryAt, ok := ParseRetryAt(rl.Message)
		if !ok {
			return fmt.Errorf("%w: %s: no parseable retry timestamp in %q", ErrRateLimitExceeded, op, rl.Message)
		}

		wait := time.Until(retryAt)
		if p.now != nil {
			wait = retryAt.Sub(p.now())
		}
		if wait < 0 {
			wait = 0
		}
		if wait > p.MaxWait {
			return fmt.Errorf("%w: %s asked to wait %s (cap %s)", ErrRateLimitExceeded, op, wait, p.MaxWait)
		}

		// WAITING
		p.Log.Warn().
			Str("op", op).
			Time("retry_at", retryAt).
			Dur("wait", wait).
			Msg("rate limited; backing off")

		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
		waited = true
	}
}
