// Package retry holds the single retry policy applied to every external
// service call: a fixed number of attempts with a fixed delay between them,
// and a predicate that marks some failures as fatal.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"voice-qa-go/internal/logger"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Policy describes how one call site retries.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Fatal reports errors that must not be retried. Nil means IsQuotaError.
	Fatal func(error) bool
	Log   *logger.Logger
}

// Default returns the policy used when configuration leaves retry unset.
func Default() Policy {
	return Policy{MaxAttempts: DefaultAttempts, Delay: DefaultDelay}
}

// Do runs fn until it succeeds, returns a fatal error, or the attempt budget
// is spent. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	fatal := p.Fatal
	if fatal == nil {
		fatal = IsQuotaError
	}
	log := p.Log
	if log == nil {
		log = logger.Discard()
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		if fatal(err) {
			log.WithError(err).WithField("op", op).Warn("fatal error, not retrying")
			return backoff.Permanent(err)
		}
		if attempt < attempts {
			log.WithError(err).WithField("op", op).WithField("attempt", attempt).Warn("call failed, retrying")
		}
		return err
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)
	return backoff.Retry(operation, b)
}

var quotaMarkers = []string{
	"quota",
	"rate limit",
	"ratelimit",
	"rate_limit",
	"resource exhausted",
	"resource_exhausted",
	"too many requests",
	"429",
}

// IsQuotaError reports quota and rate-limit failures by their error text.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Permanent marks err so Do stops retrying regardless of the predicate.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
