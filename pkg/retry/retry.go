// Package retry implements exponential backoff with jitter for transient
// failures, primarily generation calls and catalog introspection.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, +/- fraction of the delay
}

// DefaultConfig returns defaults tuned for generation calls: two retries
// starting at 250ms, capped at 5s, doubling each time, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   2,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// applyJitter spreads the delay by +/- jitterFactor to avoid synchronized
// retries against a shared endpoint.
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// Do executes fn with backoff until it succeeds, the error is permanent,
// retries are exhausted, or the context is done.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value. Permanent errors
// return immediately; only transient ones are retried.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result = r
		lastErr = err

		if !IsRetryable(err) {
			return result, err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(applyJitter(delay, cfg.JitterFactor)):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	return result, lastErr
}

// RetryableError is implemented by errors that declare their own
// retryability. Generation errors implement it; anything else falls back
// to pattern matching.
type RetryableError interface {
	error
	IsRetryable() bool
}

// transientPatterns match driver and transport errors that do not carry
// structured retryability.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
	"temporary failure",
	"too many connections",
	"i/o timeout",
	"network is unreachable",
	"429",
	"500",
	"502",
	"503",
	"504",
	"rate limit",
	"service unavailable",
	"too many requests",
}

// IsRetryable reports whether an error is transient. Auth failures, bad
// requests, and unknown models never retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var r RetryableError
	if errors.As(err, &r) {
		return r.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
