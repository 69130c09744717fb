// Package resilience holds the bounded retry loop and the circuit breaker
// used around retrieval engine calls.
package resilience

import (
	"context"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// OnFailure is called after every failed attempt, numbered from 1.
	OnFailure func(attempt int, err error)
}

// DefaultRetryConfig returns three attempts with no delay between them.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffMultiplier: 2.0,
	}
}

// Retry runs fn until it succeeds or MaxAttempts is exhausted. It returns
// the number of attempts made and the last error. Attempts are sequential.
func Retry(ctx context.Context, cfg RetryConfig, fn func(attempt int) error) (int, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		if cfg.OnFailure != nil {
			cfg.OnFailure(attempt, err)
		}
		if attempt == maxAttempts {
			break
		}
		if delay := calculateDelay(cfg, attempt-1); delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return maxAttempts, lastErr
}

func calculateDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.InitialDelay
	for i := 0; i < attempt && cfg.BackoffMultiplier > 1; i++ {
		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
