// ABOUTME: Retry utilities with exponential backoff.
// ABOUTME: Used by the CLI when re-running a migration that hit transient failures.
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// CalculateBackoff returns exponential backoff with jitter for a 1-based attempt.
// The base delay doubles each attempt up to maxDelay, then gets up to 25% jitter
// either way.
func CalculateBackoff(baseDelay, maxDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// cap the shift so the multiplication cannot overflow
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt-1))
	if maxDelay > 0 && backoff > maxDelay {
		backoff = maxDelay
	}
	quarter := backoff / 4
	if quarter <= 0 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(int64(quarter)*2+1)) - quarter
	return backoff + jitter
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
