package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"codementor/internal/logging/types"
)

// RetryPolicy decides how a failed completion is retried. Only *APIError
// failures whose status passes Retryable are retried; anything else fails at
// once.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(status int) bool
	Sleep       func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows 3 attempts, waiting attempt×1s between them
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Retryable:   IsRetryableStatus,
		Sleep:       SleepContext,
	}
}

// LinearBackoff waits attempt×unit after the given (1-based) attempt
func LinearBackoff(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

// IsRetryableStatus reports rate limiting and server errors
func IsRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// SleepContext waits for d or until ctx is done
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs call until it succeeds, fails permanently or the attempts run out
func (p RetryPolicy) Do(ctx context.Context, logger types.Logger, call func(ctx context.Context) (string, error)) (string, error) {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		text, err := call(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !p.Retryable(apiErr.Status) {
			return "", err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		logger.Warn("Retryable LLM failure, backing off", map[string]interface{}{
			"attempt": attempt,
			"status":  apiErr.Status,
			"delay":   delay.String(),
		})
		if err := p.Sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", &RetriesExhaustedError{Attempts: p.MaxAttempts, Last: lastErr}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Backoff == nil {
		p.Backoff = def.Backoff
	}
	if p.Retryable == nil {
		p.Retryable = def.Retryable
	}
	if p.Sleep == nil {
		p.Sleep = def.Sleep
	}
	return p
}
