package packlate

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry, doubled each time
	MaxDelay   time.Duration // Upper bound on a single delay
}

// DefaultRetryConfig returns the retry policy used for opening sessions.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry calls fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. Delays double from cfg.BaseDelay up to cfg.MaxDelay.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = cfg.BaseDelay
	expo.MaxInterval = cfg.MaxDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0 // bounded by MaxRetries instead

	retries := uint64(max(cfg.MaxRetries, 0))
	b := backoff.WithContext(backoff.WithMaxRetries(expo, retries), ctx)

	return backoff.RetryWithData(func() (T, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		result, err := fn()
		if err != nil && !IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, b)
}

// IsRetryable reports whether err is a transient backend failure. Rate-limit
// signals are never retryable: they trip the run's Gate instead.
func IsRetryable(err error) bool {
	if err == nil || IsRateLimited(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// RetryableBackend retries session establishment on transient failures.
// Messages within a session are not retried; a failed exchange is reported
// to the controller, which records the entry as failed.
type RetryableBackend struct {
	Backend
	config RetryConfig
}

var _ Backend = (*RetryableBackend)(nil)

// NewRetryableBackend wraps backend with retry logic.
func NewRetryableBackend(backend Backend, cfg RetryConfig) *RetryableBackend {
	return &RetryableBackend{
		Backend: backend,
		config:  cfg,
	}
}

// OpenSession implements Backend with retry logic.
func (b *RetryableBackend) OpenSession(ctx context.Context) (Session, error) {
	return WithRetry(ctx, b.config, func() (Session, error) {
		return b.Backend.OpenSession(ctx)
	})
}
