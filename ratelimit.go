package packlate

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures client-side request pacing.
type RateLimitConfig struct {
	RequestsPerMinute int // Zero or negative disables pacing
	BurstSize         int // Defaults to one request
}

// NewRateLimiter returns a token bucket for cfg. When pacing is disabled the
// limiter allows every request immediately.
func NewRateLimiter(cfg RateLimitConfig) *rate.Limiter {
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	if cfg.RequestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), burst)
}

// RateLimitedBackend paces every message sent through its sessions. It keeps
// the run under the backend's quota; it does not replace the Gate, which
// reacts to the backend's own rate-limit signal.
type RateLimitedBackend struct {
	Backend
	limiter *rate.Limiter
}

var _ Backend = (*RateLimitedBackend)(nil)

// NewRateLimitedBackend wraps backend with a limiter shared by all of its
// sessions.
func NewRateLimitedBackend(backend Backend, cfg RateLimitConfig) *RateLimitedBackend {
	return &RateLimitedBackend{
		Backend: backend,
		limiter: NewRateLimiter(cfg),
	}
}

// OpenSession implements Backend.
func (b *RateLimitedBackend) OpenSession(ctx context.Context) (Session, error) {
	sess, err := b.Backend.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return &rateLimitedSession{Session: sess, limiter: b.limiter}, nil
}

// Limiter returns the underlying limiter for inspection.
func (b *RateLimitedBackend) Limiter() *rate.Limiter {
	return b.limiter
}

type rateLimitedSession struct {
	Session
	limiter *rate.Limiter
}

// Send waits for a token before delegating. A wait that cannot finish before
// ctx ends gives its token back.
func (s *rateLimitedSession) Send(ctx context.Context, text string) (Reply, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Reply{}, &ProviderError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Retryable: false,
		}
	}
	return s.Session.Send(ctx, text)
}
