package packlate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(n int) RetryConfig {
	return RetryConfig{
		MaxRetries: n,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
	}
}

func TestWithRetry_Success(t *testing.T) {
	callCount := 0
	result, err := WithRetry(context.Background(), fastRetry(3), func() (string, error) {
		callCount++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, callCount)
}

func TestWithRetry_RetryableError(t *testing.T) {
	callCount := 0
	result, err := WithRetry(context.Background(), fastRetry(3), func() (string, error) {
		callCount++
		if callCount < 3 {
			return "", &ProviderError{Message: "bad gateway", Retryable: true}
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, callCount)
}

func TestWithRetry_BackoffGrows(t *testing.T) {
	start := time.Now()
	_, err := WithRetry(context.Background(), fastRetry(2), func() (int, error) {
		return 0, &ProviderError{Message: "unavailable", Retryable: true}
	})
	require.Error(t, err)

	// 10ms then 20ms between the three attempts.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	callCount := 0
	_, err := WithRetry(context.Background(), fastRetry(3), func() (string, error) {
		callCount++
		return "", &ProviderError{Message: "invalid API key", Retryable: false}
	})

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "invalid API key", providerErr.Message)
	assert.Equal(t, 1, callCount, "non-retryable errors are returned after one call")
}

func TestWithRetry_RateLimitNotRetried(t *testing.T) {
	callCount := 0
	_, err := WithRetry(context.Background(), fastRetry(3), func() (string, error) {
		callCount++
		return "", &RateLimitError{Backend: "openai"}
	})

	assert.True(t, IsRateLimited(err), "expected rate limit error, got: %v", err)
	assert.Equal(t, 1, callCount)
}

func TestWithRetry_MaxRetriesExceeded(t *testing.T) {
	callCount := 0
	_, err := WithRetry(context.Background(), fastRetry(2), func() (string, error) {
		callCount++
		return "", &ProviderError{Message: "unavailable", Retryable: true}
	})

	require.Error(t, err)
	assert.True(t, IsRetryable(err), "last attempt's error should be returned")
	// Initial attempt + 2 retries
	assert.Equal(t, 3, callCount)
}

func TestWithRetry_ZeroRetries(t *testing.T) {
	callCount := 0
	_, err := WithRetry(context.Background(), fastRetry(0), func() (string, error) {
		callCount++
		return "", &ProviderError{Message: "unavailable", Retryable: true}
	})

	require.Error(t, err)
	assert.Equal(t, 1, callCount)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := WithRetry(ctx, cfg, func() (string, error) {
		return "", &ProviderError{Message: "unavailable", Retryable: true}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 900*time.Millisecond, "cancel should cut the backoff short")
}

func TestWithRetry_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	callCount := 0
	_, err := WithRetry(ctx, fastRetry(3), func() (string, error) {
		callCount++
		return "unreachable", nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, callCount)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"retryable provider error", &ProviderError{Retryable: true}, true},
		{"non-retryable provider error", &ProviderError{Retryable: false}, false},
		{"wrapped retryable", fmt.Errorf("opening session: %w", &ProviderError{Retryable: true}), true},
		{"rate limit", &RateLimitError{Backend: "ora"}, false},
		{"generic error", errors.New("some error"), false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.BaseDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
}

func TestRetryableBackend(t *testing.T) {
	inner := newFakeBackend()
	inner.openErr = &ProviderError{Message: "temporary failure", Retryable: true}
	b := NewRetryableBackend(inner, fastRetry(2))

	_, err := b.OpenSession(context.Background())
	require.Error(t, err)

	opens, _, _ := inner.counts()
	assert.Equal(t, 3, opens)
}

func TestRetryableBackend_RateLimitGoesStraightThrough(t *testing.T) {
	inner := newFakeBackend()
	inner.openErr = &RateLimitError{Backend: "fake"}
	b := NewRetryableBackend(inner, fastRetry(3))

	_, err := b.OpenSession(context.Background())
	assert.True(t, IsRateLimited(err))

	opens, _, _ := inner.counts()
	assert.Equal(t, 1, opens)
}

func TestRetryableBackend_Recovers(t *testing.T) {
	inner := &flakyBackend{fakeBackend: newFakeBackend(), failures: 2}
	b := NewRetryableBackend(inner, fastRetry(3))

	sess, err := b.OpenSession(context.Background())
	require.NoError(t, err)
	_ = sess.Close(context.Background())

	assert.Equal(t, "fake", b.Name())
}

type flakyBackend struct {
	*fakeBackend
	failures int
}

func (f *flakyBackend) OpenSession(ctx context.Context) (Session, error) {
	if f.failures > 0 {
		f.failures--
		return nil, &ProviderError{Message: "503", Retryable: true}
	}
	return f.fakeBackend.OpenSession(ctx)
}
