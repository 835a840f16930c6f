package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("SucceedsFirstAttempt", func(t *testing.T) {
		attempts := 0
		err := Retry(ctx, fastRetryConfig(), func() error {
			attempts++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("RetriesUntilSuccess", func(t *testing.T) {
		attempts := 0
		err := Retry(ctx, fastRetryConfig(), func() error {
			attempts++
			if attempts < 3 {
				return fmt.Errorf("transient")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("ExhaustsAttempts", func(t *testing.T) {
		attempts := 0
		err := Retry(ctx, fastRetryConfig(), func() error {
			attempts++
			return fmt.Errorf("always failing")
		})

		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("ShouldRetryShortCircuits", func(t *testing.T) {
		cfg := fastRetryConfig()
		cfg.ShouldRetry = func(err error) bool { return false }

		attempts := 0
		err := Retry(ctx, cfg, func() error {
			attempts++
			return fmt.Errorf("permanent")
		})

		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := Retry(cancelled, fastRetryConfig(), func() error {
			return fmt.Errorf("never reached")
		})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	assert.True(t, IsRetryableHTTPStatus(429))
	assert.True(t, IsRetryableHTTPStatus(503))
	assert.False(t, IsRetryableHTTPStatus(400))
	assert.False(t, IsRetryableHTTPStatus(404))
	assert.False(t, IsRetryableHTTPStatus(200))
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("PassesThroughSuccess", func(t *testing.T) {
		cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"))

		assert.NoError(t, cb.Execute(func() error { return nil }))
	})

	t.Run("OpensAfterRepeatedFailures", func(t *testing.T) {
		cfg := DefaultCircuitBreakerConfig("test")
		cfg.MinRequests = 2
		cb := NewCircuitBreaker(cfg)

		for i := 0; i < 5; i++ {
			_ = cb.Execute(func() error { return fmt.Errorf("down") })
		}

		err := cb.Execute(func() error { return nil })
		assert.ErrorIs(t, err, ErrCircuitOpen)
	})
}
