package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
		ok   bool
	}{
		{name: "nil", err: nil},
		{name: "typed", err: &RetryAfterError{Seconds: 9, Err: errors.New("429")}, want: 9 * time.Second, ok: true},
		{name: "telegram text", err: errors.New(`api: 429 "Too Many Requests: retry after 4"`), want: 4 * time.Second, ok: true},
		{name: "zero", err: errors.New("retry after 0")},
		{name: "other", err: errors.New("Bad Request: chat not found")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := retryAfter(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestWithRetryNilRateLimiter(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), nil, 0, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesRateLimits(t *testing.T) {
	rl := NewRateLimiter(1000, 5)
	calls := 0
	err := WithRetry(context.Background(), rl, 1, func() error {
		calls++
		if calls == 1 {
			return &RetryAfterError{Seconds: 0, Err: errors.New("retry after 1")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	rl := NewRateLimiter(1000, 5)
	calls := 0
	err := WithRetry(context.Background(), rl, 1, func() error {
		calls++
		return &RetryAfterError{Seconds: 0, Err: errors.New("429")}
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, maxSendAttempts, calls)
}

func TestWithRetryContextCancelOnRetry(t *testing.T) {
	rl := NewRateLimiter(1000, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := WithRetry(ctx, rl, 1, func() error {
		return errors.New("retry after 10")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRetryStopsOnPlainError(t *testing.T) {
	rl := NewRateLimiter(1000, 5)
	calls := 0
	err := WithRetry(context.Background(), rl, 7, func() error {
		calls++
		return errors.New("bad request: chat not found")
	})
	assert.EqualError(t, err, "bad request: chat not found")
	assert.Equal(t, 1, calls)
}

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	assert.Equal(t, 1, rl.burst)
	require.NoError(t, rl.Wait(context.Background(), 42))
	assert.Same(t, rl.bucket(42), rl.bucket(42))
	assert.NotSame(t, rl.bucket(42), rl.bucket(43))
}
