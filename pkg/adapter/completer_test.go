package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetry(n int) RetryPolicy {
	return RetryPolicy{MaxRetries: n, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestCompleterRetriesTransient(t *testing.T) {
	primary := NewMockAdapter("ok")
	primary.FailWith(&AdapterError{Adapter: "mock", Status: 503})

	c, err := NewCompleter(primary, "mock-1", WithRetry(fastRetry(2)))
	require.NoError(t, err)

	resp, reports, err := c.Call(context.Background(), Prompt{User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Retries)
	assert.False(t, reports[0].FallbackUsed)
	assert.Len(t, primary.Calls(), 2)
}

func TestCompleterFallsBackOnPermanentError(t *testing.T) {
	primary := NewMockAdapter("never")
	primary.FailWith(&AdapterError{Adapter: "mock", Status: 400, Err: errors.New("bad request")})
	secondary := NewMockAdapter("from fallback")

	core, logs := observer.New(zap.WarnLevel)
	c, err := NewCompleter(primary, "a",
		WithFallback(secondary, "b"),
		WithRetry(fastRetry(3)),
		WithLogger(zap.New(core)))
	require.NoError(t, err)

	resp, reports, err := c.Call(context.Background(), Prompt{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)
	require.Len(t, reports, 2)
	assert.NotEmpty(t, reports[0].Error)
	assert.Equal(t, 0, reports[0].Retries)
	assert.True(t, reports[1].FallbackUsed)
	assert.Len(t, primary.Calls(), 1)
	assert.Equal(t, 1, logs.FilterMessage("language model call failed").Len())
}

func TestCompleterExhaustsChain(t *testing.T) {
	primary := NewMockAdapter("")
	boom := &AdapterError{Adapter: "mock", Status: 500}
	primary.FailWith(boom, boom)

	c, err := NewCompleter(primary, "a", WithRetry(fastRetry(1)))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCompleterHonorsCancellation(t *testing.T) {
	primary := NewMockAdapter("ok")
	c, err := NewCompleter(primary, "a")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(ctx, "", "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompleterRateLimitWaitsOnContext(t *testing.T) {
	primary := NewMockAdapter("ok")
	c, err := NewCompleter(primary, "a", WithRateLimit(0.001, 1))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "", "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "", "second")
	assert.Error(t, err)
}

func TestCompleterSystemPromptPassedThrough(t *testing.T) {
	primary := NewMockAdapter("ok")
	c, err := NewCompleter(primary, "a")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "be brief", "hi")
	require.NoError(t, err)
	calls := primary.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, Prompt{System: "be brief", User: "hi"}, calls[0])
}

func TestNewCompleterRequiresPrimary(t *testing.T) {
	_, err := NewCompleter(nil, "x")
	assert.Error(t, err)
}

func TestComputeBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{5, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		got := computeBackoff(100*time.Millisecond, 500*time.Millisecond, tt.attempt)
		if got != tt.want {
			t.Fatalf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}
