package biz

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream exploded")

func testBreakerConfig() model.CircuitBreakerConfig {
	return model.CircuitBreakerConfig{
		Name:             "gemini",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenDuration:     30 * time.Second,
		Timeout:          5 * time.Second,
	}
}

// newTestBreaker returns a breaker pinned to a controllable clock.
func newTestBreaker(cfg model.CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	b := NewCircuitBreaker(cfg, log.NewStdLogger(os.Stdout))
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func failOnce(b *CircuitBreaker) error {
	_, err := b.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return nil, errUpstream
	})
	return err
}

func succeedOnce(b *CircuitBreaker) error {
	_, err := b.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return "ok", nil
	})
	return err
}

func TestBreaker_OpensAtFailureThreshold(t *testing.T) {
	b, _ := newTestBreaker(testBreakerConfig())

	require.ErrorIs(t, failOnce(b), errUpstream)
	require.ErrorIs(t, failOnce(b), errUpstream)
	assert.Equal(t, model.CircuitClosed, b.Stats().State)

	require.ErrorIs(t, failOnce(b), errUpstream)
	assert.Equal(t, model.CircuitOpen, b.Stats().State)
}

func TestBreaker_FailsFastWhileOpen(t *testing.T) {
	b, _ := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = failOnce(b)
	}

	called := false
	_, err := b.Execute(context.Background(), func(context.Context) (interface{}, error) {
		called = true
		return "ok", nil
	})

	var openErr *CircuitOpenError
	require.ErrorAs(t, err, &openErr)
	assert.False(t, called, "open breaker must not invoke the call")
	assert.Equal(t, 30*time.Second, openErr.RetryAfter)
}

func TestBreaker_StaysOpenUntilWindowFullyElapsed(t *testing.T) {
	b, clock := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = failOnce(b)
	}

	// One millisecond short of the window: still failing fast.
	*clock = clock.Add(30*time.Second - time.Millisecond)
	var openErr *CircuitOpenError
	require.ErrorAs(t, succeedOnce(b), &openErr)
	assert.Equal(t, time.Millisecond, openErr.RetryAfter)

	// Exactly at the window boundary: the next call is admitted as a probe.
	*clock = clock.Add(time.Millisecond)
	require.NoError(t, succeedOnce(b))
	assert.Equal(t, model.CircuitHalfOpen, b.Stats().State)
}

func TestBreaker_ClosesAfterSuccessThresholdProbes(t *testing.T) {
	b, clock := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = failOnce(b)
	}
	*clock = clock.Add(30 * time.Second)

	require.NoError(t, succeedOnce(b))
	assert.Equal(t, model.CircuitHalfOpen, b.Stats().State)

	require.NoError(t, succeedOnce(b))
	stats := b.Stats()
	assert.Equal(t, model.CircuitClosed, stats.State)
	assert.Zero(t, stats.FailureCount)
	assert.Zero(t, stats.SuccessCount)
}

func TestBreaker_ProbeFailureReopensWithFreshWindow(t *testing.T) {
	b, clock := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = failOnce(b)
	}
	openedAt := b.Stats().OpenedAt

	*clock = clock.Add(30 * time.Second)
	require.ErrorIs(t, failOnce(b), errUpstream)

	stats := b.Stats()
	assert.Equal(t, model.CircuitOpen, stats.State)
	assert.True(t, stats.OpenedAt.After(openedAt), "re-open must restart the window")

	// The fresh window holds for its full duration again.
	*clock = clock.Add(29 * time.Second)
	var openErr *CircuitOpenError
	assert.ErrorAs(t, succeedOnce(b), &openErr)
}

func TestBreaker_SingleSuccessForgivesClosedFailures(t *testing.T) {
	b, _ := newTestBreaker(testBreakerConfig())

	_ = failOnce(b)
	_ = failOnce(b)
	require.NoError(t, succeedOnce(b))
	assert.Zero(t, b.Stats().FailureCount)

	// Two more failures alone must not trip the threshold of three.
	_ = failOnce(b)
	_ = failOnce(b)
	assert.Equal(t, model.CircuitClosed, b.Stats().State)
}

func TestBreaker_TimeoutCountsAsFailure(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.Timeout = 10 * time.Millisecond
	cfg.FailureThreshold = 1
	b := NewCircuitBreaker(cfg, log.NewStdLogger(os.Stdout))

	release := make(chan struct{})
	defer close(release)

	_, err := b.Execute(context.Background(), func(context.Context) (interface{}, error) {
		<-release
		return "late", nil
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 10*time.Millisecond, timeoutErr.Timeout)
	assert.Equal(t, model.CircuitOpen, b.Stats().State)
}

func TestBreaker_IsAllowedTransitionsWithoutCounting(t *testing.T) {
	b, clock := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = failOnce(b)
	}
	assert.False(t, b.IsAllowed())
	callsBefore := b.Stats().TotalCalls

	*clock = clock.Add(30 * time.Second)
	assert.True(t, b.IsAllowed())

	stats := b.Stats()
	assert.Equal(t, model.CircuitHalfOpen, stats.State)
	assert.Equal(t, callsBefore, stats.TotalCalls, "IsAllowed must not count as a call")
}

func TestBreaker_ResetForcesClosed(t *testing.T) {
	b, _ := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = failOnce(b)
	}
	require.Equal(t, model.CircuitOpen, b.Stats().State)

	b.Reset()
	stats := b.Stats()
	assert.Equal(t, model.CircuitClosed, stats.State)
	assert.Zero(t, stats.FailureCount)
	require.NoError(t, succeedOnce(b))
}
