package biz

import (
	"context"
	"sync"
	"time"

	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// CircuitBreaker tracks the health of one upstream and fails fast once the
// upstream crosses its failure threshold. State is process-local by design:
// replicas each run their own detector and never coordinate breaker state.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg model.CircuitBreakerConfig

	state         model.CircuitState
	failureCount  int
	successCount  int // meaningful only while half-open
	totalCalls    int64
	totalFailures int64
	lastFailureAt time.Time
	lastSuccessAt time.Time
	openedAt      time.Time

	logger *log.Helper
	now    func() time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(cfg model.CircuitBreakerConfig, logger log.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:    cfg,
		state:  model.CircuitClosed,
		logger: log.NewHelper(logger),
		now:    time.Now,
	}
}

// Execute runs fn through the breaker. While the breaker is open it fails
// fast with *CircuitOpenError and fn is never invoked. The call races a
// timer of the configured timeout; when the timer wins the call counts as a
// failure and the underlying work is abandoned, not cancelled. Callers that
// must stop expensive work early have to thread their own cancellation
// through fn.
func (b *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := b.admit(); err != nil {
		return nil, err
	}

	value, err := b.run(ctx, fn)
	if err != nil {
		b.onFailure()
		return nil, err
	}

	b.onSuccess()
	return value, nil
}

// IsAllowed reports whether a call would currently be admitted. It performs
// the same open-to-half-open time check as Execute, but touches no counters.
func (b *CircuitBreaker) IsAllowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == model.CircuitOpen {
		b.maybeHalfOpenLocked()
	}
	return b.state != model.CircuitOpen
}

// Stats returns an immutable snapshot of the breaker.
func (b *CircuitBreaker) Stats() model.CircuitStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return model.CircuitStats{
		Name:          b.cfg.Name,
		State:         b.state,
		FailureCount:  b.failureCount,
		SuccessCount:  b.successCount,
		TotalCalls:    b.totalCalls,
		TotalFailures: b.totalFailures,
		LastFailureAt: b.lastFailureAt,
		LastSuccessAt: b.lastSuccessAt,
		OpenedAt:      b.openedAt,
	}
}

// Reset forces the breaker closed with zeroed counters. Intended for
// operator intervention through the admin surface.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = model.CircuitClosed
	b.failureCount = 0
	b.successCount = 0
	b.openedAt = time.Time{}

	b.logger.Infow("circuit breaker reset", "name", b.cfg.Name)
}

// admit decides whether the call may proceed, handling the open-window
// expiry transition. Admitted calls count toward totalCalls.
func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == model.CircuitOpen {
		if !b.maybeHalfOpenLocked() {
			elapsed := b.now().Sub(b.openedAt)
			retryAfter := b.cfg.OpenDuration - elapsed
			if retryAfter < 0 {
				retryAfter = 0
			}
			return &CircuitOpenError{Name: b.cfg.Name, RetryAfter: retryAfter}
		}
	}

	b.totalCalls++
	return nil
}

// maybeHalfOpenLocked transitions open to half-open once the open window has
// fully elapsed. Returns true when the breaker is (now) half-open.
func (b *CircuitBreaker) maybeHalfOpenLocked() bool {
	if b.now().Sub(b.openedAt) < b.cfg.OpenDuration {
		return false
	}

	// Leaving open clears nothing else; successCount is already zero from
	// the transition that opened the breaker.
	b.state = model.CircuitHalfOpen
	b.logger.Infow("circuit breaker half-open, probing upstream", "name", b.cfg.Name)
	return true
}

// run races fn against the breaker timeout. The losing call keeps running in
// its abandoned goroutine; the buffered channel lets it finish and be
// collected.
func (b *CircuitBreaker) run(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	type callResult struct {
		value interface{}
		err   error
	}

	done := make(chan callResult, 1)
	go func() {
		value, err := fn(ctx)
		done <- callResult{value: value, err: err}
	}()

	timer := time.NewTimer(b.cfg.Timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return nil, &TimeoutError{Name: b.cfg.Name, Timeout: b.cfg.Timeout}
	}
}

func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSuccessAt = b.now()

	switch b.state {
	case model.CircuitHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.state = model.CircuitClosed
			b.failureCount = 0
			b.successCount = 0
			b.logger.Infow("circuit breaker closed after successful probes", "name", b.cfg.Name)
		}
	default:
		// A single success forgives all prior failures; there is no
		// sliding window.
		b.failureCount = 0
	}
}

func (b *CircuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.lastFailureAt = now
	b.totalFailures++

	switch b.state {
	case model.CircuitHalfOpen:
		// Any failure during probing trips the breaker again.
		b.state = model.CircuitOpen
		b.successCount = 0
		b.openedAt = now
		b.logger.Warnw("circuit breaker re-opened during probe", "name", b.cfg.Name)
	default:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = model.CircuitOpen
			b.openedAt = now
			b.logger.Warnw("circuit breaker opened",
				"name", b.cfg.Name,
				"failure_count", b.failureCount,
				"open_duration", b.cfg.OpenDuration)
		}
	}
}
