package biz

import (
	"fmt"
	"time"
)

// CircuitOpenError is the expected fast-fail returned while a breaker is
// open. It is never retried against the same upstream; callers either wait
// RetryAfter or move on to a different provider.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker %s is open: retry after %dms", e.Name, e.RetryAfter.Milliseconds())
}

// TimeoutError is returned when a wrapped call does not settle within the
// breaker's timeout. It counts as a breaker failure like any other.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("call through circuit breaker %s timed out after %s", e.Name, e.Timeout)
}

// ExhaustionError is raised by the provider selector when no candidate could
// be served and the caller asked for an error instead of a nil result.
type ExhaustionError struct {
	Capability string
}

// Error implements the error interface.
func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("no provider available for capability %q", e.Capability)
}
