package model

import "time"

// CircuitState is the fault-detector state of one upstream.
type CircuitState string

const (
	// CircuitClosed means calls flow normally.
	CircuitClosed CircuitState = "closed"
	// CircuitOpen means calls fail fast until the open window elapses.
	CircuitOpen CircuitState = "open"
	// CircuitHalfOpen means a limited number of probe calls are allowed.
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig is the fixed configuration of one breaker instance.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenDuration     time.Duration
	Timeout          time.Duration
}

// CircuitStats is an immutable snapshot of a breaker's counters and state.
type CircuitStats struct {
	Name          string       `json:"name"`
	State         CircuitState `json:"state"`
	FailureCount  int          `json:"failure_count"`
	SuccessCount  int          `json:"success_count"`
	TotalCalls    int64        `json:"total_calls"`
	TotalFailures int64        `json:"total_failures"`
	LastFailureAt time.Time    `json:"last_failure_at"`
	LastSuccessAt time.Time    `json:"last_success_at"`
	OpenedAt      time.Time    `json:"opened_at"`
}
