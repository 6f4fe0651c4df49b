// Package monitoring exposes Prometheus metrics for the dispatch pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchRequests counts dispatch outcomes per provider and capability.
	DispatchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modellane_dispatch_requests_total",
		Help: "Dispatch requests by provider, capability and outcome.",
	}, []string{"provider", "capability", "status"})

	// DispatchDuration observes end-to-end dispatch latency per capability.
	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modellane_dispatch_duration_seconds",
		Help:    "End-to-end dispatch latency.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"capability"})

	// DispatchRetries counts quality-driven retry passes.
	DispatchRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modellane_dispatch_retries_total",
		Help: "Retry passes triggered by quality evaluation.",
	}, []string{"capability"})

	// CircuitState reports each breaker's state: 0 closed, 1 half-open, 2 open.
	CircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modellane_circuit_state",
		Help: "Circuit breaker state (0=closed, 1=half_open, 2=open).",
	}, []string{"name"})

	// QuotaDailyRatio reports each provider's daily token usage ratio.
	QuotaDailyRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modellane_quota_daily_ratio",
		Help: "Daily token usage as a fraction of the provider's limit.",
	}, []string{"provider"})

	// QuotaMinuteRequestRatio reports the rolling-minute request ratio.
	QuotaMinuteRequestRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modellane_quota_minute_request_ratio",
		Help: "Requests this minute as a fraction of the provider's RPM limit.",
	}, []string{"provider"})

	// QuotaMinuteTokenRatio reports the rolling-minute token ratio.
	QuotaMinuteTokenRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modellane_quota_minute_token_ratio",
		Help: "Tokens this minute as a fraction of the provider's TPM limit.",
	}, []string{"provider"})
)

// CircuitStateValue maps a breaker state label to its gauge value.
func CircuitStateValue(state string) float64 {
	switch state {
	case "open":
		return 2
	case "half_open":
		return 1
	default:
		return 0
	}
}
