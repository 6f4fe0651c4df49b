package biz

import (
	"sort"
	"strings"
	"sync"
	"time"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// BreakerRegistry owns every circuit breaker instance in the process. It is
// constructed once at startup and passed by reference; breaker lifetime is
// the process lifetime (or a test-scoped reset).
type BreakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker

	failureThreshold int
	successThreshold int
	openDuration     time.Duration
	timeout          time.Duration

	logger log.Logger
}

// NewBreakerRegistry creates the process-wide breaker registry from the
// shared breaker configuration.
func NewBreakerRegistry(bc *conf.Breaker, logger log.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		breakers:         make(map[string]*CircuitBreaker),
		failureThreshold: bc.FailureThreshold,
		successThreshold: bc.SuccessThreshold,
		openDuration:     bc.OpenDuration.AsDuration(),
		timeout:          bc.Timeout.AsDuration(),
		logger:           logger,
	}
}

// Get returns the breaker for the given name, creating it on first use.
// Names are normalized so that every call site hitting the same upstream
// shares one fault detector: "stream-gemini" and "supervisor-gemini" both
// resolve to the canonical "gemini" breaker. Unrecognized names get their
// own independent breaker.
func (r *BreakerRegistry) Get(name string) *CircuitBreaker {
	key := NormalizeBreakerName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[key]; ok {
		return b
	}

	b := NewCircuitBreaker(model.CircuitBreakerConfig{
		Name:             key,
		FailureThreshold: r.failureThreshold,
		SuccessThreshold: r.successThreshold,
		OpenDuration:     r.openDuration,
		Timeout:          r.timeout,
	}, r.logger)
	r.breakers[key] = b
	return b
}

// AllStats returns a snapshot of every breaker, sorted by name.
func (r *BreakerRegistry) AllStats() []model.CircuitStats {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	stats := make([]model.CircuitStats, 0, len(breakers))
	for _, b := range breakers {
		stats = append(stats, b.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// ResetAll forces every breaker closed. Returns how many were reset.
func (r *BreakerRegistry) ResetAll() int {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	for _, b := range breakers {
		b.Reset()
	}
	return len(breakers)
}

// NormalizeBreakerName maps a call-site breaker key to its canonical form.
// A name ending in "-<provider>" for a known provider collapses to that
// provider so failures from different call sites accumulate into one
// detector; anything else passes through lowercased.
func NormalizeBreakerName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))

	if model.IsKnownProvider(model.ProviderName(key)) {
		return key
	}

	if idx := strings.LastIndex(key, "-"); idx >= 0 {
		suffix := key[idx+1:]
		if model.IsKnownProvider(model.ProviderName(suffix)) {
			return suffix
		}
	}

	return key
}
