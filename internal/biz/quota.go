package biz

import (
	"context"
	"sync"
	"time"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// Usage thresholds. Any dimension past its soft threshold marks a provider
// for preemptive fallback; daily usage at or past the hard cutoff removes it
// from quota-driven selection until the day rolls over.
const (
	softDailyThreshold     = 0.80
	minuteRequestThreshold = 0.85
	minuteTokenThreshold   = 0.85
	hardDailyCutoff        = 0.95

	minuteWindow = 60 * time.Second
)

// QuotaTracker maintains live usage counters per provider and derives quota
// positions from them. Counters live in process memory and are mirrored to
// the usage repo on a best-effort basis; a dead store degrades accuracy, not
// availability.
type QuotaTracker struct {
	mu     sync.Mutex
	usage  map[model.ProviderName]*model.ProviderUsage
	quotas map[model.ProviderName]model.ProviderQuota
	loaded map[model.ProviderName]bool

	repo   UsageRepo
	logger *log.Helper
	now    func() time.Time

	// persistWG lets tests wait for fire-and-forget writes.
	persistWG sync.WaitGroup
}

// NewQuotaTracker builds a tracker with one counter row per known provider,
// using the configured per-provider ceilings.
func NewQuotaTracker(pc *conf.Providers, repo UsageRepo, logger log.Logger) *QuotaTracker {
	quotas := make(map[model.ProviderName]model.ProviderQuota)
	for _, name := range model.KnownProviders() {
		p := pc.Get(string(name))
		if p == nil {
			continue
		}
		quotas[name] = model.ProviderQuota{
			DailyTokenLimit:   p.DailyTokenLimit,
			RequestsPerMinute: p.RequestsPerMinute,
			TokensPerMinute:   p.TokensPerMinute,
		}
	}

	return &QuotaTracker{
		usage:  make(map[model.ProviderName]*model.ProviderUsage),
		quotas: quotas,
		loaded: make(map[model.ProviderName]bool),
		repo:   repo,
		logger: log.NewHelper(logger),
		now:    time.Now,
	}
}

// RecordUsage adds one request and the given token count to the provider's
// counters. The in-memory update is synchronous; persistence happens in the
// background and its failure is only logged.
func (t *QuotaTracker) RecordUsage(ctx context.Context, provider model.ProviderName, tokens int64) {
	t.mu.Lock()
	u := t.usageLocked(ctx, provider)
	u.DailyTokens += tokens
	u.MinuteRequests++
	u.MinuteTokens += tokens
	u.LastUpdated = t.now()
	snapshot := *u
	t.mu.Unlock()

	t.persistAsync(&snapshot)
}

// GetStatus derives the provider's current quota position.
func (t *QuotaTracker) GetStatus(ctx context.Context, provider model.ProviderName) model.QuotaStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked(ctx, provider)
}

// GetSummary derives statuses for every known provider and tallies them into
// healthy, warning (past soft threshold) and critical (unusable) buckets.
func (t *QuotaTracker) GetSummary(ctx context.Context) model.QuotaSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := model.QuotaSummary{}
	for _, provider := range model.KnownProviders() {
		status := t.statusLocked(ctx, provider)
		summary.Providers = append(summary.Providers, status)

		switch {
		case status.DailyTokens.Ratio >= hardDailyCutoff:
			summary.CriticalCount++
		case status.ShouldPreemptiveFallback:
			summary.WarningCount++
		default:
			summary.HealthyCount++
		}
	}
	return summary
}

// SelectAvailableProvider walks order and returns the first provider whose
// daily usage is under the hard cutoff. A provider past the soft threshold
// is still chosen but flagged so the caller can log a proactive switch.
// Returns nil when every provider in order is at or past the cutoff; the
// caller then falls back to availability-and-breaker-only selection.
func (t *QuotaTracker) SelectAvailableProvider(ctx context.Context, order []model.ProviderName) *model.ProviderSelection {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, provider := range order {
		status := t.statusLocked(ctx, provider)
		if status.DailyTokens.Ratio >= hardDailyCutoff {
			continue
		}
		return &model.ProviderSelection{
			Provider:             provider,
			IsPreemptiveFallback: status.ShouldPreemptiveFallback,
		}
	}
	return nil
}

// WaitForPersistence blocks until in-flight background writes settle. Test
// helper only.
func (t *QuotaTracker) WaitForPersistence() {
	t.persistWG.Wait()
}

// statusLocked computes the derived quota view. Caller holds t.mu.
func (t *QuotaTracker) statusLocked(ctx context.Context, provider model.ProviderName) model.QuotaStatus {
	u := t.usageLocked(ctx, provider)
	quota := t.quotas[provider]

	status := model.QuotaStatus{
		Provider:       provider,
		Quota:          quota,
		DailyTokens:    rate(u.DailyTokens, quota.DailyTokenLimit),
		MinuteRequests: rate(int64(u.MinuteRequests), int64(quota.RequestsPerMinute)),
		MinuteTokens:   rate(u.MinuteTokens, quota.TokensPerMinute),
	}
	// Any of the three dimensions crossing its threshold marks the provider
	// for preemptive fallback.
	status.ShouldPreemptiveFallback = status.DailyTokens.Ratio >= softDailyThreshold ||
		status.MinuteRequests.Ratio >= minuteRequestThreshold ||
		status.MinuteTokens.Ratio >= minuteTokenThreshold

	// When a minute window is the binding constraint, report how long until
	// it rolls over.
	if status.MinuteRequests.Ratio >= minuteRequestThreshold || status.MinuteTokens.Ratio >= minuteTokenThreshold {
		elapsed := t.now().Sub(u.LastMinuteReset)
		if wait := minuteWindow - elapsed; wait > 0 {
			status.RecommendedWait = wait
		}
	}

	return status
}

// usageLocked returns the provider's live counter row, lazily loading it
// from the repo on first touch and applying day and minute rollovers.
// Caller holds t.mu.
func (t *QuotaTracker) usageLocked(ctx context.Context, provider model.ProviderName) *model.ProviderUsage {
	now := t.now()
	dateKey := now.Format("2006-01-02")

	u, ok := t.usage[provider]
	if !ok {
		u = t.loadLocked(ctx, provider, dateKey, now)
		t.usage[provider] = u
	}

	t.applyResetsLocked(u, dateKey, now)
	return u
}

// loadLocked reads today's record from the repo, falling back to a fresh row
// when the store is unavailable or has nothing. One read attempt per
// provider per process; a miss is not retried.
func (t *QuotaTracker) loadLocked(ctx context.Context, provider model.ProviderName, dateKey string, now time.Time) *model.ProviderUsage {
	if !t.loaded[provider] && t.repo != nil {
		t.loaded[provider] = true
		stored, err := t.repo.GetUsage(ctx, provider, dateKey)
		if err != nil {
			t.logger.Warnw("quota store read failed, starting from zero",
				"provider", provider, "error", err)
		} else if stored != nil {
			return stored
		}
	}

	return &model.ProviderUsage{
		Provider:        provider,
		DateKey:         dateKey,
		LastUpdated:     now,
		LastMinuteReset: now,
	}
}

// applyResetsLocked rolls the daily counters when the date key has changed
// and, independently, the minute counters once the window has elapsed.
func (t *QuotaTracker) applyResetsLocked(u *model.ProviderUsage, dateKey string, now time.Time) {
	if u.DateKey != dateKey {
		t.logger.Infow("daily quota rollover",
			"provider", u.Provider, "from", u.DateKey, "to", dateKey)
		u.DailyTokens = 0
		u.MinuteRequests = 0
		u.MinuteTokens = 0
		u.DateKey = dateKey
		u.LastMinuteReset = now
		return
	}

	if now.Sub(u.LastMinuteReset) >= minuteWindow {
		u.MinuteRequests = 0
		u.MinuteTokens = 0
		u.LastMinuteReset = now
	}
}

// persistAsync mirrors the counter snapshot to the repo without blocking the
// caller. Failures are logged and otherwise ignored.
func (t *QuotaTracker) persistAsync(usage *model.ProviderUsage) {
	if t.repo == nil {
		return
	}

	t.persistWG.Add(1)
	go func() {
		defer t.persistWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := t.repo.SaveUsage(ctx, usage); err != nil {
			t.logger.Warnw("quota store write failed",
				"provider", usage.Provider, "error", err)
		}
	}()
}

// rate builds one used/limit dimension. A non-positive limit means
// unlimited and always reads as ratio zero.
func rate(used, limit int64) model.UsageRate {
	r := model.UsageRate{Used: used, Limit: limit}
	if limit > 0 {
		r.Ratio = float64(used) / float64(limit)
	}
	return r
}
