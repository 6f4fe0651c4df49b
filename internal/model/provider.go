// Package model contains domain models shared across layers.
package model

import "time"

// ProviderName identifies one upstream inference or search service.
type ProviderName string

const (
	// ProviderGemini is the Google Gemini model vendor.
	ProviderGemini ProviderName = "gemini"
	// ProviderClaude is the Anthropic Claude model vendor.
	ProviderClaude ProviderName = "claude"
	// ProviderOpenRouter is the OpenRouter aggregation model vendor.
	ProviderOpenRouter ProviderName = "openrouter"
	// ProviderTavily is the web-search vendor. It has a quota row but no
	// text-model factory.
	ProviderTavily ProviderName = "tavily"
)

// KnownProviders returns the closed provider set in stable order.
func KnownProviders() []ProviderName {
	return []ProviderName{ProviderGemini, ProviderClaude, ProviderOpenRouter, ProviderTavily}
}

// TextModelProviders returns the providers that can serve text completions.
func TextModelProviders() []ProviderName {
	return []ProviderName{ProviderGemini, ProviderClaude, ProviderOpenRouter}
}

// IsKnownProvider reports whether name belongs to the closed provider set.
func IsKnownProvider(name ProviderName) bool {
	for _, p := range KnownProviders() {
		if p == name {
			return true
		}
	}
	return false
}

// ProviderQuota is the static per-provider ceiling against which live usage
// is compared.
type ProviderQuota struct {
	DailyTokenLimit   int64 `json:"daily_token_limit"`
	RequestsPerMinute int32 `json:"requests_per_minute"`
	TokensPerMinute   int64 `json:"tokens_per_minute"`
}

// ProviderUsage is the mutable usage record for one (provider, day) pair.
// It is the unit persisted to the shared store.
type ProviderUsage struct {
	Provider        ProviderName `json:"provider"`
	DailyTokens     int64        `json:"daily_tokens"`
	MinuteRequests  int32        `json:"minute_requests"`
	MinuteTokens    int64        `json:"minute_tokens"`
	DateKey         string       `json:"date_key"` // YYYY-MM-DD
	LastUpdated     time.Time    `json:"last_updated"`
	LastMinuteReset time.Time    `json:"last_minute_reset"`
}

// UsageRate is one used/limit dimension of a quota status.
type UsageRate struct {
	Used  int64   `json:"used"`
	Limit int64   `json:"limit"`
	Ratio float64 `json:"ratio"`
}

// QuotaStatus is the derived, never-stored view of one provider's quota
// position.
type QuotaStatus struct {
	Provider                 ProviderName  `json:"provider"`
	Quota                    ProviderQuota `json:"quota"`
	DailyTokens              UsageRate     `json:"daily_tokens"`
	MinuteRequests           UsageRate     `json:"minute_requests"`
	MinuteTokens             UsageRate     `json:"minute_tokens"`
	ShouldPreemptiveFallback bool          `json:"should_preemptive_fallback"`
	// RecommendedWait is non-zero when a per-minute window is the binding
	// constraint; it is the time until that window resets.
	RecommendedWait time.Duration `json:"recommended_wait_ms"`
}

// QuotaSummary aggregates quota statuses for operational dashboards.
type QuotaSummary struct {
	Providers     []QuotaStatus `json:"providers"`
	HealthyCount  int           `json:"healthy_count"`
	WarningCount  int           `json:"warning_count"`
	CriticalCount int           `json:"critical_count"`
}

// ProviderSelection is the result of quota-driven provider selection.
type ProviderSelection struct {
	Provider ProviderName `json:"provider"`
	// IsPreemptiveFallback is set when the chosen provider is usable but
	// already past the soft usage threshold, so the caller can log a
	// proactive switch.
	IsPreemptiveFallback bool `json:"is_preemptive_fallback"`
}
