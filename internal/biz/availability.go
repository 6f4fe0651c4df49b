package biz

import (
	"sync"
	"time"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// availabilityTTL bounds how long a cached availability verdict is served
// before it is recomputed.
const availabilityTTL = 30 * time.Second

// ProviderAvailability answers "can this provider be called at all":
// credentials present, enabled in config, and not disabled at runtime by an
// operator. It says nothing about quota or breaker state.
type ProviderAvailability struct {
	providers *conf.Providers
	logger    *log.Helper

	cache *lru.LRU[string, bool]

	mu        sync.Mutex
	overrides map[model.ProviderName]bool
}

// NewProviderAvailability builds the availability checker from provider
// configuration.
func NewProviderAvailability(pc *conf.Providers, logger log.Logger) *ProviderAvailability {
	return &ProviderAvailability{
		providers: pc,
		logger:    log.NewHelper(logger),
		cache:     lru.NewLRU[string, bool](16, nil, availabilityTTL),
		overrides: make(map[model.ProviderName]bool),
	}
}

// IsAvailable reports whether the provider is configured, enabled and not
// overridden off. Verdicts are cached briefly; SetEnabled invalidates.
func (a *ProviderAvailability) IsAvailable(provider model.ProviderName) bool {
	key := string(provider)
	if v, ok := a.cache.Get(key); ok {
		return v
	}

	v := a.compute(provider)
	a.cache.Add(key, v)
	return v
}

// SetEnabled records a runtime enable/disable override for the provider and
// drops its cached verdict. The override survives until process restart and
// takes precedence over the config file's enabled flag.
func (a *ProviderAvailability) SetEnabled(provider model.ProviderName, enabled bool) {
	a.mu.Lock()
	a.overrides[provider] = enabled
	a.mu.Unlock()

	a.cache.Remove(string(provider))
	a.logger.Infow("provider availability override", "provider", provider, "enabled", enabled)
}

func (a *ProviderAvailability) compute(provider model.ProviderName) bool {
	p := a.providers.Get(string(provider))
	if p == nil || p.ApiKey == "" {
		return false
	}

	a.mu.Lock()
	override, hasOverride := a.overrides[provider]
	a.mu.Unlock()

	if hasOverride {
		return override
	}
	return p.Enabled
}
