package biz

import (
	"context"
	"strings"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"
	"ModelLane/pkg/llm"

	"github.com/go-kratos/kratos/v2/log"
)

// ProviderSelector walks a capability's fallback chain and returns the first
// provider that is available, breaker-admitted and constructible. It holds
// no state of its own; ordering comes from configuration and health comes
// from the registry and availability checker.
type ProviderSelector struct {
	registry     *BreakerRegistry
	availability *ProviderAvailability
	factories    llm.Factories
	providers    *conf.Providers
	logger       *log.Helper
}

// NewProviderSelector builds the selector.
func NewProviderSelector(
	registry *BreakerRegistry,
	availability *ProviderAvailability,
	factories llm.Factories,
	pc *conf.Providers,
	logger log.Logger,
) *ProviderSelector {
	return &ProviderSelector{
		registry:     registry,
		availability: availability,
		factories:    factories,
		providers:    pc,
		logger:       log.NewHelper(logger),
	}
}

// SelectorOptions tune one selection pass.
type SelectorOptions struct {
	// Exclude removes already-tried providers from consideration.
	Exclude []model.ProviderName
	// BreakerPrefix overrides the capability label in breaker keys.
	BreakerPrefix string
	// ErrOnEmpty makes an empty result an *ExhaustionError instead of nil.
	ErrOnEmpty bool
}

// Selection is one usable provider picked from a fallback chain.
type Selection struct {
	Client   llm.Client
	Provider model.ProviderName
	ModelID  string
}

// SelectTextModel returns the first usable provider from order. Skips are
// silent for unavailability and open breakers; a factory that fails to
// construct is logged and skipped so a misconfigured vendor cannot stall the
// chain. Returns (nil, nil) when the chain is exhausted, unless
// opts.ErrOnEmpty asks for an error.
func (s *ProviderSelector) SelectTextModel(ctx context.Context, capability string, order []model.ProviderName, opts SelectorOptions) (*Selection, error) {
	prefix := opts.BreakerPrefix
	if prefix == "" {
		prefix = strings.ToLower(capability)
	}

	excluded := make(map[model.ProviderName]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		excluded[p] = true
	}

	for _, provider := range order {
		if excluded[provider] {
			continue
		}
		if !s.availability.IsAvailable(provider) {
			continue
		}
		if !s.registry.Get(prefix + "-" + string(provider)).IsAllowed() {
			s.logger.Debugw("provider skipped, circuit open", "provider", provider, "capability", capability)
			continue
		}

		factory, ok := s.factories[provider]
		if !ok {
			continue
		}

		modelID, err := llm.DefaultModel(s.providers, provider)
		if err != nil {
			s.logger.Warnw("provider skipped, no model configured", "provider", provider, "error", err)
			continue
		}

		client, err := factory(ctx, modelID)
		if err != nil {
			s.logger.Warnw("provider client construction failed, trying next",
				"provider", provider, "capability", capability, "error", err)
			continue
		}

		return &Selection{Client: client, Provider: provider, ModelID: modelID}, nil
	}

	if opts.ErrOnEmpty {
		return nil, &ExhaustionError{Capability: capability}
	}
	return nil, nil
}

// OrderFor resolves the configured fallback chain for a capability,
// filtering out names that are not known text-model providers.
func (s *ProviderSelector) OrderFor(capability string) []model.ProviderName {
	names := s.providers.Orders[strings.ToLower(capability)]
	order := make([]model.ProviderName, 0, len(names))
	for _, n := range names {
		p := model.ProviderName(strings.ToLower(n))
		if model.IsKnownProvider(p) && p != model.ProviderTavily {
			order = append(order, p)
		}
	}
	return order
}
