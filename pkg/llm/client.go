// Package llm wraps the upstream model vendors behind one completion
// interface so the dispatch layer can treat them interchangeably.
package llm

import (
	"context"
	"fmt"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is llm providers.
var ProviderSet = wire.NewSet(NewFactories)

// Client is one usable connection to a text-model vendor.
type Client interface {
	// Complete runs a single prompt-to-text completion.
	Complete(ctx context.Context, req model.CompletionRequest) (*model.CompletionResult, error)
}

// Factory constructs a Client for a specific model. Construction validates
// credentials and transport setup; it does not make a network call.
type Factory func(ctx context.Context, modelID string) (Client, error)

// Factories maps each text-model provider to its client factory.
type Factories map[model.ProviderName]Factory

// NewFactories wires one factory per configured text-model provider.
// Providers without an API key get no factory and are skipped by selection.
func NewFactories(pc *conf.Providers, logger log.Logger) Factories {
	helper := log.NewHelper(logger)
	factories := make(Factories)

	if p := pc.Get("gemini"); p != nil && p.ApiKey != "" {
		factories[model.ProviderGemini] = geminiFactory(p)
	}
	if p := pc.Get("claude"); p != nil && p.ApiKey != "" {
		factories[model.ProviderClaude] = claudeFactory(p)
	}
	if p := pc.Get("openrouter"); p != nil && p.ApiKey != "" {
		factories[model.ProviderOpenRouter] = openRouterFactory(p, helper)
	}

	for _, name := range model.TextModelProviders() {
		if _, ok := factories[name]; !ok {
			helper.Warnw("provider has no credentials, excluded from routing", "provider", name)
		}
	}

	return factories
}

// DefaultModel returns the configured default model for a provider.
func DefaultModel(pc *conf.Providers, provider model.ProviderName) (string, error) {
	p := pc.Get(string(provider))
	if p == nil || p.Model == "" {
		return "", fmt.Errorf("no model configured for provider %s", provider)
	}
	return p.Model, nil
}
