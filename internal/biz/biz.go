// Package biz contains business logic layer implementations.
// This layer holds the circuit breakers, quota tracking, provider selection
// and the dispatch retry loop.
package biz

import (
	"ModelLane/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewBreakerRegistry,
	NewQuotaTracker,
	NewProviderAvailability,
	NewProviderSelector,
	NewQualityEvaluator,
	NewDispatcher,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(UsageRepo), new(*data.UsageStore)),
)
