package biz

import (
	"context"

	"ModelLane/internal/model"
)

// UsageRepo is the persistence boundary for quota usage records. The data
// layer implements it on Redis; the tracker treats it as best-effort and
// keeps serving from memory when it fails.
type UsageRepo interface {
	// GetUsage returns the stored record for (provider, dateKey), or
	// (nil, nil) when none exists.
	GetUsage(ctx context.Context, provider model.ProviderName, dateKey string) (*model.ProviderUsage, error)
	// SaveUsage writes the record, keyed by its provider and date key.
	SaveUsage(ctx context.Context, usage *model.ProviderUsage) error
}
