package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	// usageKeyPrefix namespaces quota usage records in the shared store.
	// Key format: modellane:quota:{provider}:{dateKey}
	usageKeyPrefix = "modellane:quota:"

	// usageTTL keeps stale usage records around long enough for month-over-
	// month inspection before Redis expires them.
	usageTTL = 35 * 24 * time.Hour
)

// ErrStoreUnavailable is returned when no Redis client is configured.
var ErrStoreUnavailable = errors.New("usage store: redis client is nil")

// UsageStore persists per-provider daily usage records to Redis so that
// replicas share one advisory view of quota consumption. Every error it
// returns is absorbed by the quota tracker; the store is never on a request's
// critical path.
type UsageStore struct {
	rdb    *redis.Client
	logger *log.Helper
}

// NewUsageStore creates a new usage store.
func NewUsageStore(d *Data, logger log.Logger) *UsageStore {
	return &UsageStore{
		rdb:    d.GetRedisClient(),
		logger: log.NewHelper(logger),
	}
}

// GetUsage loads the usage record for a (provider, day) pair.
// Returns (nil, nil) when no record exists.
func (s *UsageStore) GetUsage(ctx context.Context, provider model.ProviderName, dateKey string) (*model.ProviderUsage, error) {
	if s.rdb == nil {
		return nil, ErrStoreUnavailable
	}

	val, err := s.rdb.Get(ctx, usageKey(provider, dateKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("usage store: failed to get %s/%s: %w", provider, dateKey, err)
	}

	var usage model.ProviderUsage
	if err := json.Unmarshal([]byte(val), &usage); err != nil {
		return nil, fmt.Errorf("usage store: failed to unmarshal %s/%s: %w", provider, dateKey, err)
	}

	return &usage, nil
}

// SaveUsage writes the usage record with the standard 35-day expiry.
func (s *UsageStore) SaveUsage(ctx context.Context, usage *model.ProviderUsage) error {
	if s.rdb == nil {
		return ErrStoreUnavailable
	}

	data, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("usage store: failed to marshal %s/%s: %w", usage.Provider, usage.DateKey, err)
	}

	key := usageKey(usage.Provider, usage.DateKey)
	if err := s.rdb.Set(ctx, key, data, usageTTL).Err(); err != nil {
		return fmt.Errorf("usage store: failed to set %s: %w", key, err)
	}

	s.logger.Debugw("usage record persisted",
		"provider", usage.Provider,
		"date_key", usage.DateKey,
		"daily_tokens", usage.DailyTokens)

	return nil
}

// usageKey builds the store key for a (provider, day) pair.
func usageKey(provider model.ProviderName, dateKey string) string {
	return usageKeyPrefix + string(provider) + ":" + dateKey
}
