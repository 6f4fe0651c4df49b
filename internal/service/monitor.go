package service

import (
	"context"

	"ModelLane/internal/biz"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// MonitorService serves the operational read and intervention endpoints:
// breaker inspection and reset, quota summaries, provider enable toggles.
type MonitorService struct {
	registry     *biz.BreakerRegistry
	quota        *biz.QuotaTracker
	availability *biz.ProviderAvailability
	logger       *log.Helper
}

// NewMonitorService creates a new MonitorService instance.
func NewMonitorService(
	registry *biz.BreakerRegistry,
	quota *biz.QuotaTracker,
	availability *biz.ProviderAvailability,
	logger log.Logger,
) *MonitorService {
	return &MonitorService{
		registry:     registry,
		quota:        quota,
		availability: availability,
		logger:       log.NewHelper(logger),
	}
}

// CircuitsResponse is the body of GET /v1/circuits.
type CircuitsResponse struct {
	Circuits []model.CircuitStats `json:"circuits"`
}

// CircuitStats returns every breaker's snapshot.
func (s *MonitorService) CircuitStats(_ context.Context) *CircuitsResponse {
	return &CircuitsResponse{Circuits: s.registry.AllStats()}
}

// ResetCircuitsResponse is the body of POST /v1/circuits/reset.
type ResetCircuitsResponse struct {
	ResetCount int `json:"reset_count"`
}

// ResetCircuits forces every breaker closed.
func (s *MonitorService) ResetCircuits(_ context.Context) *ResetCircuitsResponse {
	count := s.registry.ResetAll()
	s.logger.Infow("operator reset all circuit breakers", "count", count)
	return &ResetCircuitsResponse{ResetCount: count}
}

// QuotaSummary returns the per-provider quota dashboard.
func (s *MonitorService) QuotaSummary(ctx context.Context) model.QuotaSummary {
	return s.quota.GetSummary(ctx)
}

// QuotaStatus returns one provider's quota position.
func (s *MonitorService) QuotaStatus(ctx context.Context, provider string) (model.QuotaStatus, error) {
	name := model.ProviderName(provider)
	if !model.IsKnownProvider(name) {
		return model.QuotaStatus{}, errors.New(404, "PROVIDER_NOT_FOUND", "unknown provider: "+provider)
	}
	return s.quota.GetStatus(ctx, name), nil
}

// SetEnabledRequest is the body of POST /v1/providers/{provider}/enabled.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetEnabledResponse echoes the applied override.
type SetEnabledResponse struct {
	Provider string `json:"provider"`
	Enabled  bool   `json:"enabled"`
}

// SetProviderEnabled applies a runtime enable/disable override.
func (s *MonitorService) SetProviderEnabled(_ context.Context, provider string, enabled bool) (*SetEnabledResponse, error) {
	name := model.ProviderName(provider)
	if !model.IsKnownProvider(name) {
		return nil, errors.New(404, "PROVIDER_NOT_FOUND", "unknown provider: "+provider)
	}

	s.availability.SetEnabled(name, enabled)
	return &SetEnabledResponse{Provider: provider, Enabled: enabled}, nil
}
