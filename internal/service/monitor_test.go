package service

import (
	"context"
	"os"
	"testing"
	"time"

	"ModelLane/internal/biz"
	"ModelLane/internal/conf"
	"ModelLane/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func serviceProviderConf() *conf.Providers {
	return &conf.Providers{
		Gemini:     &conf.Provider{ApiKey: "k", Enabled: true, Model: "gemini-test", DailyTokenLimit: 1000, RequestsPerMinute: 10, TokensPerMinute: 5000},
		Claude:     &conf.Provider{ApiKey: "k", Enabled: true, Model: "claude-test", DailyTokenLimit: 1000, RequestsPerMinute: 10, TokensPerMinute: 5000},
		Openrouter: &conf.Provider{ApiKey: "k", Enabled: true, Model: "or-test", DailyTokenLimit: 1000, RequestsPerMinute: 10, TokensPerMinute: 5000},
		Tavily:     &conf.Provider{ApiKey: "k", Enabled: true, DailyTokenLimit: 100, RequestsPerMinute: 100, TokensPerMinute: 100},
		Orders: map[string][]string{
			"supervisor": {"gemini", "claude", "openrouter"},
		},
	}
}

func newMonitorFixture() (*MonitorService, *biz.BreakerRegistry, *biz.ProviderAvailability) {
	logger := log.NewStdLogger(os.Stdout)
	pc := serviceProviderConf()
	registry := biz.NewBreakerRegistry(&conf.Breaker{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenDuration:     durationpb.New(30 * time.Second),
		Timeout:          durationpb.New(5 * time.Second),
	}, logger)
	quota := biz.NewQuotaTracker(pc, nil, logger)
	availability := biz.NewProviderAvailability(pc, logger)
	return NewMonitorService(registry, quota, availability, logger), registry, availability
}

func tripBreaker(registry *biz.BreakerRegistry, name string) {
	_, _ = registry.Get(name).Execute(context.Background(), func(context.Context) (interface{}, error) {
		return nil, assert.AnError
	})
}

func TestMonitorService_CircuitStats(t *testing.T) {
	svc, registry, _ := newMonitorFixture()
	tripBreaker(registry, "stream-gemini")

	resp := svc.CircuitStats(context.Background())
	require.Len(t, resp.Circuits, 1)
	assert.Equal(t, "gemini", resp.Circuits[0].Name)
	assert.Equal(t, model.CircuitOpen, resp.Circuits[0].State)
}

func TestMonitorService_ResetCircuits(t *testing.T) {
	svc, registry, _ := newMonitorFixture()
	tripBreaker(registry, "gemini")
	tripBreaker(registry, "claude")

	resp := svc.ResetCircuits(context.Background())
	assert.Equal(t, 2, resp.ResetCount)
	for _, c := range svc.CircuitStats(context.Background()).Circuits {
		assert.Equal(t, model.CircuitClosed, c.State)
	}
}

func TestMonitorService_QuotaSummaryCoversAllProviders(t *testing.T) {
	svc, _, _ := newMonitorFixture()

	summary := svc.QuotaSummary(context.Background())
	assert.Len(t, summary.Providers, 4)
	assert.Equal(t, 4, summary.HealthyCount)
}

func TestMonitorService_QuotaStatusUnknownProviderIs404(t *testing.T) {
	svc, _, _ := newMonitorFixture()

	_, err := svc.QuotaStatus(context.Background(), "mystery")
	require.Error(t, err)
	assert.Equal(t, int32(404), kerrors.FromError(err).Code)
}

func TestMonitorService_SetProviderEnabled(t *testing.T) {
	svc, _, availability := newMonitorFixture()
	require.True(t, availability.IsAvailable(model.ProviderGemini))

	resp, err := svc.SetProviderEnabled(context.Background(), "gemini", false)
	require.NoError(t, err)
	assert.False(t, resp.Enabled)
	assert.False(t, availability.IsAvailable(model.ProviderGemini))

	_, err = svc.SetProviderEnabled(context.Background(), "mystery", true)
	require.Error(t, err)
	assert.Equal(t, int32(404), kerrors.FromError(err).Code)
}
