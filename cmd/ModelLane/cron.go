package main

import (
	"context"

	"ModelLane/internal/biz"
	"ModelLane/internal/monitoring"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// newMonitorCron starts the background observability jobs: a per-minute
// refresh of the breaker and quota gauges, and an hourly quota summary in
// the logs.
func newMonitorCron(quota *biz.QuotaTracker, registry *biz.BreakerRegistry, logger log.Logger) (*cron.Cron, func(), error) {
	helper := log.NewHelper(logger)

	c := cron.New()

	refresh := func() {
		ctx := context.Background()

		for _, stats := range registry.AllStats() {
			monitoring.CircuitState.WithLabelValues(stats.Name).
				Set(monitoring.CircuitStateValue(string(stats.State)))
		}

		for _, status := range quota.GetSummary(ctx).Providers {
			provider := string(status.Provider)
			monitoring.QuotaDailyRatio.WithLabelValues(provider).Set(status.DailyTokens.Ratio)
			monitoring.QuotaMinuteRequestRatio.WithLabelValues(provider).Set(status.MinuteRequests.Ratio)
			monitoring.QuotaMinuteTokenRatio.WithLabelValues(provider).Set(status.MinuteTokens.Ratio)
		}
	}

	if _, err := c.AddFunc("* * * * *", refresh); err != nil {
		return nil, nil, err
	}

	if _, err := c.AddFunc("0 * * * *", func() {
		summary := quota.GetSummary(context.Background())
		helper.Infow("hourly quota summary",
			"healthy", summary.HealthyCount,
			"warning", summary.WarningCount,
			"critical", summary.CriticalCount)
	}); err != nil {
		return nil, nil, err
	}

	c.Start()
	refresh()
	helper.Info("monitoring cron jobs started")

	cleanup := func() {
		ctx := c.Stop()
		<-ctx.Done()
		helper.Info("monitoring cron jobs stopped")
	}
	return c, cleanup, nil
}
