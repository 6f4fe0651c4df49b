package biz

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"ModelLane/internal/conf"
	"ModelLane/internal/model"
	"ModelLane/internal/monitoring"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Dispatcher runs the full request lifecycle: quota-aware provider choice,
// breaker-wrapped completion, quality evaluation and the bounded retry loop.
type Dispatcher struct {
	selector  *ProviderSelector
	quota     *QuotaTracker
	registry  *BreakerRegistry
	evaluator QualityEvaluator
	logger    *log.Helper

	maxRetries int
	baseDelay  time.Duration

	sleep func(context.Context, time.Duration)
}

// NewDispatcher builds the dispatcher from the retry-loop configuration.
func NewDispatcher(
	dc *conf.Dispatch,
	selector *ProviderSelector,
	quota *QuotaTracker,
	registry *BreakerRegistry,
	evaluator QualityEvaluator,
	logger log.Logger,
) *Dispatcher {
	return &Dispatcher{
		selector:   selector,
		quota:      quota,
		registry:   registry,
		evaluator:  evaluator,
		logger:     log.NewHelper(logger),
		maxRetries: dc.MaxRetries,
		baseDelay:  dc.RetryBaseDelay.AsDuration(),
		sleep:      sleepCtx,
	}
}

// Dispatch routes one request through the fallback chain until a response
// passes quality evaluation or the loop runs out of attempts or providers.
// Exhaustion with a flagged-but-present response returns it marked Degraded;
// exhaustion with nothing at all returns *ExhaustionError.
func (d *Dispatcher) Dispatch(ctx context.Context, req *model.DispatchRequest) (*model.DispatchResult, error) {
	requestID := uuid.NewString()
	capability := strings.ToLower(req.Capability)
	order := d.orderForRequest(ctx, capability)

	started := time.Now()
	defer func() {
		monitoring.DispatchDuration.WithLabelValues(capability).Observe(time.Since(started).Seconds())
	}()

	var (
		tried []model.ProviderName
		best  *model.CompletionResult
	)

	maxAttempts := d.maxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			d.sleep(ctx, d.retryDelay(attempt))
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		selection, err := d.selector.SelectTextModel(ctx, capability, order, SelectorOptions{Exclude: tried})
		if err != nil {
			return nil, err
		}
		if selection == nil {
			break
		}
		tried = append(tried, selection.Provider)

		result, err := d.attempt(ctx, capability, selection, req)
		if err != nil {
			monitoring.DispatchRequests.WithLabelValues(string(selection.Provider), capability, "error").Inc()
			d.logger.Warnw("dispatch attempt failed",
				"request_id", requestID,
				"provider", selection.Provider,
				"attempt", attempt,
				"error", err)
			continue
		}

		d.quota.RecordUsage(ctx, selection.Provider, result.TotalTokens)

		flags := d.evaluator.Evaluate(result)
		attemptMeta := model.AttemptResult{
			Provider:      selection.Provider,
			ModelID:       selection.ModelID,
			Flags:         flags,
			ResponseChars: len(strings.TrimSpace(result.Text)),
			ToolCalls:     result.ToolCalls,
		}

		if len(flags) == 0 || !ShouldRetry(attemptMeta, req.Intent) {
			monitoring.DispatchRequests.WithLabelValues(string(selection.Provider), capability, "ok").Inc()
			return &model.DispatchResult{
				RequestID:   requestID,
				Provider:    result.Provider,
				ModelID:     result.ModelID,
				Text:        result.Text,
				TotalTokens: result.TotalTokens,
				Attempts:    attempt,
				Degraded:    false,
			}, nil
		}

		monitoring.DispatchRetries.WithLabelValues(capability).Inc()
		d.logger.Infow("response flagged, retrying",
			"request_id", requestID,
			"provider", selection.Provider,
			"flags", flags,
			"attempt", attempt)

		// Keep the most recent flagged response as the degraded fallback.
		best = result
	}

	if best != nil {
		monitoring.DispatchRequests.WithLabelValues(string(best.Provider), capability, "degraded").Inc()
		d.logger.Warnw("dispatch exhausted retries, returning degraded response",
			"request_id", requestID, "attempts", len(tried))
		return &model.DispatchResult{
			RequestID:   requestID,
			Provider:    best.Provider,
			ModelID:     best.ModelID,
			Text:        best.Text,
			TotalTokens: best.TotalTokens,
			Attempts:    len(tried),
			Degraded:    true,
		}, nil
	}

	monitoring.DispatchRequests.WithLabelValues("none", capability, "exhausted").Inc()
	return nil, &ExhaustionError{Capability: capability}
}

// orderForRequest resolves the capability's fallback chain and lets quota
// selection promote a cleaner provider to the front. The rest of the chain
// keeps its configured order for fallback.
func (d *Dispatcher) orderForRequest(ctx context.Context, capability string) []model.ProviderName {
	order := d.selector.OrderFor(capability)
	if len(order) == 0 {
		return order
	}

	pick := d.quota.SelectAvailableProvider(ctx, order)
	if pick == nil || pick.Provider == order[0] {
		return order
	}

	if pick.IsPreemptiveFallback {
		d.logger.Infow("preemptive provider switch on quota pressure",
			"capability", capability, "provider", pick.Provider)
	}

	reordered := make([]model.ProviderName, 0, len(order))
	reordered = append(reordered, pick.Provider)
	for _, p := range order {
		if p != pick.Provider {
			reordered = append(reordered, p)
		}
	}
	return reordered
}

// attempt runs one completion through the provider's breaker.
func (d *Dispatcher) attempt(ctx context.Context, capability string, selection *Selection, req *model.DispatchRequest) (*model.CompletionResult, error) {
	breaker := d.registry.Get(capability + "-" + string(selection.Provider))

	value, err := breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return selection.Client.Complete(ctx, model.CompletionRequest{
			Prompt:    req.Prompt,
			MaxTokens: req.MaxTokens,
		})
	})
	if err != nil {
		return nil, err
	}
	return value.(*model.CompletionResult), nil
}

// retryDelay scales the base delay linearly with the attempt number and adds
// up to 50ms of jitter to keep concurrent retries from aligning.
func (d *Dispatcher) retryDelay(attempt int) time.Duration {
	delay := d.baseDelay * time.Duration(attempt-1)
	jitter := time.Duration(rand.Int63n(int64(50 * time.Millisecond))) // #nosec G404 -- jitter, not security
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
