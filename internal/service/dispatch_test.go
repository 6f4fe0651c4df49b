package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"ModelLane/internal/biz"
	"ModelLane/internal/conf"
	"ModelLane/internal/model"
	"ModelLane/pkg/llm"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

type cannedClient struct {
	provider model.ProviderName
	text     string
}

func (c *cannedClient) Complete(context.Context, model.CompletionRequest) (*model.CompletionResult, error) {
	return &model.CompletionResult{Text: c.text, TotalTokens: 3, Provider: c.provider, ModelID: "m"}, nil
}

func newDispatchService(pc *conf.Providers, factories llm.Factories) *DispatchService {
	logger := log.NewStdLogger(os.Stdout)
	registry := biz.NewBreakerRegistry(&conf.Breaker{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenDuration:     durationpb.New(30 * time.Second),
		Timeout:          durationpb.New(5 * time.Second),
	}, logger)
	quota := biz.NewQuotaTracker(pc, nil, logger)
	availability := biz.NewProviderAvailability(pc, logger)
	selector := biz.NewProviderSelector(registry, availability, factories, pc, logger)
	dispatcher := biz.NewDispatcher(
		&conf.Dispatch{MaxRetries: 1, RetryBaseDelay: durationpb.New(time.Millisecond)},
		selector, quota, registry, biz.NewQualityEvaluator(), logger,
	)
	return NewDispatchService(dispatcher, logger)
}

func cannedFactories(text string) llm.Factories {
	factory := func(p model.ProviderName) llm.Factory {
		return func(context.Context, string) (llm.Client, error) {
			return &cannedClient{provider: p, text: text}, nil
		}
	}
	return llm.Factories{
		model.ProviderGemini:     factory(model.ProviderGemini),
		model.ProviderClaude:     factory(model.ProviderClaude),
		model.ProviderOpenRouter: factory(model.ProviderOpenRouter),
	}
}

func TestDispatchService_Success(t *testing.T) {
	svc := newDispatchService(serviceProviderConf(), cannedFactories(strings.Repeat("all healthy. ", 20)))

	res, err := svc.Dispatch(context.Background(), &DispatchHTTPRequest{
		Capability: "supervisor",
		Prompt:     "how is the web server?",
		Intent:     "monitoring",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProviderGemini, res.Provider)
	assert.False(t, res.Degraded)
}

func TestDispatchService_ValidatesInput(t *testing.T) {
	svc := newDispatchService(serviceProviderConf(), cannedFactories("ok"))

	_, err := svc.Dispatch(context.Background(), &DispatchHTTPRequest{Capability: "supervisor", Prompt: "   "})
	require.Error(t, err)
	assert.Equal(t, int32(400), kerrors.FromError(err).Code)

	_, err = svc.Dispatch(context.Background(), &DispatchHTTPRequest{Prompt: "hello"})
	require.Error(t, err)
	assert.Equal(t, int32(400), kerrors.FromError(err).Code)
}

func TestDispatchService_UnknownIntentFallsToCatchAll(t *testing.T) {
	// A short reply is acceptable for the catch-all bucket, so an unknown
	// intent must not trigger quality retries.
	svc := newDispatchService(serviceProviderConf(), cannedFactories("hey"))

	res, err := svc.Dispatch(context.Background(), &DispatchHTTPRequest{
		Capability: "supervisor",
		Prompt:     "hello there",
		Intent:     "chit-chat",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Degraded)
}

func TestDispatchService_ExhaustionIs503(t *testing.T) {
	pc := serviceProviderConf()
	pc.Gemini.ApiKey = ""
	pc.Claude.ApiKey = ""
	pc.Openrouter.ApiKey = ""
	svc := newDispatchService(pc, llm.Factories{})

	_, err := svc.Dispatch(context.Background(), &DispatchHTTPRequest{
		Capability: "supervisor",
		Prompt:     "anything wrong?",
		Intent:     "diagnostic",
	})
	require.Error(t, err)
	assert.Equal(t, int32(503), kerrors.FromError(err).Code)
}
