package service

import (
	"context"
	stderrors "errors"
	"strings"

	"ModelLane/internal/biz"
	"ModelLane/internal/model"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// DispatchService is the HTTP-facing wrapper around the dispatch loop.
type DispatchService struct {
	dispatcher *biz.Dispatcher
	logger     *log.Helper
}

// NewDispatchService creates a new DispatchService instance.
func NewDispatchService(dispatcher *biz.Dispatcher, logger log.Logger) *DispatchService {
	return &DispatchService{
		dispatcher: dispatcher,
		logger:     log.NewHelper(logger),
	}
}

// DispatchHTTPRequest is the body of POST /v1/dispatch.
type DispatchHTTPRequest struct {
	Capability string `json:"capability"`
	Prompt     string `json:"prompt"`
	Intent     string `json:"intent"`
	MaxTokens  int64  `json:"max_tokens"`
}

// Dispatch validates the request and runs it through the dispatch loop.
// Exhaustion surfaces as 503; a degraded response is still a 200 with the
// degraded flag set so callers can decide what to show.
func (s *DispatchService) Dispatch(ctx context.Context, req *DispatchHTTPRequest) (*model.DispatchResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New(400, "EMPTY_PROMPT", "prompt must not be empty")
	}
	if req.Capability == "" {
		return nil, errors.New(400, "MISSING_CAPABILITY", "capability must be set")
	}

	intent := model.IntentCategory(strings.ToLower(req.Intent))
	switch intent {
	case model.IntentMonitoring, model.IntentDiagnostic, model.IntentAdvisory:
	default:
		// Unknown intents fall into the catch-all bucket rather than erroring.
		intent = model.IntentGeneral
	}

	result, err := s.dispatcher.Dispatch(ctx, &model.DispatchRequest{
		Capability: req.Capability,
		Prompt:     req.Prompt,
		Intent:     intent,
		MaxTokens:  req.MaxTokens,
	})
	if err != nil {
		var exhausted *biz.ExhaustionError
		if stderrors.As(err, &exhausted) {
			return nil, errors.New(503, "PROVIDERS_EXHAUSTED", exhausted.Error())
		}
		s.logger.Errorw("dispatch failed", "capability", req.Capability, "error", err)
		return nil, err
	}

	return result, nil
}
