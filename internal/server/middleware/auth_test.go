package middleware

import (
	"context"
	"os"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGuardedPath(t *testing.T) {
	assert.True(t, isGuardedPath("/v1/circuits/reset"))
	assert.True(t, isGuardedPath("/v1/providers/gemini/enabled"))
	assert.False(t, isGuardedPath("/v1/circuits"))
	assert.False(t, isGuardedPath("/v1/quota"))
	assert.False(t, isGuardedPath("/v1/dispatch"))
	assert.False(t, isGuardedPath("/healthz"))
}

func TestAdminGuard_EmptyTokenDisablesGuard(t *testing.T) {
	mw := AdminGuard("", log.NewStdLogger(os.Stdout))

	called := false
	handler := mw(func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return "ok", nil
	})

	out, err := handler(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", out)
}

func TestAdminGuard_NonHTTPContextPassesThrough(t *testing.T) {
	// Cron-style invocations without a transport in the context are not the
	// guard's concern.
	mw := AdminGuard("secret", log.NewStdLogger(os.Stdout))

	handler := mw(func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})

	out, err := handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
