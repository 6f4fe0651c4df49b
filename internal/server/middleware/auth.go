package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// guardedPrefixes are the mutating operational paths that require the admin
// token. Read endpoints and the dispatch API stay open.
var guardedPrefixes = []string{
	"/v1/circuits/reset",
	"/v1/providers/",
}

// AdminGuard returns a middleware that requires a bearer token on mutating
// operational endpoints. An empty configured token disables the guard, which
// is the expected state in local development.
func AdminGuard(token string, logger log.Logger) middleware.Middleware {
	helper := log.NewHelper(logger)
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if token == "" {
				return handler(ctx, req)
			}

			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			ht, ok := tr.(http.Transporter)
			if !ok {
				return handler(ctx, req)
			}

			httpReq := ht.Request()
			if httpReq.Method != "POST" || !isGuardedPath(httpReq.URL.Path) {
				return handler(ctx, req)
			}

			presented := strings.TrimSpace(strings.TrimPrefix(httpReq.Header.Get("Authorization"), "Bearer"))
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				helper.Warnw("admin endpoint rejected",
					"path", httpReq.URL.Path,
					"has_token", presented != "")
				return nil, errors.New(401, "UNAUTHORIZED", "admin token required")
			}

			return handler(ctx, req)
		}
	}
}

func isGuardedPath(path string) bool {
	for _, prefix := range guardedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
