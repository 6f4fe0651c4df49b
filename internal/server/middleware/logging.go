// Package middleware provides HTTP middleware for request logging and the
// admin guard.
package middleware

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

// slowRequestThreshold marks requests worth a dedicated warning.
const slowRequestThreshold = 10 * time.Second

// Logging returns a middleware that logs method, path, status and duration
// for every request, tagged with a request ID taken from X-Request-ID or
// generated.
func Logging(logger log.Logger) middleware.Middleware {
	helper := log.NewHelper(logger)
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			started := time.Now()

			method, path, requestID := requestInfo(ctx)

			reply, err := handler(ctx, req)

			duration := time.Since(started)
			status := 200
			if err != nil {
				status = int(errors.FromError(err).Code)
			}

			helper.Infow("http request",
				"method", method,
				"path", path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"request_id", requestID,
			)

			if duration > slowRequestThreshold {
				helper.Warnw("slow request",
					"method", method,
					"path", path,
					"duration_ms", duration.Milliseconds(),
					"request_id", requestID,
				)
			}

			return reply, err
		}
	}
}

func requestInfo(ctx context.Context) (method, path, requestID string) {
	if tr, ok := transport.FromServerContext(ctx); ok {
		method = tr.Operation()
		path = tr.Operation()
		if ht, ok := tr.(http.Transporter); ok {
			httpReq := ht.Request()
			method = httpReq.Method
			path = httpReq.URL.Path
			requestID = httpReq.Header.Get("X-Request-ID")
		}
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return method, path, requestID
}
