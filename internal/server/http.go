// Package server wires the HTTP transport: route registration, middleware
// chain and the metrics handler.
package server

import (
	"context"
	nethttp "net/http"

	"ModelLane/internal/conf"
	"ModelLane/internal/server/middleware"
	"ModelLane/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	ac *conf.Admin,
	dispatchSvc *service.DispatchService,
	monitorSvc *service.MonitorService,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.AdminGuard(ac.Token, logger),
			middleware.Logging(logger),
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, dispatchSvc, monitorSvc)

	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return srv
}

// registerRoutes mounts the dispatch and operational endpoints. Routes go
// through ctx.Middleware so the server middleware chain applies.
func registerRoutes(srv *http.Server, dispatchSvc *service.DispatchService, monitorSvc *service.MonitorService) {
	r := srv.Route("/v1")

	r.POST("/dispatch", func(ctx http.Context) error {
		var req service.DispatchHTTPRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return dispatchSvc.Dispatch(c, &req)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/circuits", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return monitorSvc.CircuitStats(c), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/circuits/reset", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return monitorSvc.ResetCircuits(c), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/quota", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return monitorSvc.QuotaSummary(c), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/quota/{provider}", func(ctx http.Context) error {
		provider := ctx.Vars().Get("provider")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return monitorSvc.QuotaStatus(c, provider)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/providers/{provider}/enabled", func(ctx http.Context) error {
		provider := ctx.Vars().Get("provider")
		var req service.SetEnabledRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return monitorSvc.SetProviderEnabled(c, provider, req.Enabled)
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})
}
