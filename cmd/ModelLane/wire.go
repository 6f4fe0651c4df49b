//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"ModelLane/internal/biz"
	"ModelLane/internal/conf"
	"ModelLane/internal/data"
	"ModelLane/internal/server"
	"ModelLane/internal/service"
	"ModelLane/pkg/llm"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Providers, *conf.Breaker, *conf.Dispatch, *conf.Admin, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		llm.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newMonitorCron,
		newApp,
	))
}
