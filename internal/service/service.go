// Package service exposes the dispatch and operational HTTP surfaces.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewDispatchService,
	NewMonitorService,
)
