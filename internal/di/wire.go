//go:build wireinject
// +build wireinject

package di

import (
	"CryptoCompass/pkg/config"
	"CryptoCompass/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCatalog,

		// Infrastructure clients
		ProvideMarketData,
		ProvideCache,
		ProvideKafkaProducer,

		// Fan-out
		ProvideHub,
		ProvideSnapshotPipeline,

		// Use cases
		ProvideRefreshers,
		ProvideMarketService,
		ProvideAllocationService,
		ProvideSimulationService,

		// HTTP and scheduling
		ProvideLimiter,
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideScheduler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
