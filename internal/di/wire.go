//go:build wireinject
// +build wireinject

package di

import (
	"github.com/javiersolana/crypto-swarm/pkg/config"
	"github.com/javiersolana/crypto-swarm/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideHTTPClient,

		// Repositories
		ProvideLedger,
		ProvideRegistry,
		ProvideAlertLog,
		ProvideEventArchive,
		ProvidePublisher,

		// Provider chain
		ProvideChainSet,

		// Use cases
		ProvideScheduler,
		ProvideScorer,
		ProvideSignalBuilder,
		ProvideCycle,
		ProvideMonitor,
		ProvideEvaluator,
		ProvideDiscoverer,

		// HTTP surface
		ProvideStatusHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
