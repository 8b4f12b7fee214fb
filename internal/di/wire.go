//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Shillmaster/JJcbjee/pkg/config"
	"github.com/Shillmaster/JJcbjee/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRenderCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSignalJournal,
		ProvideSignalPublisher,

		// Use cases and transport
		ProvideHub,
		ProvideForecastService,
		ProvideSignalPipeline,
		ProvideFocusHandler,
		ProvideLimiter,
		ProvideAPIHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
