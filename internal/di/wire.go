//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MacroPull/internal/domain/repository"
	internalrepo "MacroPull/internal/repository"
	"MacroPull/pkg/config"
	"MacroPull/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideAlertHub,

		// Repositories
		ProvideStatsStore,
		ProvideThresholdStore,
		wire.Bind(new(repository.ThresholdStore), new(*internalrepo.CacheThresholdStore)),
		ProvideForecastStore,
		ProvideSeriesStore,
		ProvideDataSource,
		ProvideArchive,

		// Alerting
		ProvideNotifiers,
		ProvideAlertPipeline,

		// Domain services
		ProvideDifferencingEngine,
		ProvideInverter,
		ProvideVolatilityModeler,

		// Use cases
		ProvideSeriesLoader,
		ProvideAnalysisUseCase,
		ProvideForecastUseCase,
		ProvideImpulseUseCase,
		ProvideVolatilityUseCase,
		ProvideAlertUseCase,
		ProvideScheduler,

		// HTTP
		ProvideFitLimiter,
		ProvideDashboardHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
