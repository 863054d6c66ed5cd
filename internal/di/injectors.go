//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"listkeeper/internal"
	"listkeeper/internal/backup"
	"listkeeper/internal/catalog"
	"listkeeper/internal/controllers"
	"listkeeper/internal/events"
	"listkeeper/internal/providers"
	"listkeeper/internal/serializer"
	"listkeeper/internal/services"
	"listkeeper/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		events.NewBus,
		events.AsPublisher,
		backup.NewZstdCompressor,
		serializer.NewSerializer,
		backup.NewSnapshotStore,
		backup.NewJournal,
		backup.NewConfigStore,
		catalog.NewClient,
		services.NewBackupService,
		provideRunner,
		backup.NewScheduler,
		controllers.NewApiController,
		controllers.NewEventsController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
