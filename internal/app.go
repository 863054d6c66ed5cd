package internal

import (
	"context"
	"fmt"
	"listkeeper/internal/backup"
	"listkeeper/internal/backup/interfaces"
	"listkeeper/internal/controllers"
	"listkeeper/internal/events"
	"listkeeper/internal/providers"
	"listkeeper/internal/structures"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	WebServer  *http.Server
	conf       *structures.Config
	logger     providers.Logger
	scheduler  interfaces.SchedulerInterface
	bus        events.BusInterface
	journal    backup.JournalInterface
	compressor interfaces.CompressorInterface
}

func NewApp(
	healthController *controllers.HealthController,
	router providers.RouterProviderInterface,
	scheduler interfaces.SchedulerInterface,
	store backup.SnapshotStoreInterface,
	journal backup.JournalInterface,
	bus events.BusInterface,
	compressor interfaces.CompressorInterface,
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	if err := os.MkdirAll(conf.Backup.Dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create backup dir: %w", err)
	}
	if _, err := store.CleanupStale(); err != nil {
		logger.Errorf(providers.TypeApp, "Cleanup error: %s", err)
	}
	if err := journal.Restore(); err != nil {
		logger.Errorf(providers.TypeApp, "Journal restore error: %s", err)
	}
	if err := scheduler.Restore(); err != nil {
		logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:       conf,
		logger:     logger,
		scheduler:  scheduler,
		bus:        bus,
		journal:    journal,
		compressor: compressor,
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts everything down in order.
func (app *App) Run() error {
	serverErr := make(chan error, 1)
	go func() {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", app.conf.WebServer.Host, app.conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		app.Close()
		return fmt.Errorf("server error: %w", err)
	}

	// Live event streams never finish on their own; closing the bus ends them.
	app.bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.WebServer.Shutdown(ctx); err != nil {
		app.logger.Errorf(providers.TypeApp, "Server shutdown error: %s", err)
	}

	app.logger.Infof(providers.TypeApp, "gracefully stopped")
	app.Close()
	return nil
}

// Close pauses the scheduler without forgetting its persisted config, then flushes the journal.
func (app *App) Close() {
	app.scheduler.Shutdown()
	app.bus.Close()
	if err := app.journal.Persist(); err != nil {
		app.logger.Errorf(providers.TypeApp, "Error while persisting journal: %s", err)
	}
	app.compressor.Close()
	app.logger.Close()
}
