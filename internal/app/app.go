package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"lobstats/internal/config"
	apierrors "lobstats/internal/errors"
	"lobstats/internal/files"
	"lobstats/internal/infrastructure"
	"lobstats/internal/lobstats"
	customMiddleware "lobstats/internal/middleware"
	"lobstats/internal/services"
	handlers "lobstats/internal/transport/http"
	"lobstats/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Services      *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dataset *lobstats.DatasetCache
	Facade  *lobstats.Facade
	Cache   *lobstats.ResultCache
	Stats   *services.StatsService
	Health  *services.HealthService
}

// NewApplication wires every component from cfg. The dataset is not read
// until Start or the first query.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("config is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("build", contracts.GetFullVersionString()))

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the query path: dataset cache, facade, optional
// result cache and the services on top
func (a *Application) initializeServices() error {
	observer := services.NewMetricsObserver(a.Metrics)

	datasetPath, err := files.NewDiscovery("").ResolveDataset(a.Config.Dataset.FilePath)
	if err != nil {
		return fmt.Errorf("resolve dataset: %w", err)
	}
	if datasetPath != a.Config.Dataset.FilePath {
		a.Logger.Info("Resolved dataset directory",
			slog.String("directory", a.Config.Dataset.FilePath),
			slog.String("file", datasetPath))
	}

	source := lobstats.FileSource{
		Path:   datasetPath,
		Format: lobstats.Format(a.Config.Dataset.Format),
		Sheet:  a.Config.Dataset.Sheet,
	}
	dataset := lobstats.NewDatasetCache(source, a.Logger, lobstats.WithLoadObserver(observer))

	window := lobstats.Window{From: a.Config.Stats.YearFrom, To: a.Config.Stats.YearTo}
	if err := window.Validate(); err != nil {
		a.Logger.Warn("Configured year window is inverted; every query will fail",
			slog.Int("year_from", window.From),
			slog.Int("year_to", window.To))
	}
	facade := lobstats.NewFacade(dataset, window, a.Config.Stats.Metric)

	container := &ServiceContainer{
		Dataset: dataset,
		Facade:  facade,
	}

	statsCfg := services.StatsServiceConfig{
		Averages: facade,
		Dataset:  dataset,
		Window:   window,
		Metric:   a.Config.Stats.Metric,
		Tracer:   a.OTelProviders.Tracer,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	}

	if a.Config.Cache.Enabled {
		container.Cache = lobstats.NewResultCache(facade, lobstats.CacheOptions{
			TTL:             a.Config.Cache.TTL,
			MaxEntries:      a.Config.Cache.MaxEntries,
			CleanupInterval: a.Config.Cache.CleanupInterval,
			Observer:        observer,
		})
		statsCfg.Averages = container.Cache
		statsCfg.Cache = container.Cache
	}

	stats, err := services.NewStatsService(statsCfg)
	if err != nil {
		return err
	}
	container.Stats = stats
	container.Health = services.NewHealthService(contracts.Version, contracts.BuildTime, contracts.GitCommit, dataset, a.Logger)

	a.Services = container

	a.Logger.Info("Services initialized",
		slog.String("dataset", source.Path),
		slog.String("metric", a.Config.Stats.Metric),
		slog.Int("year_from", window.From),
		slog.Int("year_to", window.To),
		slog.Bool("cache_enabled", a.Config.Cache.Enabled))
	return nil
}

// setupRouter configures middleware and routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimit
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			a.ErrorHandler,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	gwpHandler := handlers.NewGWPHandler(a.Services.Stats, a.Logger, a.ErrorHandler)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler, customMiddleware.DefaultMaxBodySize)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger, a.ErrorHandler))
			r.Use(customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json"))
			r.Use(validation.ValidateRequest)
			r.Mount("/gwp", gwpHandler.Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start preloads the dataset when configured and starts serving. A failed
// preload is logged; the next query retries the load.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if a.Config.Dataset.Preload {
		a.preloadDataset(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Bool("ready", a.Services.Stats.Ready()))

	return nil
}

func (a *Application) preloadDataset(ctx context.Context) {
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()
	if err := a.Services.Stats.Preload(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "Dataset preload failed",
			slog.String("error", err.Error()),
			slog.String("action", "the next query will retry the load"))
		return
	}
	a.Logger.InfoContext(ctx, "Dataset preloaded",
		slog.Duration("duration", time.Since(start)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.Services.Cache != nil {
		a.Services.Cache.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(context.Background(), "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
