package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"flowpulse/internal/config"
	apierrors "flowpulse/internal/errors"
	"flowpulse/internal/exporter"
	"flowpulse/internal/infrastructure"
	customMiddleware "flowpulse/internal/middleware"
	"flowpulse/internal/retention"
	"flowpulse/internal/services"
	handlers "flowpulse/internal/transport/http"
	"flowpulse/internal/validation"
	ws "flowpulse/internal/websocket"
)

// BuildTime is set at link time with -ldflags "-X flowpulse/internal/app.BuildTime=..."
var BuildTime string

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.PipelineMetrics
	Store            *retention.Store
	WebSocketHub     *ws.Hub
	EquipmentService *services.EquipmentService
	HealthService    *services.HealthService
	ErrorHandler     *apierrors.ErrorHandler
}

// NewApplication wires every component from configuration
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("storage_backend", cfg.Storage.Backend))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices builds storage, push and the service layer
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.NewPipelineMetrics(a.OTelProviders.Meter, a.OTelProviders.Tracer)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	a.Metrics = metrics

	backend, err := retention.OpenBackend(a.Config.Storage, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", a.Config.Storage.Backend, err)
	}
	a.Store = retention.NewStore(backend, retention.Options{
		Capacity: a.Config.Storage.Capacity,
		Logger:   a.Logger,
	})

	a.WebSocketHub = ws.NewHub(metrics, a.Logger)

	renderers := exporter.NewRegistry(a.Logger)
	if err := renderers.SetDefault(a.Config.Report.DefaultFormat); err != nil {
		a.Store.Close()
		return fmt.Errorf("invalid default report format: %w", err)
	}

	a.EquipmentService, err = services.NewEquipmentService(services.EquipmentServiceDeps{
		Validator: validation.NewCSVValidator(a.Logger, a.Config.Upload.MaxBytes),
		Store:     a.Store,
		Renderers: renderers,
		Metrics:   metrics,
		Notifier:  a.WebSocketHub,
		Logger:    a.Logger,
	})
	if err != nil {
		a.Store.Close()
		return err
	}

	a.HealthService = services.NewHealthService(services.HealthServiceDeps{
		Version:   config.AppVersion,
		BuildTime: BuildTime,
		Storage:   a.Store,
		Backend:   a.Config.Storage.Backend,
		Hub:       a.WebSocketHub,
		Logger:    a.Logger,
	})
	return nil
}

// setupRouter assembles middleware and routes.
// The websocket route sits outside the group so no timeout applies to it.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	eh := a.ErrorHandler

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(apierrors.RecoveryMiddleware(eh))
	r.NotFound(eh.NotFound)
	r.MethodNotAllowed(eh.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
	}

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.OwnerID(config.OwnerHeader, eh)).Handle(config.WebSocketEndpoint, wsHandler)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
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
				eh,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, eh))

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	datasets := handlers.NewDatasetHandler(a.EquipmentService, a.Logger, a.ErrorHandler)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Mount("/health", health.Routes())
		r.Get("/version", health.Version)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.OwnerID(config.OwnerHeader, a.ErrorHandler))
			r.Mount("/datasets", datasets.Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the hub and the HTTP server; a server failure cancels ctx via cancel
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", a.Server.Addr),
		slog.String("storage_backend", a.Config.Storage.Backend),
		slog.Int("retention_capacity", a.Store.Capacity()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")
	return a.Stop(context.Background())
}
