package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"tokenauth/internal/config"
	apperrors "tokenauth/internal/errors"
	"tokenauth/internal/infrastructure"
	"tokenauth/internal/license"
	customMiddleware "tokenauth/internal/middleware"
	"tokenauth/internal/tokenstore"
	handlers "tokenauth/internal/transport/http"
	"tokenauth/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Store         tokenstore.Store
	Service       *license.Service
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	closeLog func() error
}

// NewApplication loads configuration from the environment and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(context.Background(), cfg, os.Stdout)
}

// New wires every component from cfg. Console logs go to stdout.
func New(ctx context.Context, cfg *config.Config, stdout io.Writer) (*Application, error) {
	logger, closeLog, err := infrastructure.NewLogger(cfg.Logging, stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.InfoContext(ctx, "application starting",
		slog.String("version", contracts.Version),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("timezone", cfg.Store.Timezone))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		closeLog:      closeLog,
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = app.release(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(ctx); err != nil {
		_ = app.release(ctx)
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices opens the token store and builds the license service
func (a *Application) initializeServices(ctx context.Context) error {
	store, err := tokenstore.Open(ctx, a.Config.Store,
		tokenstore.WithLogger(a.Logger),
		tokenstore.WithMeter(a.OTelProviders.Meter),
	)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	a.Store = store

	service, err := license.NewService(store, license.Config{
		Location:            a.Config.Location(),
		DefaultValidityDays: a.Config.Store.DefaultValidityDays,
		Logger:              a.Logger,
		Meter:               a.OTelProviders.Meter,
		Tracer:              a.OTelProviders.Tracer,
	})
	if err != nil {
		return fmt.Errorf("failed to create license service: %w", err)
	}
	a.Service = service

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter(ctx context.Context) error {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger)

	// RequestID → RealIP → Logger → Recoverer → headers → CORS → rate limit → OTel → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(errorHandler.Recoverer)
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
		).Handler)
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

	// Set before any Route call so sub-routers inherit them
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	tokenHandler := handlers.NewTokenHandler(a.Service, errorHandler, a.Logger)
	healthHandler := handlers.NewHealthHandler(contracts.Version, nil)

	if !a.Config.AdminGateEnabled() {
		a.Logger.WarnContext(ctx, "admin key not configured, token management endpoints are open")
	}

	r.Post("/verify-token", tokenHandler.VerifyToken)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/verify", tokenHandler.Verify)
		r.Get("/status", tokenHandler.Status)
		r.Get("/health", healthHandler.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AdminKey(a.Config.Security.AdminKeyHash, a.Logger))

			r.Post("/register", tokenHandler.Register)
			r.Post("/extend", tokenHandler.Extend)
			r.Post("/delete", tokenHandler.Delete)
			r.Post("/reload", tokenHandler.Reload)
			r.Get("/tokens", tokenHandler.Tokens)
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run listens on the configured port and serves until ctx is done or the
// process receives SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		_ = a.release(ctx)
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "server listening",
			slog.String("address", ln.Addr().String()),
			slog.Bool("admin_gate", a.Config.AdminGateEnabled()))

		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop shuts the server down within the configured timeout and releases
// telemetry and log resources
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")

	if err := a.release(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// release flushes telemetry and closes the log file
func (a *Application) release(ctx context.Context) error {
	var errs []error
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown error: %w", err))
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, fmt.Errorf("log close error: %w", err))
		}
		a.closeLog = nil
	}
	return errors.Join(errs...)
}
