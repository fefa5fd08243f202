// Package main is the entrypoint for the mock API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mockapi/mockapi/internal/config"
	"github.com/mockapi/mockapi/internal/handler"
	"github.com/mockapi/mockapi/internal/metrics"
	"github.com/mockapi/mockapi/internal/middleware"
	"github.com/mockapi/mockapi/internal/repository"
	"github.com/mockapi/mockapi/internal/seed"
	"github.com/mockapi/mockapi/internal/server"
	"github.com/mockapi/mockapi/internal/service"
	"github.com/mockapi/mockapi/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	// Create and run server
	srv := server.New(a.router, server.Options{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("record store", func(ctx context.Context) error {
		logger.Info("discarding records", "count", a.repo.Count())
		a.repo.Reset()
		return nil
	})
	if a.webhooks != nil {
		a.webhooks.Start()
		srv.OnShutdown("webhook worker", a.webhooks.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"metrics", cfg.MetricsEnabled,
		"webhooks", cfg.WebhooksEnabled(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// app holds the wired components behind the router.
type app struct {
	router   *chi.Mux
	repo     *repository.Repository
	webhooks *webhook.Worker // nil unless WEBHOOK_URL is set
}

// newApp builds the store, services and handlers and loads fixtures.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	// Initialize in-memory store
	repo := repository.New()

	// Initialize metrics (noop when disabled)
	var (
		recorder   metrics.Recorder = metrics.NewNoop()
		exposition http.Handler
	)
	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		recorder = prom
		exposition = prom.Handler()
	}

	// Initialize webhook notifier (optional)
	var (
		opts     []service.Option
		webhooks *webhook.Worker
	)
	if cfg.WebhooksEnabled() {
		if err := webhook.ValidateTargetURL(cfg.WebhookURL, cfg.WebhookAllowInsecure); err != nil {
			return nil, fmt.Errorf("invalid WEBHOOK_URL: %w", err)
		}
		publisher := webhook.NewPublisher(cfg.WebhookQueueSize, logger, recorder)
		webhooks = webhook.NewWorker(publisher, webhook.Config{
			TargetURL:   cfg.WebhookURL,
			Secret:      cfg.WebhookSecret,
			MaxAttempts: cfg.WebhookMaxAttempts,
			Timeout:     cfg.WebhookTimeout,
		}, logger, recorder)
		opts = append(opts, service.WithPublisher(publisher))
	}

	recordService, err := service.NewRecordService(repo, cfg.RecordIDFormat, recorder, opts...)
	if err != nil {
		return nil, err
	}

	// Load fixtures before the first request
	if cfg.SeedFile != "" {
		n, err := seed.LoadFile(ctx, cfg.SeedFile, recordService)
		if err != nil {
			return nil, fmt.Errorf("load seed file: %w", err)
		}
		logger.Info("seeded records", "file", cfg.SeedFile, "count", n)
	}

	// Initialize handlers
	handlers := routeHandlers{
		base:    handler.New(),
		health:  handler.NewHealthHandler(repo),
		records: handler.NewRecordHandler(recordService, logger),
		upload:  handler.NewUploadHandler(recorder, logger),
		metrics: handler.NewMetricsHandler(exposition),
	}

	return &app{
		router:   setupRouter(handlers, cfg, logger),
		repo:     repo,
		webhooks: webhooks,
	}, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routeHandlers struct {
	base    *handler.Handler
	health  *handler.HealthHandler
	records *handler.RecordHandler
	upload  *handler.UploadHandler
	metrics *handler.MetricsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(h routeHandlers, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowAnyOrigin = cfg.AllowAnyOrigin()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.CORS(corsCfg))

	// Express-style matching: "/health/" routes like "/health" and HEAD
	// falls back to the GET handler.
	r.Use(chimiddleware.StripSlashes)
	r.Use(chimiddleware.GetHead)

	// Public routes
	r.Get("/", h.base.Root)
	r.Get("/health", h.health.Health)

	// Records CRUD with the JSON body limit
	r.Route("/records", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

		r.Get("/", h.records.List)
		r.Post("/", h.records.Create)
		r.Put("/{id}", h.records.Update)
		r.Delete("/{id}", h.records.Delete)
	})

	// Uploads carry their own, larger limit
	r.With(middleware.MaxBodySize(cfg.UploadMaxBytes)).Post("/upload", h.upload.Upload)

	// Prometheus exposition
	if cfg.MetricsEnabled {
		r.Get("/metrics", h.metrics.Metrics)
	}

	// Unsupported methods on known paths fall through to the 404 body too.
	r.NotFound(h.base.NotFound)
	r.MethodNotAllowed(h.base.NotFound)

	return r
}
