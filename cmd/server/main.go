package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evolution-ecosystem/bridge/internal/config"
	"github.com/evolution-ecosystem/bridge/internal/database"
	"github.com/evolution-ecosystem/bridge/internal/engine"
	"github.com/evolution-ecosystem/bridge/internal/handler"
	"github.com/evolution-ecosystem/bridge/internal/jobs"
	"github.com/evolution-ecosystem/bridge/internal/middleware"
	"github.com/evolution-ecosystem/bridge/internal/repository"
	"github.com/evolution-ecosystem/bridge/internal/service"
	"github.com/evolution-ecosystem/bridge/pkg/token"
)

const version = "1.4.2"

func main() {
	// Load configuration first; the debug flag decides the log level.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize identity token verification
	tokenService, err := newTokenService(cfg)
	if err != nil {
		slog.Error("failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize engine client
	engineClient := engine.NewClient(engine.Config{
		URL:     cfg.Engine.URL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: cfg.Engine.Timeout,
	})

	// Initialize repositories
	experimentRepo := repository.NewExperimentRepository(db)
	runRepo := repository.NewRunRepository(db)
	metricRepo := repository.NewMetricRepository(db)

	// Initialize services
	experimentService := service.NewExperimentService(service.ExperimentServiceConfig{
		ExperimentRepo: experimentRepo,
		RunCounter:     runRepo,
	})
	runService := service.NewRunService(service.RunServiceConfig{
		RunRepo:        runRepo,
		MetricRepo:     metricRepo,
		ExperimentRepo: experimentRepo,
		Engine:         engineClient,
	})
	keyVerifier := service.NewKeyVerifier(cfg.Admin.APIKeyHash, cfg.Admin.EngineCallbackHash)

	// Background jobs
	runPoller := jobs.NewRunPoller(runService, 30*time.Second)
	runPoller.Start()
	defer runPoller.Stop()

	metricPruner := jobs.NewMetricPruner(runService, 0, 0)
	metricPruner.Start()
	defer metricPruner.Stop()

	// Rate limiting and idempotency
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{})
	defer rateLimiter.Stop()

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	defer idempotencyStore.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, engineClient, version)
	experimentHandler := handler.NewExperimentHandler(experimentService)
	runHandler := handler.NewRunHandler(runService)
	adminHandler := handler.NewAdminHandler(runService, 0)

	// Create router and register routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	// Experiment endpoints - requires identity token
	authMiddleware := middleware.Auth(tokenService)
	mux.Handle("GET /api/v1/experiments", authMiddleware(http.HandlerFunc(experimentHandler.List)))
	mux.Handle("POST /api/v1/experiments", authMiddleware(http.HandlerFunc(experimentHandler.Create)))
	mux.Handle("GET /api/v1/experiments/{experimentId}", authMiddleware(http.HandlerFunc(experimentHandler.Get)))
	mux.Handle("PATCH /api/v1/experiments/{experimentId}", authMiddleware(http.HandlerFunc(experimentHandler.Update)))
	mux.Handle("DELETE /api/v1/experiments/{experimentId}", authMiddleware(http.HandlerFunc(experimentHandler.Archive)))

	// Run endpoints - requires identity token
	mux.Handle("POST /api/v1/experiments/{experimentId}/runs", authMiddleware(http.HandlerFunc(runHandler.Start)))
	mux.Handle("GET /api/v1/experiments/{experimentId}/runs", authMiddleware(http.HandlerFunc(runHandler.List)))
	mux.Handle("GET /api/v1/runs/{runId}", authMiddleware(http.HandlerFunc(runHandler.Get)))
	mux.Handle("POST /api/v1/runs/{runId}/cancel", authMiddleware(http.HandlerFunc(runHandler.Cancel)))
	mux.Handle("GET /api/v1/runs/{runId}/metrics", authMiddleware(http.HandlerFunc(runHandler.Metrics)))

	// Engine callback - authenticated by the shared callback key
	callbackMiddleware := middleware.APIKey(keyVerifier.VerifyCallback)
	mux.Handle("POST /api/v1/engine/callback", callbackMiddleware(http.HandlerFunc(runHandler.Callback)))

	// Operator endpoints. Run listing is for admin-role dashboard users;
	// maintenance is key-authenticated for ops tooling.
	mux.Handle("GET /api/v1/admin/runs", authMiddleware(middleware.AdminOnly(http.HandlerFunc(adminHandler.ListRuns))))
	adminMiddleware := middleware.APIKey(keyVerifier.VerifyAdmin)
	mux.Handle("POST /api/v1/admin/maintenance/prune", adminMiddleware(http.HandlerFunc(adminHandler.PruneMetrics)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.Bool("debug", cfg.Server.Debug),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// newTokenService builds the verifier for identity tokens. In debug mode
// without a configured public key it falls back to an ephemeral key pair,
// which only accepts tokens minted locally with the same process lifetime.
func newTokenService(cfg *config.Config) (*token.Service, error) {
	if cfg.Auth.PublicKeyPath != "" {
		return token.NewService(token.Config{
			PublicKeyPath: cfg.Auth.PublicKeyPath,
			Issuer:        cfg.Auth.Issuer,
		})
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	slog.Warn("no AUTH_PUBLIC_KEY_PATH configured, using an ephemeral key; identity service tokens will not verify")
	return token.NewServiceFromKey(key, cfg.Auth.Issuer, time.Hour), nil
}
