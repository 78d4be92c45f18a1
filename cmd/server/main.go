package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	goredis "github.com/redis/go-redis/v9"

	"github.com/howard-metropia/trip-validation/internal/app"
	"github.com/howard-metropia/trip-validation/internal/config"
	"github.com/howard-metropia/trip-validation/internal/handler"
	"github.com/howard-metropia/trip-validation/internal/logging"
	"github.com/howard-metropia/trip-validation/internal/publish"
	internalRedis "github.com/howard-metropia/trip-validation/internal/redis"
	"github.com/howard-metropia/trip-validation/internal/repository/postgres"
	"github.com/howard-metropia/trip-validation/internal/scheduler"
	"github.com/howard-metropia/trip-validation/internal/service"
	"github.com/howard-metropia/trip-validation/internal/validator"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Error("failed to initialize New Relic", "error", err)
		} else {
			logger.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	server, registry, publisher := wireServer(db, redisClient, nrApp, cfg, logger)
	if publisher != nil {
		defer publisher.Close()
	}

	// Re-arm timers that were pending when the previous process died.
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := registry.Restore(restoreCtx); err != nil {
		logger.Error("failed to restore scheduled validations", "error", err)
	} else {
		logger.Info("restored scheduled validations", "pending", registry.Pending())
	}
	restoreCancel()

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	registry.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server, the
// timer registry, and the optional outcome publisher.
func wireServer(db *sql.DB, redisClient *goredis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) (*http.Server, *scheduler.Registry, publish.Publisher) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	scheduleStore := internalRedis.NewScheduleStore(redisClient)

	// Initialize repositories.
	tripRepo := postgres.NewTripRepository(db)
	trajectoryRepo := postgres.NewTrajectoryRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	pairRepo := postgres.NewPairRepository(db)
	resultRepo := postgres.NewResultRepository(db)

	// Build the engine from the environment plus the optional profile file.
	engineCfg := validator.DefaultConfig()
	engineCfg.PassThreshold = cfg.Validator.PassThreshold
	engineCfg.ProximityThreshold = cfg.Validator.ProximityThresholdM
	engineCfg.ResampleStep = cfg.Validator.ResampleStep
	engineCfg.SingleSidedConfidence = cfg.Validator.SingleSidedConfidence
	if cfg.Validator.ProfilesPath != "" {
		profiles, err := validator.LoadProfiles(cfg.Validator.ProfilesPath)
		if err != nil {
			log.Fatalf("failed to load mode profiles: %v", err)
		}
		engineCfg.Profiles = profiles
		logger.Info("loaded mode profiles", "path", cfg.Validator.ProfilesPath, "version", profiles.Version)
	}
	engine := validator.NewEngine(engineCfg)

	// Outcome publishing is optional; no brokers means no publisher.
	var publisher publish.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = publish.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("outcome publishing enabled", "topic", cfg.Kafka.Topic)
	}

	// Initialize services.
	validationService := service.NewValidationService(
		tripRepo,
		trajectoryRepo,
		routeRepo,
		pairRepo,
		resultRepo,
		engine,
		lockStore,
		cacheStore,
		publisher,
		logger,
		cfg.Validator.LockTTL,
	)

	registry := scheduler.NewRegistry(
		validationService.RunScheduled,
		scheduleStore,
		logger,
		scheduler.WithRetryPolicy(cfg.Validator.RetryBase, cfg.Validator.RetryFactor, cfg.Validator.MaxAttempts),
	)
	validationService.BindRegistry(registry)

	// Initialize handlers.
	validationHandler := handler.NewValidationHandler(validationService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		ValidationHandler: validationHandler,
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return server, registry, publisher
}
