package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"todostore/internal/adapter/database/postgres"
	pgrepository "todostore/internal/adapter/database/postgres/repository"
	"todostore/internal/adapter/database/sqlite"
	sqliterepository "todostore/internal/adapter/database/sqlite/repository"
	httpadapter "todostore/internal/adapter/http"
	"todostore/internal/adapter/http/middleware"
	"todostore/internal/adapter/http/routes"
	"todostore/internal/adapter/telemetry"
	"todostore/internal/adapter/weather/openweather"
	"todostore/internal/core/port"
	"todostore/pkg/config"
	"todostore/pkg/logger"
)

const (
	serviceName    = "todostore"
	serviceVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()

	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(serviceName, cfg.LogLevel, cfg.LokiURL)

	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer appLogger.Sync()

	if cfg.Weather.APIKey == "" {
		slog.Warn("API_KEY is not set, weather requests will be rejected upstream")
	}

	tel, err := telemetry.NewContainer(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		MetricsPort:    cfg.MetricsPort,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	}, appLogger)

	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			appLogger.Error("Failed to flush telemetry", zap.Error(err))
		}
	}()

	probe := tel.NewTelemetryProbe()

	todoRepo, closer, err := openStore(ctx, cfg, probe)

	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	defer func() {
		if err := closer.Close(); err != nil {
			appLogger.Error("Failed to close database", zap.Error(err))
		}
	}()

	weatherClient := openweather.NewClient(openweather.Config{
		APIKey:        cfg.Weather.APIKey,
		GeoURL:        cfg.Weather.GeoURL,
		APIURL:        cfg.Weather.APIURL,
		Timeout:       cfg.Weather.Timeout,
		RatePerSecond: cfg.Weather.RatePerSecond,
		Burst:         cfg.Weather.Burst,
	}, probe)

	limiterStore, err := rateLimitStore(cfg)

	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	container := httpadapter.NewContainer(todoRepo, weatherClient, probe, appLogger)

	router := routes.SetupRouterWithConfig(container.Handlers(), routes.Options{
		ServiceName:    serviceName,
		Config:         cfg,
		Logger:         appLogger,
		Metrics:        tel.AppMetrics,
		RateLimitStore: limiterStore,
	})

	slog.Info("Configuration loaded",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"database_driver", cfg.Database.Driver,
		"rate_limit_enabled", cfg.RateLimitEnabled,
		"rate_limit_store", limiterStore.Name(),
		"https_enforced", cfg.EnforceHTTPS)

	if err := httpadapter.Serve(ctx, httpadapter.NewServer(cfg.Port, router)); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	slog.Info("Shut down gracefully")

	return nil
}

func openStore(ctx context.Context, cfg *config.AppConfig, probe port.Telemetry) (port.TodoRepository, io.Closer, error) {
	if cfg.Database.Driver == config.DriverPostgres {
		db, err := postgres.NewDB(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, err
		}

		return pgrepository.NewTodoRepository(db, probe), closerFunc(db.Close), nil
	}

	level := zerolog.InfoLevel
	if cfg.LogLevel == "debug" {
		level = zerolog.DebugLevel
	}

	sqlLogger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("component", "sql").Logger()

	db, err := sqlite.NewDB(sqlite.FileDSN(cfg.Database.Path), sqlLogger)
	if err != nil {
		return nil, nil, err
	}

	return sqliterepository.NewTodoRepository(db, probe), db, nil
}

func rateLimitStore(cfg *config.AppConfig) (middleware.RateLimitStore, error) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryStore(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return middleware.NewRedisStore(redis.NewClient(opts)), nil
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
