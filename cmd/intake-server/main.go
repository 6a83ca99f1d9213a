// cmd/intake-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ascend-intake/internal/api"
	awsclient "ascend-intake/internal/common/aws"
	"ascend-intake/internal/common/config"
	"ascend-intake/internal/common/database"
	apperrors "ascend-intake/internal/common/errors"
	"ascend-intake/internal/common/logger"
	"ascend-intake/internal/common/observability"
	"ascend-intake/internal/intake"
	"ascend-intake/internal/repository"
	sn "ascend-intake/internal/workers/application/send-notification"
	es "ascend-intake/internal/workers/communication/email-send"
)

// Initial backoff for the startup connection retries.
var (
	postgresRetryDelay = 2 * time.Second
	redisRetryDelay    = time.Second
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "intake-server: %v\n", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred shutdown and log flushing
// happen on every path.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name, nil, log)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}

	store, closeStore, err := buildStore(ctx, cfg, zapLog, log, checks)
	if err != nil {
		zapLog.Error("store init failed", zap.Error(err))
		return err
	}
	defer closeStore()

	notifier, err := buildNotifier(ctx, cfg, log, checks)
	if err != nil {
		zapLog.Error("notifier init failed", zap.Error(err))
		return err
	}

	service, err := intake.NewService(intake.ConfigFromAppConfig(cfg), intake.Dependencies{
		Store:    store,
		Notifier: notifier,
		Logger:   log,
		Tracer:   obs.Tracer("ascend-intake/intake"),
	})
	if err != nil {
		zapLog.Error("intake service init failed", zap.Error(err))
		return err
	}
	checks["store"] = service.Ping

	handlers := api.NewHandlers(service, api.HandlerOptions{
		ReportPartialSuccess: cfg.Application.ReportPartialSuccess,
		ReadinessChecks:      checks,
	}, log)

	router := api.NewRouter(handlers, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminToken:     cfg.Admin.APIToken,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Observability:  obs,
	})

	srv := api.NewServer(cfg.Server.Address, router,
		config.GetDuration(cfg.Server.ReadTimeout),
		config.GetDuration(cfg.Server.WriteTimeout),
	)

	serveErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received, draining requests...")
	case err := <-serveErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Intake server stopped")
	return nil
}

// buildStore returns the application store for database.driver, wrapped in
// the Redis list cache when enabled. A Redis outage at startup disables the
// cache instead of failing.
func buildStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger, checks map[string]api.ReadinessCheck) (repository.ApplicationStore, func(), error) {
	var store repository.ApplicationStore
	closers := []func(){}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		zapLog.Warn("Using in-memory application store; records are lost on restart")
		store = repository.NewMemoryApplicationRepository()

	default:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 1+apperrors.GetRetryCount(apperrors.ErrCodeDatabaseConnectionFailed), postgresRetryDelay, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, nil, err
		}
		zapLog.Info("PostgreSQL connected successfully")
		closers = append(closers, func() { pg.Close() })
		store = repository.NewApplicationRepository(pg.DB)
	}

	if cfg.Database.Redis.Enabled {
		redis := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 1+apperrors.GetRetryCount(apperrors.ErrCodeCacheUnavailable), redisRetryDelay, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("Redis unavailable, list cache disabled", zap.Error(err))
			redis.Close()
		} else {
			zapLog.Info("Redis connected successfully")
			closers = append(closers, func() { redis.Close() })
			checks["cache"] = redis.Ping
			store = repository.NewCachedApplicationRepository(store, redis,
				config.GetDuration(cfg.Database.Redis.ListCacheTTL), log)
		}
	}

	return store, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, checks map[string]api.ReadinessCheck) (sn.Notifier, error) {
	switch cfg.Notifications.Provider {
	case config.ProviderSES:
		aws := cfg.Notifications.AWS
		return awsclient.NewSESClient(ctx, awsclient.SESConfig{
			Region:    aws.Region,
			AccessKey: aws.AccessKey,
			SecretKey: aws.SecretKey,
		})

	case config.ProviderSMTP:
		smtpCfg := es.ConfigFromAppConfig(cfg)
		if err := smtpCfg.Validate(); err != nil {
			return nil, fmt.Errorf("smtp config: %w", err)
		}
		svc := es.NewService(smtpCfg, log)
		checks["smtp"] = svc.TestConnection
		return svc, nil

	default:
		return sn.NewLogNotifier(log), nil
	}
}
