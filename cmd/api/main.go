// Package main is the entrypoint for the content API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/config"
	"github.com/coursehub/content/internal/handler"
	"github.com/coursehub/content/internal/metrics"
	"github.com/coursehub/content/internal/middleware"
	"github.com/coursehub/content/internal/repository"
	"github.com/coursehub/content/internal/server"
	"github.com/coursehub/content/internal/service"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return err
	}
	logger.Info("connected to database")

	if cfg.AutoMigrate {
		applied, err := repo.Migrate(ctx)
		if err != nil {
			repo.Close()
			logger.Error("failed to apply migrations", "error", err)
			return err
		}
		logger.Info("migrations applied", "count", len(applied), "versions", applied)
	}

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.WithProfileTTL(cfg.ProfileCacheTTL))
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return err
	}
	logger.Info("connected to Redis")

	// Initialize services
	recorder := metrics.NewInMemory()
	paging := service.Paging{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}

	userService := service.NewUserService(repo, cacheClient, recorder, logger)
	enrollmentService := service.NewEnrollmentService(repo, paging)
	bookmarkService := service.NewBookmarkService(repo, paging)
	reviewService := service.NewReviewService(repo, recorder)
	apiKeyService := service.NewAPIKeyService(repo, cacheClient, logger)

	// Initialize handlers
	userHandler := handler.NewUserHandler(handler.UserHandlerConfig{
		Security:    auth.NewSecurityContext(userService),
		Users:       userService,
		Enrollments: enrollmentService,
		Bookmarks:   bookmarkService,
		Reviews:     reviewService,
		Metrics:     recorder,
		Logger:      logger,
	})

	router := server.NewRouter(server.RouterConfig{
		Logger:             logger,
		Metrics:            recorder,
		IsDevelopment:      cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Auth: middleware.AuthConfig{
			Logger:             logger,
			Keys:               repo,
			Cache:              cacheClient,
			MinFailureDuration: cfg.AuthFailureDelay,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: cacheClient,
			Enabled: cfg.RateLimitAPIEnabled,
		},
		Users:   userHandler,
		APIKeys: handler.NewAPIKeyHandler(apiKeyService, logger),
		Health: handler.NewHealthHandler(map[string]handler.HealthChecker{
			"database": repo,
			"redis":    cacheClient,
		}),
		Stats: handler.NewMetricsHandler(recorder),
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"base_path", server.BasePath,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
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
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError renders err with every secret replaced by its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
