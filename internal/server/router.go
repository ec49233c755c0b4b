package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/coursehub/content/internal/handler"
	"github.com/coursehub/content/internal/metrics"
	"github.com/coursehub/content/internal/middleware"
)

// BasePath is where the caller-scoped user API is mounted.
const BasePath = "/content/user"

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            metrics.Recorder
	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64

	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimitConfig

	Users   *handler.UserHandler
	APIKeys *handler.APIKeyHandler
	Health  *handler.HealthHandler
	Stats   *handler.MetricsHandler
}

// NewRouter builds the HTTP routes and middleware chain.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Stats != nil {
		r.Get("/metrics", cfg.Stats.Metrics)
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth))
		r.Use(middleware.RateLimitAPI(cfg.RateLimit))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRead())
			r.Get("/", cfg.Users.Get)
			r.Get("/meta", cfg.Users.Meta)
			r.Get("/enrollments", cfg.Users.Enrollments)
			r.Get("/bookmarks", cfg.Users.Bookmarks)
			r.Get("/reviews/{courseId}/me", cfg.Users.Review)
			r.Get("/api-keys", cfg.APIKeys.List)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireWrite())
			r.Put("/", cfg.Users.Update)
			r.Post("/api-keys", cfg.APIKeys.Create)
			r.Delete("/api-keys/{keyId}", cfg.APIKeys.Revoke)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
