package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/model"
)

// DefaultMinAuthFailure is the floor on how long a rejected request
// takes, so unknown prefixes and wrong secrets look alike.
const DefaultMinAuthFailure = 200 * time.Millisecond

// KeyStore looks up API keys for verification.
type KeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// AuthCache caches verified identities.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, a *model.AuthContext) error
	IsRevoked(ctx context.Context, keyID string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Keys   KeyStore
	Cache  AuthCache
	// MinFailureDuration pads rejected requests. Zero disables padding.
	MinFailureDuration time.Duration
}

// Auth returns a middleware that authenticates requests by API key and
// attaches the caller's AuthContext. Every failure is the same 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			fail := func(reason string) {
				cfg.Logger.WarnContext(ctx, "authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(ctx)),
				)
				if elapsed := time.Since(start); elapsed < cfg.MinFailureDuration {
					time.Sleep(cfg.MinFailureDuration - elapsed)
				}
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
			}

			key := extractAPIKey(r)
			if key == "" {
				fail("missing_key")
				return
			}

			parsed, err := auth.ParseAPIKey(key)
			if err != nil {
				fail("invalid_format")
				return
			}

			cacheKey := auth.CacheKey(key)
			if authCtx := cachedIdentity(ctx, cfg, cacheKey); authCtx != nil {
				logAuthenticated(ctx, cfg.Logger, authCtx, true)
				next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(ctx, authCtx)))
				return
			}

			candidates, err := cfg.Keys.GetAPIKeysByPrefix(ctx, parsed.Prefix)
			if err != nil {
				cfg.Logger.ErrorContext(ctx, "database error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication temporarily unavailable")
				return
			}

			matched := matchKey(key, candidates)
			if matched == nil {
				fail("invalid_key")
				return
			}

			authCtx := &model.AuthContext{
				KeyID:         matched.ID,
				KeyPrefix:     matched.KeyPrefix,
				UserID:        matched.UserID,
				Scopes:        matched.Scopes,
				RateLimitTier: matched.RateLimitTier,
			}

			if err := cfg.Cache.SetAuthContext(ctx, cacheKey, authCtx); err != nil {
				cfg.Logger.WarnContext(ctx, "auth cache fill failed", slog.String("error", err.Error()))
			}

			// Outlives the request; bounded by its own timeout.
			go func(id string) {
				bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				if err := cfg.Keys.UpdateAPIKeyLastUsed(bg, id); err != nil {
					cfg.Logger.Warn("last used update failed", slog.String("key_id", id), slog.String("error", err.Error()))
				}
			}(matched.ID)

			logAuthenticated(ctx, cfg.Logger, authCtx, false)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(ctx, authCtx)))
		})
	}
}

// cachedIdentity returns a usable cached identity, or nil to fall back to
// the database.
func cachedIdentity(ctx context.Context, cfg AuthConfig, cacheKey string) *model.AuthContext {
	authCtx, err := cfg.Cache.GetAuthContext(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			cfg.Logger.WarnContext(ctx, "auth cache read failed", slog.String("error", err.Error()))
		}
		return nil
	}

	revoked, err := cfg.Cache.IsRevoked(ctx, authCtx.KeyID)
	if err != nil || revoked {
		return nil
	}
	return authCtx
}

// matchKey verifies key against every candidate sharing its prefix.
func matchKey(key string, candidates []*model.APIKey) *model.APIKey {
	for _, k := range candidates {
		if k.IsRevoked() {
			continue
		}
		ok, err := auth.VerifySecret(key, k.KeyHash)
		if err == nil && ok {
			return k
		}
	}
	return nil
}

func logAuthenticated(ctx context.Context, logger *slog.Logger, a *model.AuthContext, cacheHit bool) {
	logger.DebugContext(ctx, "authentication successful",
		slog.String("key_id", a.KeyID),
		slog.String("key_prefix", a.KeyPrefix),
		slog.Int64("user_id", a.UserID),
		slog.Bool("cache_hit", cacheHit),
		slog.String("request_id", GetRequestID(ctx)),
	)
}

// extractAPIKey reads "Authorization: Bearer <key>", falling back to
// "X-API-Key: <key>".
func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
