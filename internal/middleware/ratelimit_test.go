package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/model"
)

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	calls  int
}

func (f *fakeLimiter) CheckAPIRateLimit(context.Context, string, int, int) (*cache.RateLimitResult, error) {
	f.calls++
	return f.result, f.err
}

func serveRateLimited(cfg RateLimitConfig, tier string) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := RateLimitAPI(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/content/user", nil)
	req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{
		KeyID:         "k1",
		UserID:        1,
		RateLimitTier: tier,
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func TestRateLimitAPI_Allowed(t *testing.T) {
	reset := time.Unix(1_700_000_000, 0)
	limiter := &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 7, ResetAt: reset}}
	cfg := RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: true}

	rec, reached := serveRateLimited(cfg, model.TierFree)

	assert.True(t, reached)
	assert.Equal(t, "120", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "7", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitAPI_Denied(t *testing.T) {
	limiter := &fakeLimiter{result: &cache.RateLimitResult{
		Allowed:    false,
		ResetAt:    time.Now().Add(time.Minute),
		RetryAfter: 1500 * time.Millisecond,
	}}
	cfg := RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: true}

	rec, reached := serveRateLimited(cfg, model.TierPro)

	assert.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)
}

func TestRateLimitAPI_Bypass(t *testing.T) {
	testCases := []struct {
		name    string
		enabled bool
		tier    string
		err     error
	}{
		{"disabled", false, model.TierFree, nil},
		{"unlimited tier", true, model.TierUnlimited, nil},
		{"limiter error fails open", true, model.TierFree, errors.New("redis down")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limiter := &fakeLimiter{err: tc.err}
			cfg := RateLimitConfig{Logger: discardLogger(), Limiter: limiter, Enabled: tc.enabled}

			rec, reached := serveRateLimited(cfg, tc.tier)
			assert.True(t, reached)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 1, retryAfterSeconds(time.Second))
	assert.Equal(t, 3, retryAfterSeconds(2001*time.Millisecond))
}
