package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/handler"
	"github.com/coursehub/content/internal/metrics"
	"github.com/coursehub/content/internal/middleware"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/service"
)

const (
	readKey  = "ck_test_aaaaaa_0123456789abcdef0123456789abcdef"
	writeKey = "ck_test_bbbbbb_0123456789abcdef0123456789abcdef"
)

type stubAuthCache map[string]*model.AuthContext

func (s stubAuthCache) GetAuthContext(_ context.Context, key string) (*model.AuthContext, error) {
	if a, ok := s[key]; ok {
		return a, nil
	}
	return nil, cache.ErrCacheMiss
}

func (s stubAuthCache) SetAuthContext(context.Context, string, *model.AuthContext) error { return nil }

func (s stubAuthCache) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type stubKeys struct{}

func (stubKeys) GetAPIKeysByPrefix(context.Context, string) ([]*model.APIKey, error) { return nil, nil }
func (stubKeys) UpdateAPIKeyLastUsed(context.Context, string) error                  { return nil }

type stubUsers struct{ updated *service.UpdateUserInput }

func (s *stubUsers) Get(_ context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Nickname: "router"}, nil
}

func (s *stubUsers) Update(_ context.Context, in service.UpdateUserInput) (*model.User, error) {
	s.updated = &in
	return &model.User{ID: in.ID, Nickname: "updated"}, nil
}

type stubListings struct{}

func (stubListings) CountByUser(context.Context, int64) (int64, error) { return 2, nil }

func (stubListings) FindByUserID(_ context.Context, _ int64, q model.Query) (*model.Page[model.EnrolledCourse], error) {
	return model.NewPage([]model.EnrolledCourse{}, 0, q), nil
}

type stubBookmarks struct{ stubListings }

func (stubBookmarks) FindByUserID(_ context.Context, _ int64, q model.Query) (*model.Page[model.Course], error) {
	return model.NewPage([]model.Course{}, 0, q), nil
}

type stubReviews struct{}

func (stubReviews) FindByUserIDAndCourseID(context.Context, int64, int64) (*model.CourseReview, error) {
	return nil, service.ErrReviewNotFound
}

type stubKeyManager struct{}

func (stubKeyManager) Create(_ context.Context, in service.CreateAPIKeyInput) (*service.CreatedAPIKey, error) {
	return &service.CreatedAPIKey{Key: &model.APIKey{ID: "01K", UserID: in.UserID, Scopes: in.Scopes}, Plaintext: readKey}, nil
}

func (stubKeyManager) List(context.Context, int64) ([]*model.APIKey, error) { return nil, nil }

func (stubKeyManager) Revoke(_ context.Context, userID int64, id string) (*model.APIKey, error) {
	return &model.APIKey{ID: id, UserID: userID}, nil
}

type okChecker struct{}

func (okChecker) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *stubUsers) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.NewInMemory()
	users := &stubUsers{}

	authCache := stubAuthCache{
		auth.CacheKey(readKey):  {KeyID: "k-read", UserID: 7, Scopes: []string{model.ScopeRead}, RateLimitTier: model.TierFree},
		auth.CacheKey(writeKey): {KeyID: "k-write", UserID: 7, Scopes: []string{model.ScopeRead, model.ScopeWrite}, RateLimitTier: model.TierFree},
	}

	r := NewRouter(RouterConfig{
		Logger:             logger,
		Metrics:            recorder,
		MaxRequestBodySize: 1 << 20,
		Auth:               middleware.AuthConfig{Logger: logger, Keys: stubKeys{}, Cache: authCache},
		RateLimit:          middleware.RateLimitConfig{Logger: logger},
		Users: handler.NewUserHandler(handler.UserHandlerConfig{
			Security:    auth.NewSecurityContext(users),
			Users:       users,
			Enrollments: stubListings{},
			Bookmarks:   stubBookmarks{},
			Reviews:     stubReviews{},
			Metrics:     recorder,
			Logger:      logger,
		}),
		APIKeys: handler.NewAPIKeyHandler(stubKeyManager{}, logger),
		Health:  handler.NewHealthHandler(map[string]handler.HealthChecker{"database": okChecker{}}),
		Stats:   handler.NewMetricsHandler(recorder),
	})
	return r, users
}

func do(h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_UserRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/content/user", "/content/user/meta", "/content/user/bookmarks"} {
		rec := do(r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_ReadRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		path string
		want int
	}{
		{"/content/user", http.StatusOK},
		{"/content/user/meta", http.StatusOK},
		{"/content/user/enrollments?page=1&limit=5", http.StatusOK},
		{"/content/user/bookmarks?q=go", http.StatusOK},
		{"/content/user/reviews/12/me", http.StatusNoContent},
		{"/content/user/reviews/abc/me", http.StatusBadRequest},
		{"/content/user/api-keys", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(r, http.MethodGet, tt.path, readKey, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_MetaShape(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodGet, "/content/user/meta", readKey, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var meta map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&meta))
	assert.Equal(t, map[string]int64{"enrollmentCount": 2, "bookmarkCount": 2}, meta)
}

func TestRouter_WriteRoutesRequireWriteScope(t *testing.T) {
	r, users := newTestRouter(t)

	rec := do(r, http.MethodPut, "/content/user", readKey, `{"nickname":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, users.updated)

	rec = do(r, http.MethodPut, "/content/user", writeKey, `{"id":99,"nickname":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, users.updated)
	assert.Equal(t, int64(7), users.updated.ID)

	rec = do(r, http.MethodDelete, "/content/user/api-keys/01K", readKey, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(r, http.MethodDelete, "/content/user/api-keys/01K", writeKey, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz", "", "").Code)

	rec := do(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "content_")
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = do(r, http.MethodPost, "/healthz", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_SetsRequestID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodGet, "/healthz", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
