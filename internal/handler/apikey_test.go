package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/handler/dto"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/service"
)

type fakeKeyManager struct {
	created []service.CreateAPIKeyInput
	keys    []*model.APIKey
	err     error
	revoked []string
}

func (f *fakeKeyManager) Create(_ context.Context, in service.CreateAPIKeyInput) (*service.CreatedAPIKey, error) {
	f.created = append(f.created, in)
	if f.err != nil {
		return nil, f.err
	}
	return &service.CreatedAPIKey{
		Key: &model.APIKey{
			ID:            "01J0000000000000000000000A",
			UserID:        in.UserID,
			KeyPrefix:     "a1b2c3",
			Scopes:        []string{model.ScopeRead},
			RateLimitTier: model.TierFree,
			Name:          in.Name,
			CreatedAt:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		Plaintext: "ck_live_a1b2c3_0123456789abcdef0123456789abcdef",
	}, nil
}

func (f *fakeKeyManager) List(context.Context, int64) ([]*model.APIKey, error) {
	return f.keys, f.err
}

func (f *fakeKeyManager) Revoke(_ context.Context, _ int64, id string) (*model.APIKey, error) {
	f.revoked = append(f.revoked, id)
	if f.err != nil {
		return nil, f.err
	}
	return &model.APIKey{ID: id}, nil
}

func serveKeys(t *testing.T, mgr *fakeKeyManager, authCtx *model.AuthContext, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewAPIKeyHandler(mgr, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Get("/content/user/api-keys", h.List)
	r.Post("/content/user/api-keys", h.Create)
	r.Delete("/content/user/api-keys/{keyId}", h.Revoke)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if authCtx != nil {
		req = req.WithContext(auth.ContextWithAuth(req.Context(), authCtx))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var writerKey = &model.AuthContext{
	KeyID:         "01J0000000000000000000000Z",
	UserID:        7,
	Scopes:        []string{model.ScopeRead, model.ScopeWrite},
	RateLimitTier: model.TierPro,
}

func TestAPIKeyHandler_Create(t *testing.T) {
	mgr := &fakeKeyManager{}

	rec := serveKeys(t, mgr, writerKey, http.MethodPost, "/content/user/api-keys",
		`{"name":"ci","scopes":["read"],"userId":99}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, mgr.created, 1)
	in := mgr.created[0]
	assert.Equal(t, int64(7), in.UserID)
	assert.Equal(t, model.TierPro, in.Tier)
	assert.Equal(t, writerKey.Scopes, in.CallerScopes)

	got := decodeBody[dto.CreatedAPIKeyResponse](t, rec)
	assert.Equal(t, "ck_live_a1b2c3_0123456789abcdef0123456789abcdef", got.Key)
	assert.Equal(t, "a1b2c3", got.KeyPrefix)
	assert.NotContains(t, rec.Body.String(), "keyHash")
}

func TestAPIKeyHandler_CreateErrors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "INVALID_JSON"},
		{"escalation", `{"scopes":["admin"]}`, service.ErrScopeEscalation, http.StatusForbidden, "SCOPE_ESCALATION"},
		{"validation", `{"scopes":["root"]}`, &service.ValidationError{Fields: map[string]string{"scopes[0]": "is invalid"}}, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveKeys(t, &fakeKeyManager{err: tc.err}, writerKey, http.MethodPost, "/content/user/api-keys", tc.body)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCode, decodeBody[map[string]any](t, rec)["code"])
		})
	}
}

func TestAPIKeyHandler_List(t *testing.T) {
	mgr := &fakeKeyManager{keys: []*model.APIKey{
		{ID: "k1", KeyPrefix: "aaaaaa", KeyHash: "$argon2id$secret", Scopes: []string{model.ScopeRead}},
		{ID: "k2", KeyPrefix: "bbbbbb"},
	}}

	rec := serveKeys(t, mgr, writerKey, http.MethodGet, "/content/user/api-keys", "")

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[dto.APIKeyListResponse](t, rec)
	require.Len(t, got.Keys, 2)
	assert.Equal(t, "k1", got.Keys[0].ID)
	assert.Equal(t, []string{}, got.Keys[1].Scopes)
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestAPIKeyHandler_Revoke(t *testing.T) {
	mgr := &fakeKeyManager{}

	rec := serveKeys(t, mgr, writerKey, http.MethodDelete, "/content/user/api-keys/k1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"k1"}, mgr.revoked)

	rec = serveKeys(t, &fakeKeyManager{err: service.ErrAPIKeyNotFound}, writerKey, http.MethodDelete, "/content/user/api-keys/k2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyHandler_RequiresAuth(t *testing.T) {
	rec := serveKeys(t, &fakeKeyManager{}, nil, http.MethodGet, "/content/user/api-keys", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
