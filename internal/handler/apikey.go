package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/handler/dto"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/service"
)

// APIKeyManager issues, lists and revokes a user's keys.
type APIKeyManager interface {
	Create(ctx context.Context, in service.CreateAPIKeyInput) (*service.CreatedAPIKey, error)
	List(ctx context.Context, userID int64) ([]*model.APIKey, error)
	Revoke(ctx context.Context, userID int64, id string) (*model.APIKey, error)
}

// APIKeyHandler handles the caller's own API keys.
type APIKeyHandler struct {
	keys   APIKeyManager
	logger *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(keys APIKeyManager, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, logger: logger}
}

// List handles GET /content/user/api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keys, err := h.keys.List(r.Context(), authCtx.UserID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := dto.APIKeyListResponse{Keys: make([]dto.APIKeyResponse, 0, len(keys))}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, dto.ToAPIKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /content/user/api-keys. The new key can carry at
// most the scopes and tier of the key making the request.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	created, err := h.keys.Create(r.Context(), service.CreateAPIKeyInput{
		UserID:       authCtx.UserID,
		Name:         req.Name,
		Scopes:       req.Scopes,
		Env:          req.Env,
		Tier:         authCtx.RateLimitTier,
		CallerScopes: authCtx.Scopes,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreatedAPIKeyResponse{
		APIKeyResponse: dto.ToAPIKeyResponse(created.Key),
		Key:            created.Plaintext,
	})
}

// Revoke handles DELETE /content/user/api-keys/{keyId}.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if _, err := h.keys.Revoke(r.Context(), authCtx.UserID, chi.URLParam(r, "keyId")); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIKeyHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: verr.Fields,
		})
	case errors.Is(err, service.ErrScopeEscalation):
		writeError(w, http.StatusForbidden, "SCOPE_ESCALATION", "Requested scopes exceed the caller's scopes")
	case errors.Is(err, service.ErrAPIKeyNotFound):
		// Other users' keys look the same as missing ones.
		writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
	default:
		h.logger.ErrorContext(r.Context(), "API key request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
