package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

// APIKeyStore is the persistence APIKeyService needs.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	ListAPIKeysByUserID(ctx context.Context, userID int64) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, userID int64, id string) (*model.APIKey, error)
}

// RevocationMarker shortens the window in which a revoked key still
// authenticates from cache.
type RevocationMarker interface {
	MarkRevoked(ctx context.Context, keyID string) error
}

// APIKeyService manages the keys a user authenticates with.
type APIKeyService struct {
	store   APIKeyStore
	revoked RevocationMarker
	logger  *slog.Logger
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(store APIKeyStore, revoked RevocationMarker, logger *slog.Logger) *APIKeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyService{store: store, revoked: revoked, logger: logger}
}

// CreateAPIKeyInput defines input for issuing a key.
// CallerScopes bounds the scopes the new key may carry.
type CreateAPIKeyInput struct {
	UserID       int64    `json:"userId" validate:"gt=0"`
	Name         string   `json:"name" validate:"max=100"`
	Scopes       []string `json:"scopes" validate:"dive,oneof=read write admin"`
	Env          string   `json:"env" validate:"omitempty,oneof=live test"`
	Tier         string   `json:"-"`
	CallerScopes []string `json:"-"`
}

// CreatedAPIKey is a stored key plus its plaintext, which is never
// retrievable again.
type CreatedAPIKey struct {
	Key       *model.APIKey
	Plaintext string
}

// Create issues a new key for in.UserID. Scopes default to read.
func (s *APIKeyService) Create(ctx context.Context, in CreateAPIKeyInput) (*CreatedAPIKey, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	scopes := in.Scopes
	if len(scopes) == 0 {
		scopes = []string{model.ScopeRead}
	}
	slices.Sort(scopes)
	scopes = slices.Compact(scopes)

	caller := &model.AuthContext{Scopes: in.CallerScopes}
	for _, scope := range scopes {
		if !caller.HasScope(scope) {
			return nil, fmt.Errorf("%w: %s", ErrScopeEscalation, scope)
		}
	}

	tier := in.Tier
	if _, ok := model.TierConfigs[tier]; !ok {
		tier = model.TierFree
	}

	generated, err := auth.GenerateAPIKey(in.Env)
	if err != nil {
		return nil, fmt.Errorf("generate API key: %w", err)
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        in.UserID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: tier,
		Name:          in.Name,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store API key: %w", err)
	}

	s.logger.InfoContext(ctx, "API key created",
		slog.String("key_id", key.ID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.Int64("user_id", key.UserID),
	)

	return &CreatedAPIKey{Key: key, Plaintext: generated.Plaintext}, nil
}

// List returns userID's keys, revoked ones included.
func (s *APIKeyService) List(ctx context.Context, userID int64) ([]*model.APIKey, error) {
	keys, err := s.store.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list API keys of user %d: %w", userID, err)
	}
	return keys, nil
}

// Revoke revokes key id of userID. Keys of other users and already
// revoked keys report ErrAPIKeyNotFound.
func (s *APIKeyService) Revoke(ctx context.Context, userID int64, id string) (*model.APIKey, error) {
	key, err := s.store.RevokeAPIKey(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("revoke API key %s: %w", id, err)
	}

	if err := s.revoked.MarkRevoked(ctx, key.ID); err != nil {
		s.logger.WarnContext(ctx, "revocation marker not stored",
			slog.String("key_id", key.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "API key revoked",
		slog.String("key_id", key.ID),
		slog.Int64("user_id", userID),
	)
	return key, nil
}
