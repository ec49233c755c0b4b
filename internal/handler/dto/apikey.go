package dto

import (
	"time"

	"github.com/coursehub/content/internal/model"
)

// CreateAPIKeyRequest is the body of POST /content/user/api-keys.
type CreateAPIKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
	Env    string   `json:"env"`
}

// APIKeyResponse describes a key without its secret.
type APIKeyResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	KeyPrefix     string     `json:"keyPrefix"`
	Scopes        []string   `json:"scopes"`
	RateLimitTier string     `json:"rateLimitTier"`
	LastUsedAt    *time.Time `json:"lastUsedAt,omitempty"`
	RevokedAt     *time.Time `json:"revokedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// CreatedAPIKeyResponse carries the plaintext key. It is returned once.
type CreatedAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

// APIKeyListResponse wraps a user's keys.
type APIKeyListResponse struct {
	Keys []APIKeyResponse `json:"keys"`
}

// ToAPIKeyResponse converts a key to its public shape.
func ToAPIKeyResponse(k *model.APIKey) APIKeyResponse {
	scopes := k.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	return APIKeyResponse{
		ID:            k.ID,
		Name:          k.Name,
		KeyPrefix:     k.KeyPrefix,
		Scopes:        scopes,
		RateLimitTier: k.RateLimitTier,
		LastUsedAt:    k.LastUsedAt,
		RevokedAt:     k.RevokedAt,
		CreatedAt:     k.CreatedAt,
	}
}
