package model

import (
	"slices"
	"time"
)

// API key scopes.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// ValidScopes lists every scope a key may carry.
var ValidScopes = []string{ScopeRead, ScopeWrite, ScopeAdmin}

// Rate limit tiers.
const (
	TierFree      = "free"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

// RateLimitConfig is the token bucket shape for a tier.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// TierConfigs maps tiers to bucket shapes. Zero requests means unlimited.
var TierConfigs = map[string]RateLimitConfig{
	TierFree:      {RequestsPerMinute: 120, Burst: 20},
	TierPro:       {RequestsPerMinute: 1200, Burst: 100},
	TierUnlimited: {RequestsPerMinute: 0, Burst: 0},
}

// APIKey is a credential that identifies a user.
type APIKey struct {
	ID            string
	UserID        int64
	KeyHash       string
	KeyPrefix     string
	Scopes        []string
	RateLimitTier string
	Name          string
	RevokedAt     *time.Time
	LastUsedAt    *time.Time
	CreatedAt     time.Time
}

// IsRevoked reports whether the key was revoked.
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// RateLimit returns the bucket shape of the key's tier, falling back to free.
func (k *APIKey) RateLimit() RateLimitConfig {
	if cfg, ok := TierConfigs[k.RateLimitTier]; ok {
		return cfg
	}
	return TierConfigs[TierFree]
}

// AuthContext is the identity attached to an authenticated request.
type AuthContext struct {
	KeyID         string   `json:"key_id"`
	KeyPrefix     string   `json:"key_prefix"`
	UserID        int64    `json:"user_id"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

// HasScope reports whether the context grants scope. Admin grants everything.
func (a *AuthContext) HasScope(scope string) bool {
	if slices.Contains(a.Scopes, ScopeAdmin) {
		return true
	}
	return slices.Contains(a.Scopes, scope)
}
