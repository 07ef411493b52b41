package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Tier is a subscription level governing feature and model access.
// Anonymous is distinct from free: it additionally disables
// conversation sync and server-side search.
type Tier string

const (
	TierAnonymous  Tier = "anonymous"
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// ParseTier normalizes a raw subscription value. Unknown or empty
// values degrade to the free tier for authenticated users; callers
// handle anonymous separately.
func ParseTier(raw string) Tier {
	switch Tier(raw) {
	case TierFree, TierPro, TierEnterprise:
		return Tier(raw)
	default:
		return TierFree
	}
}

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email"`
	AppMetadata  map[string]interface{} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	Role         string                 `json:"role"` // "authenticated" or "anon"
	SessionID    string                 `json:"session_id"`
	IsAnonymous  bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// GetTier resolves the subscription tier from app_metadata, which is
// written by the billing webhook and therefore not user-editable.
func (c *SupabaseClaims) GetTier() Tier {
	if raw, ok := c.AppMetadata["subscription_tier"].(string); ok {
		return ParseTier(raw)
	}
	return TierFree
}

// Identity is the authenticated caller attached to a request context.
// A zero UserID means the caller is anonymous.
type Identity struct {
	UserID string
	Email  string
	Tier   Tier
}

// Authenticated reports whether the identity carries a verified user.
func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// AnonymousIdentity is the identity assigned to unauthenticated callers.
func AnonymousIdentity() Identity {
	return Identity{Tier: TierAnonymous}
}
