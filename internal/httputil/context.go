package httputil

import (
	"context"
	"net/http"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches the authenticated caller to the request context
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the caller identity from the context. Requests
// that never passed the auth middleware resolve to the anonymous
// identity.
func GetIdentity(r *http.Request) models.Identity {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	if !ok {
		return models.AnonymousIdentity()
	}
	return id
}
