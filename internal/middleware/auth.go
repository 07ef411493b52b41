package middleware

import (
	"net/http"
	"strings"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/auth"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
)

// Authenticate resolves the caller identity from the Authorization
// header. Requests without a token proceed as anonymous; requests with
// an invalid token are rejected outright (a bad credential is an
// error, not a downgrade to anonymous).
func Authenticate(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, httputil.WithIdentity(r, models.AnonymousIdentity()))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "malformed Authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			identity := models.Identity{
				UserID: claims.GetUserID(),
				Email:  claims.Email,
				Tier:   claims.GetTier(),
			}
			next.ServeHTTP(w, httputil.WithIdentity(r, identity))
		})
	}
}

// RequireAuth rejects anonymous callers. Applied per-route to the
// endpoints that operate on server-side conversation state.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !httputil.GetIdentity(r).Authenticated() {
			httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}
