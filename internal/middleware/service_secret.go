package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
)

// secretHeader carries the shared secret on service-to-service calls
// (catalog sync triggers). These endpoints never accept user tokens.
const secretHeader = "X-Service-Secret"

// RequireServiceSecret guards internal endpoints with a shared secret.
// An empty configured secret disables the endpoints entirely rather
// than leaving them open.
func RequireServiceSecret(secret string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				httputil.RespondError(w, http.StatusNotFound, "not found")
				return
			}

			provided := r.Header.Get(secretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid service credential")
				return
			}

			next(w, r)
		}
	}
}
