package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
)

// Recovery converts handler panics into 500 responses so one bad
// request cannot take the server down with it.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("request panicked",
						"panic", v,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
