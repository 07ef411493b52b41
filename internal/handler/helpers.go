// Package handler exposes the HTTP surface. Handlers only talk to
// services, never repositories directly.
package handler

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/metrics"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/ratelimit"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/tier"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var rateErr *domain.RateLimitError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrSyncInProgress):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rateErr):
		retryAfter := int(time.Until(rateErr.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		httputil.RespondErrorWithExtras(w, http.StatusTooManyRequests, rateErr.Error(), map[string]interface{}{
			"class":    rateErr.Class,
			"limit":    rateErr.Limit,
			"reset_at": rateErr.ResetAt,
		})
	case errors.Is(err, domain.ErrStoreUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "store temporarily unavailable")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam extracts a required path parameter, responding 400 when
// it is missing.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return v, true
}

// Gatekeeper resolves the caller's tier and charges the request
// against its rate budget. Shared by every tier-gated handler.
type Gatekeeper struct {
	resolver *tier.Resolver
	limiter  *ratelimit.Limiter
}

// NewGatekeeper creates a gatekeeper.
func NewGatekeeper(resolver *tier.Resolver, limiter *ratelimit.Limiter) Gatekeeper {
	return Gatekeeper{
		resolver: resolver,
		limiter:  limiter,
	}
}

// admit resolves the caller and consumes one request from the class
// budget. On rejection it writes the response itself and returns
// ok=false. Anonymous callers are keyed by client IP.
func (g *Gatekeeper) admit(w http.ResponseWriter, r *http.Request, class ratelimit.Class) (models.Identity, *tier.Resolution, bool) {
	identity := httputil.GetIdentity(r)

	res, err := g.resolver.ResolveFor(r.Context(), identity.Tier)
	if err != nil {
		handleError(w, err)
		return identity, nil, false
	}

	var limit int
	switch class {
	case ratelimit.ClassChat:
		limit = res.Limits.Chat
	case ratelimit.ClassSearch:
		limit = res.Limits.Search
	case ratelimit.ClassSync:
		limit = res.Limits.Sync
	}

	key := identity.UserID
	if key == "" {
		key = "anon:" + clientIP(r)
	}

	if err := g.limiter.Allow(key, class, limit, tier.RateWindow); err != nil {
		var rateErr *domain.RateLimitError
		if errors.As(err, &rateErr) {
			metrics.RateLimitRejections.WithLabelValues(string(class), string(identity.Tier)).Inc()
		}
		handleError(w, err)
		return identity, nil, false
	}

	return identity, res, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
