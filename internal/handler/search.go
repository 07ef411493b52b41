package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/ratelimit"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/search"
)

// SearchHandler handles server-side conversation search.
type SearchHandler struct {
	client *search.ServerClient
	gate   Gatekeeper
	logger *slog.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(client *search.ServerClient, gate Gatekeeper, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		client: client,
		gate:   gate,
		logger: logger,
	}
}

// Search runs an authoritative search over the caller's conversations.
// GET /api/conversations/search?q=&limit=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	identity, res, ok := h.gate.admit(w, r, ratelimit.ClassSearch)
	if !ok {
		return
	}
	if !res.CanUseServerSearch {
		httputil.RespondError(w, http.StatusForbidden, "tier does not allow server search")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	results, err := h.client.Search(r.Context(), &models.SearchOptions{
		OwnerID: identity.UserID,
		Query:   r.URL.Query().Get("q"),
		Limit:   limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}
