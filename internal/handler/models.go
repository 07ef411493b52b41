package handler

import (
	"log/slog"
	"net/http"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/tier"
)

// ModelsHandler serves the tier-filtered model list.
type ModelsHandler struct {
	resolver *tier.Resolver
	logger   *slog.Logger
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(resolver *tier.Resolver, logger *slog.Logger) *ModelsHandler {
	return &ModelsHandler{
		resolver: resolver,
		logger:   logger,
	}
}

type modelInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	ContextLength   int    `json:"context_length"`
	PromptPrice     string `json:"prompt_price"`
	CompletionPrice string `json:"completion_price"`
}

type modelsResponse struct {
	Tier   string      `json:"tier"`
	Models []modelInfo `json:"models"`
}

// List returns the models available to the caller's tier. Anonymous
// callers see the free set.
// GET /api/models
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	snapshot, err := h.resolver.Snapshot(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	available := make([]modelInfo, 0)
	for i := range snapshot {
		e := &snapshot[i]
		if !e.AvailableTo(identity.Tier) {
			continue
		}
		available = append(available, modelInfo{
			ID:              e.ModelID,
			Name:            e.Name,
			Description:     e.Description,
			ContextLength:   e.ContextLength,
			PromptPrice:     e.PromptPrice,
			CompletionPrice: e.CompletionPrice,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, modelsResponse{
		Tier:   string(identity.Tier),
		Models: available,
	})
}
