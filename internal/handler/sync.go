package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/catalogsync"
)

// SyncHandler exposes the internal catalog administration surface.
// Every route here sits behind the service-secret middleware.
type SyncHandler struct {
	syncer      *catalogsync.Syncer
	runRepo     repositories.SyncRunRepository
	catalogRepo repositories.CatalogRepository
	logger      *slog.Logger
}

// NewSyncHandler creates a sync admin handler.
func NewSyncHandler(
	syncer *catalogsync.Syncer,
	runRepo repositories.SyncRunRepository,
	catalogRepo repositories.CatalogRepository,
	logger *slog.Logger,
) *SyncHandler {
	return &SyncHandler{
		syncer:      syncer,
		runRepo:     runRepo,
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// TriggerSync runs one catalog sync immediately. A run already in
// progress yields 409.
// POST /internal/sync/models
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	run, err := h.syncer.Run(r.Context())
	if err != nil && run == nil {
		handleError(w, err)
		return
	}
	if err != nil {
		// The run executed but failed; return its record with the error.
		httputil.RespondJSON(w, http.StatusBadGateway, run)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, run)
}

// ListRuns returns recent sync run summaries, newest first.
// GET /internal/sync/runs?limit=
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.runRepo.ListRuns(r.Context(), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// ListCatalog returns every catalog entry regardless of status.
// GET /internal/models
func (h *SyncHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.catalogRepo.ListEntries(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

type setAccessRequest struct {
	Status       string `json:"status"`
	IsFree       bool   `json:"is_free"`
	IsPro        bool   `json:"is_pro"`
	IsEnterprise bool   `json:"is_enterprise"`
}

// SetAccess is the operator promotion path: it moves an entry between
// lifecycle states and assigns tier flags. Sync never touches these
// fields, so whatever is set here survives future syncs.
// PATCH /internal/models/{id}
func (h *SyncHandler) SetAccess(w http.ResponseWriter, r *http.Request) {
	modelID, ok := PathParam(w, r, "id", "Model ID")
	if !ok {
		return
	}

	var req setAccessRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := models.ModelStatus(req.Status)
	switch status {
	case models.StatusNew, models.StatusActive, models.StatusInactive, models.StatusDisabled:
	default:
		httputil.RespondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := h.catalogRepo.SetEntryAccess(r.Context(), modelID, status, req.IsFree, req.IsPro, req.IsEnterprise); err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("model access updated",
		"model_id", modelID,
		"status", string(status),
		"is_free", req.IsFree,
		"is_pro", req.IsPro,
		"is_enterprise", req.IsEnterprise,
	)

	entry, err := h.catalogRepo.GetEntry(r.Context(), modelID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entry)
}
