package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/ratelimit"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/conversation"
)

// ConversationHandler handles conversation HTTP requests.
type ConversationHandler struct {
	service *conversation.Service
	gate    Gatekeeper
	logger  *slog.Logger
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(
	service *conversation.Service,
	gate Gatekeeper,
	logger *slog.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		gate:    gate,
		logger:  logger,
	}
}

// fullPage mirrors models.Page with messages included, for
// summary_only=false responses.
type fullPage struct {
	Conversations []models.Conversation `json:"conversations"`
	NextCursor    string                `json:"next_cursor,omitempty"`
	HasMore       bool                  `json:"has_more"`
}

// List returns one page of the caller's conversations.
// GET /api/conversations?cursor=&limit=&summary_only=
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	page, err := h.service.List(r.Context(), identity.UserID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	if r.URL.Query().Get("summary_only") == "false" {
		full := fullPage{
			Conversations: make([]models.Conversation, 0, len(page.Conversations)),
			NextCursor:    page.NextCursor,
			HasMore:       page.HasMore,
		}
		for _, summ := range page.Conversations {
			conv, err := h.service.Get(r.Context(), summ.ID, identity.UserID, nil)
			if err != nil {
				handleError(w, err)
				return
			}
			full.Conversations = append(full.Conversations, *conv)
		}
		httputil.RespondJSON(w, http.StatusOK, full)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

type createConversationRequest struct {
	Title string `json:"title"`
}

// Create creates an empty conversation.
// POST /api/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := h.gate.admit(w, r, ratelimit.ClassChat)
	if !ok {
		return
	}

	var req createConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := h.service.Create(r.Context(), &conversation.CreateRequest{
		OwnerID: identity.UserID,
		Title:   req.Title,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// Get retrieves a conversation with messages.
// GET /api/conversations/{id}?since=RFC3339
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	convID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}
	identity := httputil.GetIdentity(r)

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		since = &t
	}

	conv, err := h.service.Get(r.Context(), convID, identity.UserID, since)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, conv)
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// Messages returns a conversation's messages, optionally only those
// after a given timestamp for incremental fetches.
// GET /api/conversations/{id}/messages?since=RFC3339
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	convID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}
	identity := httputil.GetIdentity(r)

	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		since = &t
	}

	conv, err := h.service.Get(r.Context(), convID, identity.UserID, since)
	if err != nil {
		handleError(w, err)
		return
	}

	msgs := conv.Messages
	if msgs == nil {
		msgs = []models.Message{}
	}
	httputil.RespondJSON(w, http.StatusOK, messagesResponse{Messages: msgs})
}

type appendMessageRequest struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	Model            string `json:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	CompletionID     string `json:"completion_id,omitempty"`
	ElapsedMs        int64  `json:"elapsed_ms,omitempty"`
}

// AppendMessage adds a message to a conversation.
// POST /api/conversations/{id}/messages
func (h *ConversationHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	convID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}

	identity, res, ok := h.gate.admit(w, r, ratelimit.ClassChat)
	if !ok {
		return
	}

	var req appendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.service.Append(r.Context(), &conversation.AppendRequest{
		OwnerID:          identity.UserID,
		ConversationID:   convID,
		Role:             models.MessageRole(req.Role),
		Content:          req.Content,
		Model:            req.Model,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		CompletionID:     req.CompletionID,
		ElapsedMs:        req.ElapsedMs,
	}, res)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, msg)
}

// Delete soft-deletes a conversation.
// DELETE /api/conversations/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	convID, ok := PathParam(w, r, "id", "Conversation ID")
	if !ok {
		return
	}
	identity := httputil.GetIdentity(r)

	if err := h.service.Delete(r.Context(), convID, identity.UserID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Conversations []models.Conversation `json:"conversations"`
}

type importResponse struct {
	Imported []models.Conversation `json:"imported"`
	Count    int                   `json:"count"`
}

// Import persists locally held conversations after sign-in. This only
// runs on explicit request, never implicitly on login.
// POST /api/conversations/import
func (h *ConversationHandler) Import(w http.ResponseWriter, r *http.Request) {
	identity, res, ok := h.gate.admit(w, r, ratelimit.ClassSync)
	if !ok {
		return
	}
	if !res.CanSyncConversations {
		httputil.RespondError(w, http.StatusForbidden, "tier does not allow conversation sync")
		return
	}

	var req importRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Conversations) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "conversations is required")
		return
	}

	imported, err := h.service.Import(r.Context(), identity.UserID, req.Conversations)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, importResponse{
		Imported: imported,
		Count:    len(imported),
	})
}
