// Package conversation implements conversation session management:
// listing with cursor pagination, message append, import and deletion.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/config"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/tier"
)

// DefaultTitle names conversations created without one.
const DefaultTitle = "New Conversation"

// Service handles conversation CRUD and import on top of the
// repository layer. All operations are scoped to the calling owner.
type Service struct {
	repo      repositories.ConversationRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewService creates a conversation service.
func NewService(
	repo repositories.ConversationRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateRequest carries the inputs for creating a conversation.
type CreateRequest struct {
	OwnerID string
	Title   string
}

// AppendRequest carries the inputs for appending a message.
type AppendRequest struct {
	OwnerID          string
	ConversationID   string
	Role             models.MessageRole
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CompletionID     string
	ElapsedMs        int64
}

// List returns one page of the owner's conversations, newest first.
// An empty cursor token means the first page; a malformed one is a
// validation error, never an empty result.
func (s *Service) List(ctx context.Context, ownerID, cursorToken string, pageSize int) (*models.Page, error) {
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}

	cursor, err := models.DecodeCursor(cursorToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.repo.ListPage(ctx, ownerID, pageSize, cursor)
}

// Create creates an empty conversation. A blank title falls back to
// the default.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.Conversation, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		Title:         title,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("conversation created",
		"id", conv.ID,
		"owner_id", conv.OwnerID,
	)

	return conv, nil
}

// Get retrieves a conversation with its messages populated, optionally
// restricted to messages strictly newer than since.
func (s *Service) Get(ctx context.Context, convID, ownerID string, since *time.Time) (*models.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, convID, ownerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.repo.ListMessages(ctx, convID, ownerID, since)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs

	return conv, nil
}

// Append adds a message to a conversation. Assistant messages must
// name a model permitted by the caller's resolved tier; a disallowed
// model is a permission failure, not a validation one.
func (s *Service) Append(ctx context.Context, req *AppendRequest, res *tier.Resolution) (*models.Message, error) {
	if err := s.validateAppendRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.Role == models.RoleAssistant && !res.AllowsModel(req.Model) {
		return nil, fmt.Errorf("model %q not available on tier %s: %w", req.Model, res.Tier, domain.ErrForbidden)
	}
	if total := req.PromptTokens + req.CompletionTokens; total > res.MaxTokensPerRequest {
		return nil, fmt.Errorf("token count %d exceeds tier ceiling %d: %w", total, res.MaxTokensPerRequest, domain.ErrForbidden)
	}

	msg := &models.Message{
		ID:               uuid.NewString(),
		SessionID:        req.ConversationID,
		Role:             req.Role,
		Content:          req.Content,
		Model:            req.Model,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
		CompletionID:     req.CompletionID,
		ElapsedMs:        req.ElapsedMs,
		Timestamp:        time.Now().UTC(),
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		return s.repo.AppendMessage(ctx, req.ConversationID, req.OwnerID, msg)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("message appended",
		"conversation_id", req.ConversationID,
		"message_id", msg.ID,
		"role", string(msg.Role),
	)

	return msg, nil
}

// Delete soft-deletes a conversation.
func (s *Service) Delete(ctx context.Context, convID, ownerID string) error {
	if err := s.repo.DeleteConversation(ctx, convID, ownerID); err != nil {
		return err
	}

	s.logger.Info("conversation deleted",
		"id", convID,
		"owner_id", ownerID,
	)

	return nil
}

// Import persists locally held conversations for a user who just
// signed in. Every conversation and message gets a fresh server-side
// ID; counts and previews are recomputed from the imported messages
// rather than trusted from the client. Each conversation imports in
// its own transaction so one bad record cannot sink the batch.
func (s *Service) Import(ctx context.Context, ownerID string, convs []models.Conversation) ([]models.Conversation, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", domain.ErrValidation)
	}

	imported := make([]models.Conversation, 0, len(convs))
	for i := range convs {
		conv, err := s.importOne(ctx, ownerID, &convs[i])
		if err != nil {
			return imported, fmt.Errorf("import conversation %d: %w", i, err)
		}
		imported = append(imported, *conv)
	}

	s.logger.Info("conversations imported",
		"owner_id", ownerID,
		"count", len(imported),
	)

	return imported, nil
}

func (s *Service) importOne(ctx context.Context, ownerID string, src *models.Conversation) (*models.Conversation, error) {
	title := strings.TrimSpace(src.Title)
	if title == "" {
		title = DefaultTitle
	}
	// Truncate on a rune boundary so multibyte titles never get split
	// mid-character.
	if runes := []rune(title); len(runes) > config.MaxConversationTitleLength {
		title = string(runes[:config.MaxConversationTitleLength])
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Title:         title,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateConversation(ctx, conv); err != nil {
			return err
		}

		for j := range src.Messages {
			m := src.Messages[j]
			if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
				return fmt.Errorf("%w: message %d: unknown role %q", domain.ErrValidation, j, m.Role)
			}
			if strings.TrimSpace(m.Content) == "" {
				return fmt.Errorf("%w: message %d: content required", domain.ErrValidation, j)
			}

			msg := &models.Message{
				ID:               uuid.NewString(),
				SessionID:        conv.ID,
				Role:             m.Role,
				Content:          m.Content,
				Model:            m.Model,
				PromptTokens:     m.PromptTokens,
				CompletionTokens: m.CompletionTokens,
				CompletionID:     m.CompletionID,
				ElapsedMs:        m.ElapsedMs,
				Timestamp:        m.Timestamp,
			}
			if msg.Timestamp.IsZero() {
				msg.Timestamp = now
			}

			if err := s.repo.AppendMessage(ctx, conv.ID, ownerID, msg); err != nil {
				return err
			}
			conv.MessageCount++
			conv.LastMessagePreview = models.PreviewOf(msg.Content)
			conv.LastMessageAt = msg.Timestamp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return conv, nil
}

// Validation methods

func (s *Service) validateCreateRequest(req *CreateRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Title, validation.RuneLength(0, config.MaxConversationTitleLength)),
	)
}

func (s *Service) validateAppendRequest(req *AppendRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.ConversationID, validation.Required),
		validation.Field(&req.Role, validation.Required, validation.In(models.RoleUser, models.RoleAssistant)),
		validation.Field(&req.Content, validation.Required, validation.RuneLength(1, config.MaxMessageLength)),
		validation.Field(&req.Model, validation.Required.When(req.Role == models.RoleAssistant)),
	)
}
