package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
)

// PostgresConversationRepository implements ConversationRepository
// using PostgreSQL
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewConversationRepository creates a new PostgresConversationRepository
func NewConversationRepository(config *RepositoryConfig) repositories.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const conversationColumns = `id, owner_id, title, message_count,
	COALESCE(last_message_preview, ''), last_message_at, created_at, updated_at`

// CreateConversation inserts a new conversation in summary form
func (r *PostgresConversationRepository) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, title, message_count, last_message_preview, last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		conv.ID,
		conv.OwnerID,
		conv.Title,
		conv.MessageCount,
		conv.LastMessagePreview,
		conv.LastMessageAt,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("conversation %s: %w", conv.ID, domain.ErrConflict)
		}
		return r.wrap("create conversation", err)
	}

	return nil
}

// GetConversation retrieves a conversation summary by ID
func (r *PostgresConversationRepository) GetConversation(ctx context.Context, convID, ownerID string) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`, conversationColumns, r.tables.Conversations)

	var conv models.Conversation
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, convID, ownerID).Scan(
		&conv.ID,
		&conv.OwnerID,
		&conv.Title,
		&conv.MessageCount,
		&conv.LastMessagePreview,
		&conv.LastMessageAt,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("conversation %s: %w", convID, domain.ErrNotFound)
		}
		return nil, r.wrap("get conversation", err)
	}

	return &conv, nil
}

// ListPage fetches one page of summaries in (last_message_at DESC, id
// DESC) order, strictly after the cursor row. Postgres row comparison
// gives the composite strict inequality, so retrying with the same
// cursor returns the same page and concurrent inserts above the cursor
// never shift it.
func (r *PostgresConversationRepository) ListPage(ctx context.Context, ownerID string, limit int, cursor *models.Cursor) (*models.Page, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND deleted_at IS NULL
	`, conversationColumns, r.tables.Conversations)

	args := []interface{}{ownerID}
	if cursor != nil {
		query += ` AND (last_message_at, id) < ($2, $3)`
		args = append(args, cursor.LastMessageAt, cursor.ID)
	}

	// Fetch one extra row to detect whether more pages exist
	query += fmt.Sprintf(` ORDER BY last_message_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit+1)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("list conversations", err)
	}
	defer rows.Close()

	summaries := []models.ConversationSummary{}
	for rows.Next() {
		var s models.ConversationSummary
		err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Title,
			&s.MessageCount,
			&s.LastMessagePreview,
			&s.LastMessageAt,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, r.wrap("scan conversation", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("iterate conversations", err)
	}

	page := &models.Page{Conversations: summaries}
	if len(summaries) > limit {
		page.Conversations = summaries[:limit]
		page.HasMore = true
		last := page.Conversations[limit-1]
		page.NextCursor = models.Cursor{LastMessageAt: last.LastMessageAt, ID: last.ID}.Encode()
	}

	return page, nil
}

// ListMessages retrieves a conversation's messages ordered by timestamp
// ascending, scoped to the owner through the conversation row
func (r *PostgresConversationRepository) ListMessages(ctx context.Context, convID, ownerID string, since *time.Time) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.session_id, m.role, m.content,
		       COALESCE(m.model, ''), COALESCE(m.prompt_tokens, 0), COALESCE(m.completion_tokens, 0),
		       COALESCE(m.completion_id, ''), COALESCE(m.elapsed_ms, 0), m.created_at
		FROM %s m
		JOIN %s c ON c.id = m.session_id
		WHERE m.session_id = $1 AND c.owner_id = $2 AND c.deleted_at IS NULL
	`, r.tables.Messages, r.tables.Conversations)

	args := []interface{}{convID, ownerID}
	if since != nil {
		query += ` AND m.created_at > $3`
		args = append(args, *since)
	}
	query += ` ORDER BY m.created_at ASC, m.id ASC`

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("list messages", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.Role,
			&m.Content,
			&m.Model,
			&m.PromptTokens,
			&m.CompletionTokens,
			&m.CompletionID,
			&m.ElapsedMs,
			&m.Timestamp,
		)
		if err != nil {
			return nil, r.wrap("scan message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("iterate messages", err)
	}

	return messages, nil
}

// AppendMessage inserts the message and refreshes the conversation's
// denormalized fields. Callers run this inside a transaction so the
// two statements apply atomically.
func (r *PostgresConversationRepository) AppendMessage(ctx context.Context, convID, ownerID string, msg *models.Message) error {
	executor := GetExecutor(ctx, r.pool)

	insert := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, role, content, model, prompt_tokens, completion_tokens, completion_id, elapsed_ms, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, 0), NULLIF($7, 0), NULLIF($8, ''), NULLIF($9, 0), $10)
	`, r.tables.Messages)

	_, err := executor.Exec(ctx, insert,
		msg.ID,
		convID,
		msg.Role,
		msg.Content,
		msg.Model,
		msg.PromptTokens,
		msg.CompletionTokens,
		msg.CompletionID,
		msg.ElapsedMs,
		msg.Timestamp,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %s: %w", convID, domain.ErrNotFound)
		}
		return r.wrap("insert message", err)
	}

	update := fmt.Sprintf(`
		UPDATE %s
		SET message_count = message_count + 1,
		    last_message_preview = NULLIF($1, ''),
		    last_message_at = $2,
		    updated_at = $3
		WHERE id = $4 AND owner_id = $5 AND deleted_at IS NULL
	`, r.tables.Conversations)

	tag, err := executor.Exec(ctx, update,
		models.PreviewOf(msg.Content),
		msg.Timestamp,
		time.Now().UTC(),
		convID,
		ownerID,
	)
	if err != nil {
		return r.wrap("update conversation after append", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", convID, domain.ErrNotFound)
	}

	return nil
}

// SearchConversations matches the owner's conversations by title or
// message content. Ordering is recency, not relevance: results follow
// the same (last_message_at DESC, id DESC) order as the normal list so
// searching never reshuffles familiar conversations.
func (r *PostgresConversationRepository) SearchConversations(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	pattern := likePattern(opts.Query)

	matchClause := fmt.Sprintf(`
		c.owner_id = $1 AND c.deleted_at IS NULL
		AND (c.title ILIKE $2 OR EXISTS (
			SELECT 1 FROM %s m WHERE m.session_id = c.id AND m.content ILIKE $2
		))
	`, r.tables.Messages)

	executor := GetExecutor(ctx, r.pool)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s c WHERE %s`, r.tables.Conversations, matchClause)
	var total int
	if err := executor.QueryRow(ctx, countQuery, opts.OwnerID, pattern).Scan(&total); err != nil {
		return nil, r.wrap("count search matches", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT c.id, c.owner_id, c.title, c.message_count,
		       COALESCE(c.last_message_preview, ''), c.last_message_at, c.created_at, c.updated_at
		FROM %s c
		WHERE %s
		ORDER BY c.last_message_at DESC, c.id DESC
		LIMIT $3
	`, r.tables.Conversations, matchClause)

	rows, err := executor.Query(ctx, pageQuery, opts.OwnerID, pattern, opts.Limit)
	if err != nil {
		return nil, r.wrap("search conversations", err)
	}
	defer rows.Close()

	results := []models.ConversationSummary{}
	for rows.Next() {
		var s models.ConversationSummary
		err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.Title,
			&s.MessageCount,
			&s.LastMessagePreview,
			&s.LastMessageAt,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, r.wrap("scan search result", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("iterate search results", err)
	}

	return &models.SearchResults{Results: results, TotalMatches: total}, nil
}

// DeleteConversation soft-deletes a conversation
func (r *PostgresConversationRepository) DeleteConversation(ctx context.Context, convID, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND owner_id = $3 AND deleted_at IS NULL
	`, r.tables.Conversations)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, time.Now().UTC(), convID, ownerID)
	if err != nil {
		return r.wrap("delete conversation", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", convID, domain.ErrNotFound)
	}

	return nil
}

// wrap classifies infrastructure failures as retryable store outages
// and annotates everything else with the operation name.
func (r *PostgresConversationRepository) wrap(op string, err error) error {
	if IsTransientError(err) {
		r.logger.Warn("transient database failure", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// likePattern builds a substring ILIKE pattern, escaping the LIKE
// metacharacters in user input.
func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return "%" + escaped + "%"
}
