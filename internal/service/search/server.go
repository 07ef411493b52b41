package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/repositories"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/metrics"
)

// ServerClient runs searches against the authoritative store. It sees
// full message history, unlike the local engine, and reports the true
// match count alongside the capped result window.
type ServerClient struct {
	repo   repositories.ConversationRepository
	logger *slog.Logger
}

// NewServerClient creates a store-backed search client.
func NewServerClient(repo repositories.ConversationRepository, logger *slog.Logger) *ServerClient {
	return &ServerClient{
		repo:   repo,
		logger: logger,
	}
}

// Search validates the options and queries the store. Validation
// failures cost no I/O and no rate budget.
func (c *ServerClient) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	results, err := c.repo.SearchConversations(ctx, opts)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.SearchRequests.WithLabelValues("ok").Inc()
	c.logger.Debug("server search completed",
		"owner_id", opts.OwnerID,
		"returned", len(results.Results),
		"total_matches", results.TotalMatches,
	)

	return results, nil
}
