// Package catalogsync reconciles the local model catalog against the
// external model registry.
package catalogsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
)

// Fetcher retrieves the external registry's current model list.
type Fetcher interface {
	FetchModels(ctx context.Context) ([]models.CatalogEntry, error)
}

// openRouterModel is the wire shape of one model in the OpenRouter
// /api/v1/models response.
type openRouterModel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ContextLength int    `json:"context_length"`
	Pricing       struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	} `json:"pricing"`
}

type openRouterResponse struct {
	Data []openRouterModel `json:"data"`
}

// OpenRouterFetcher fetches the model list from the OpenRouter API.
type OpenRouterFetcher struct {
	baseURL string
	client  *http.Client
}

// NewOpenRouterFetcher creates a fetcher against the given base URL.
func NewOpenRouterFetcher(baseURL string) *OpenRouterFetcher {
	return &OpenRouterFetcher{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchModels retrieves and decodes the current model list. Only
// metadata comes from the wire; status and tier flags are local
// concerns the registry knows nothing about.
func (f *OpenRouterFetcher) FetchModels(ctx context.Context) ([]models.CatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/api/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch models: unexpected status %d", resp.StatusCode)
	}

	var decoded openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	entries := make([]models.CatalogEntry, 0, len(decoded.Data))
	for _, m := range decoded.Data {
		if m.ID == "" {
			continue
		}
		entries = append(entries, models.CatalogEntry{
			ModelID:         m.ID,
			Name:            m.Name,
			Description:     m.Description,
			ContextLength:   m.ContextLength,
			PromptPrice:     m.Pricing.Prompt,
			CompletionPrice: m.Pricing.Completion,
		})
	}

	return entries, nil
}
