package catalogsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/models" {
			t.Errorf("path = %s, want /api/v1/models", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{
					"id": "openai/gpt-4o-mini",
					"name": "GPT-4o mini",
					"description": "Small model",
					"context_length": 128000,
					"pricing": {"prompt": "0.00000015", "completion": "0.0000006"}
				},
				{"id": "", "name": "malformed entry without id"},
				{"id": "deepseek/deepseek-r1:free", "name": "DeepSeek R1"}
			]
		}`))
	}))
	defer srv.Close()

	f := NewOpenRouterFetcher(srv.URL)
	entries, err := f.FetchModels(context.Background())
	if err != nil {
		t.Fatalf("FetchModels() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (id-less entry dropped)", len(entries))
	}
	e := entries[0]
	if e.ModelID != "openai/gpt-4o-mini" || e.ContextLength != 128000 {
		t.Errorf("entry = %+v", e)
	}
	if e.PromptPrice != "0.00000015" || e.CompletionPrice != "0.0000006" {
		t.Errorf("pricing = %q / %q", e.PromptPrice, e.CompletionPrice)
	}
	if e.Status != "" || e.IsFree {
		t.Error("fetcher must not assign status or tier flags")
	}
}

func TestFetchModelsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewOpenRouterFetcher(srv.URL)
	if _, err := f.FetchModels(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestFetchModelsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	f := NewOpenRouterFetcher(srv.URL)
	if _, err := f.FetchModels(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
