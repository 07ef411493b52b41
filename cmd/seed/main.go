package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/config"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/domain/models"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/repository/postgres"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/conversation"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	seedUserID := os.Getenv("SEED_USER_ID")
	if seedUserID == "" {
		seedUserID = "00000000-0000-0000-0000-000000000001"
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	convRepo := postgres.NewConversationRepository(repoConfig)
	catalogRepo := postgres.NewCatalogRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)
	convService := conversation.NewService(convRepo, txManager, logger)

	log.Println("Seeding model catalog...")
	for _, m := range seedModels() {
		entry := m.entry
		if _, err := catalogRepo.UpsertEntry(ctx, &entry); err != nil {
			log.Printf("Failed to upsert model %s: %v", entry.ModelID, err)
			continue
		}
		if err := catalogRepo.SetEntryAccess(ctx, entry.ModelID, m.status, m.isFree, m.isPro, m.isEnterprise); err != nil {
			log.Printf("Failed to set access for %s: %v", entry.ModelID, err)
			continue
		}
		log.Printf("Seeded model %s (status=%s free=%t pro=%t enterprise=%t)",
			entry.ModelID, m.status, m.isFree, m.isPro, m.isEnterprise)
	}

	log.Println("Seeding demo conversations...")
	demo := seedConversations(seedUserID)
	imported, err := convService.Import(ctx, seedUserID, demo)
	if err != nil {
		log.Fatalf("Failed to seed conversations: %v", err)
	}
	log.Printf("Seeded %d conversations for user %s", len(imported), seedUserID)

	log.Println("Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createConversations := `
		CREATE TABLE IF NOT EXISTS ` + tables.Conversations + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			title VARCHAR(255) NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0,
			last_message_preview TEXT,
			last_message_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createConversations); err != nil {
		return err
	}

	createMessages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Messages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID NOT NULL REFERENCES ` + tables.Conversations + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			model TEXT,
			prompt_tokens INTEGER,
			completion_tokens INTEGER,
			completion_id TEXT,
			elapsed_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createMessages); err != nil {
		return err
	}

	createCatalog := `
		CREATE TABLE IF NOT EXISTS ` + tables.ModelCatalog + ` (
			model_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			context_length INTEGER NOT NULL DEFAULT 0,
			prompt_price TEXT NOT NULL DEFAULT '',
			completion_price TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'new',
			is_free BOOLEAN NOT NULL DEFAULT FALSE,
			is_pro BOOLEAN NOT NULL DEFAULT FALSE,
			is_enterprise BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createCatalog); err != nil {
		return err
	}

	createSyncRuns := `
		CREATE TABLE IF NOT EXISTS ` + tables.SyncRuns + ` (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL,
			added INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			marked_inactive INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			error TEXT,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createSyncRuns); err != nil {
		return err
	}

	indexes := []string{
		// Covers the keyset pagination scan
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `conversations_owner_recency ON ` + tables.Conversations + `(owner_id, last_message_at DESC, id DESC) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_session_created ON ` + tables.Messages + `(session_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sync_runs_started ON ` + tables.SyncRuns + `(started_at DESC)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Messages,
		tables.Conversations,
		tables.ModelCatalog,
		tables.SyncRuns,
	}

	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  Dropped %s", table)
	}

	return nil
}

type seedModel struct {
	entry        models.CatalogEntry
	status       models.ModelStatus
	isFree       bool
	isPro        bool
	isEnterprise bool
}

func seedModels() []seedModel {
	return []seedModel{
		{
			entry: models.CatalogEntry{
				ModelID:         "deepseek/deepseek-r1:free",
				Name:            "DeepSeek R1 (free)",
				Description:     "Open reasoning model, free variant",
				ContextLength:   64000,
				PromptPrice:     "0",
				CompletionPrice: "0",
			},
			status: models.StatusActive,
			isFree: true,
		},
		{
			entry: models.CatalogEntry{
				ModelID:         "google/gemini-2.0-flash-001",
				Name:            "Gemini 2.0 Flash",
				Description:     "Fast general-purpose model",
				ContextLength:   1000000,
				PromptPrice:     "0.0000001",
				CompletionPrice: "0.0000004",
			},
			status: models.StatusActive,
			isPro:  true,
		},
		{
			entry: models.CatalogEntry{
				ModelID:         "anthropic/claude-sonnet-4",
				Name:            "Claude Sonnet 4",
				Description:     "High-quality general model",
				ContextLength:   200000,
				PromptPrice:     "0.000003",
				CompletionPrice: "0.000015",
			},
			status:       models.StatusActive,
			isEnterprise: true,
		},
		{
			entry: models.CatalogEntry{
				ModelID:         "openai/gpt-4o-mini",
				Name:            "GPT-4o mini",
				Description:     "Small, inexpensive model",
				ContextLength:   128000,
				PromptPrice:     "0.00000015",
				CompletionPrice: "0.0000006",
			},
			status: models.StatusActive,
			isFree: true,
		},
		{
			// Left in "new" state to exercise the operator promotion flow
			entry: models.CatalogEntry{
				ModelID:         "mistralai/mistral-large",
				Name:            "Mistral Large",
				Description:     "Flagship Mistral model",
				ContextLength:   128000,
				PromptPrice:     "0.000002",
				CompletionPrice: "0.000006",
			},
			status: models.StatusNew,
		},
	}
}

func seedConversations(ownerID string) []models.Conversation {
	base := time.Now().UTC().Add(-48 * time.Hour)
	return []models.Conversation{
		{
			Title: "Trip planning for Kyoto",
			Messages: []models.Message{
				{Role: models.RoleUser, Content: "What are the best neighborhoods to stay in Kyoto for a first visit?", Timestamp: base},
				{Role: models.RoleAssistant, Content: "For a first visit, Gion and Higashiyama put you near the historic districts, while downtown Kawaramachi is best for food and transit access.", Model: "openai/gpt-4o-mini", PromptTokens: 24, CompletionTokens: 41, Timestamp: base.Add(time.Minute)},
			},
		},
		{
			Title: "Debugging a flaky integration test",
			Messages: []models.Message{
				{Role: models.RoleUser, Content: "My test passes alone but fails in the full suite. Where do I start?", Timestamp: base.Add(6 * time.Hour)},
				{Role: models.RoleAssistant, Content: "Shared state is the usual culprit. Check for package-level variables, leaked goroutines, and test order dependence first.", Model: "deepseek/deepseek-r1:free", PromptTokens: 30, CompletionTokens: 38, Timestamp: base.Add(6*time.Hour + time.Minute)},
			},
		},
		{
			Title: "Dinner ideas",
			Messages: []models.Message{
				{Role: models.RoleUser, Content: "Quick vegetarian dinner with chickpeas and spinach?", Timestamp: base.Add(30 * time.Hour)},
				{Role: models.RoleAssistant, Content: "Try a chana saag: saute onion and garlic, add cumin and garam masala, then chickpeas, tomatoes, and spinach. Twenty minutes start to finish.", Model: "openai/gpt-4o-mini", PromptTokens: 18, CompletionTokens: 45, Timestamp: base.Add(30*time.Hour + time.Minute)},
			},
		},
	}
}
