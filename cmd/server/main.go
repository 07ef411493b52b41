package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/auth"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/config"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/handler"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/middleware"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/ratelimit"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/repository/postgres"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/catalogsync"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/conversation"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/search"
	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/service/tier"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	convRepo := postgres.NewConversationRepository(repoConfig)
	catalogRepo := postgres.NewCatalogRepository(repoConfig)
	runRepo := postgres.NewSyncRunRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	policy, err := tier.NewPolicy()
	if err != nil {
		log.Fatalf("Failed to load tier policy: %v", err)
	}
	resolver := tier.NewResolver(policy, catalogRepo)
	limiter := ratelimit.New(logger)

	convService := conversation.NewService(convRepo, txManager, logger)
	searchClient := search.NewServerClient(convRepo, logger)

	fetcher := catalogsync.NewOpenRouterFetcher(cfg.OpenRouterBaseURL)
	syncer := catalogsync.NewSyncer(fetcher, catalogRepo, runRepo, txManager, logger)
	scheduler := catalogsync.NewScheduler(syncer, cfg.SyncInterval, logger)
	scheduler.Start(ctx)

	logger.Info("services initialized")

	convHandler := handler.NewConversationHandler(convService, handler.NewGatekeeper(resolver, limiter), logger)
	searchHandler := handler.NewSearchHandler(searchClient, handler.NewGatekeeper(resolver, limiter), logger)
	modelsHandler := handler.NewModelsHandler(resolver, logger)
	syncHandler := handler.NewSyncHandler(syncer, runRepo, catalogRepo, logger)
	healthHandler := handler.NewHealthHandler(pool)

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Model routes (anonymous allowed, tier-filtered)
	mux.HandleFunc("GET /api/models", modelsHandler.List)

	// Conversation routes (authenticated only)
	mux.HandleFunc("GET /api/conversations", middleware.RequireAuth(convHandler.List))
	mux.HandleFunc("POST /api/conversations", middleware.RequireAuth(convHandler.Create))
	mux.HandleFunc("GET /api/conversations/search", middleware.RequireAuth(searchHandler.Search)) // Must come before {id} route
	mux.HandleFunc("POST /api/conversations/import", middleware.RequireAuth(convHandler.Import))
	mux.HandleFunc("GET /api/conversations/{id}", middleware.RequireAuth(convHandler.Get))
	mux.HandleFunc("DELETE /api/conversations/{id}", middleware.RequireAuth(convHandler.Delete))
	mux.HandleFunc("GET /api/conversations/{id}/messages", middleware.RequireAuth(convHandler.Messages))
	mux.HandleFunc("POST /api/conversations/{id}/messages", middleware.RequireAuth(convHandler.AppendMessage))

	// Internal service-to-service routes
	requireSecret := middleware.RequireServiceSecret(cfg.SyncSecret)
	mux.HandleFunc("POST /internal/sync/models", requireSecret(syncHandler.TriggerSync))
	mux.HandleFunc("GET /internal/sync/runs", requireSecret(syncHandler.ListRuns))
	mux.HandleFunc("GET /internal/models", requireSecret(syncHandler.ListCatalog))
	mux.HandleFunc("PATCH /internal/models/{id}", requireSecret(syncHandler.SetAccess))

	// Middleware chain, applied in reverse order
	// Order: CORS -> Metrics -> Recovery -> Auth -> Routes
	var root http.Handler = mux
	root = middleware.Authenticate(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.Metrics(root)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
