package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inkfold/internal/auth"
	"inkfold/internal/capabilities"
	"inkfold/internal/config"
	"inkfold/internal/domain/services"
	"inkfold/internal/handler"
	"inkfold/internal/middleware"
	"inkfold/internal/queue"
	"inkfold/internal/repository/postgres"
	postgresDocsys "inkfold/internal/repository/postgres/docsystem"
	"inkfold/internal/service"
	serviceAI "inkfold/internal/service/ai"
	serviceDocsys "inkfold/internal/service/docsystem"
	"inkfold/internal/service/docsystem/converter"
	"inkfold/internal/workspace"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := cfg.NewLogger("server")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"queue_enabled", cfg.QueueEnabled(),
	)

	ctx := context.Background()

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected", "max_conns", 25, "min_conns", 5)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresDocsys.NewFolderRepository(repoConfig)
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	settingsRepo := postgres.NewSettingsRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	docsysValidator := serviceDocsys.NewResourceValidator(folderRepo)
	folderService := serviceDocsys.NewFolderService(folderRepo, docsysValidator, logger)
	docService := serviceDocsys.NewDocumentService(docRepo, docsysValidator, logger)
	treeService := serviceDocsys.NewTreeService(folderRepo, logger)
	ingestService := serviceDocsys.NewIngestService(folderRepo, docRepo, txManager, converter.NewRegistry(), logger)
	settingsService := service.NewSettingsService(settingsRepo, logger)
	userService := service.NewUserService(auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey), logger)
	transformer := serviceAI.SetupTransformer(cfg, docService, settingsService, logger)

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}

	// Batch runner: Redis queue when configured, otherwise in-process
	var batchRunner services.BatchRunner
	if cfg.QueueEnabled() {
		redisOpt := queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		inspector := asynq.NewInspector(redisOpt)
		defer inspector.Close()
		batchRunner = queue.NewQueuedRunner(client, inspector, cfg.BatchResultRetention, logger)
		logger.Info("batch transforms queued", "redis", cfg.RedisAddr)
	} else {
		batchRunner = queue.NewInlineRunner(transformer, cfg.BatchResultRetention, logger)
		logger.Warn("REDIS_ADDR not set - batch transforms run inline")
	}

	if cfg.APISecret == "" {
		logger.Warn("API_SECRET not set - ingestion and keep-alive endpoints reject every request")
	}

	origins := strings.Split(cfg.CORSOrigins, ",")

	routes := &handler.Routes{
		Users:     handler.NewUserHandler(settingsService, userService, logger),
		Folders:   handler.NewFolderHandler(folderService, docService, logger),
		Tree:      handler.NewTreeHandler(treeService, logger),
		Documents: handler.NewDocumentHandler(docService, transformer, logger),
		Batches:   handler.NewBatchHandler(batchRunner, logger),
		AI:        handler.NewAIHandler(capabilityRegistry, settingsService, logger),
		Admin:     handler.NewAdminHandler(userService, logger),
		Ingest:    handler.NewIngestHandler(ingestService, logger),
		Workspace: handler.NewWorkspaceHandler(folderService, docService, transformer, origins, workspace.Options{}, logger),
		APISecret: cfg.APISecret,
		Logger:    logger,
	}

	mux := http.NewServeMux()
	routes.Register(mux)

	logger.Info("services initialized")

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Auth → Routes
	h = middleware.AuthMiddleware(middleware.AuthConfig{
		Verifier:          jwtVerifier,
		DefaultAdminEmail: cfg.DefaultAdminEmail,
		PublicPaths:       handler.PublicPaths,
		Logger:            logger,
	})(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled for long-lived WebSocket sessions and inline batches
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
