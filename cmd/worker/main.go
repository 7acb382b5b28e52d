package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"inkfold/internal/config"
	"inkfold/internal/queue"
	"inkfold/internal/repository/postgres"
	postgresDocsys "inkfold/internal/repository/postgres/docsystem"
	"inkfold/internal/service"
	serviceAI "inkfold/internal/service/ai"
	serviceDocsys "inkfold/internal/service/docsystem"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	cfg := config.Load()
	if !cfg.QueueEnabled() {
		log.Fatalf("REDIS_ADDR is required for the worker")
	}

	logger, logCloser, err := cfg.NewLogger("worker")
	if err != nil {
		log.Fatalf("set up logging: %v", err)
	}
	defer logCloser.Close()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	folderRepo := postgresDocsys.NewFolderRepository(repoConfig)
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	settingsRepo := postgres.NewSettingsRepository(repoConfig)

	docService := serviceDocsys.NewDocumentService(docRepo, serviceDocsys.NewResourceValidator(folderRepo), logger)
	settingsService := service.NewSettingsService(settingsRepo, logger)
	transformer := serviceAI.SetupTransformer(cfg, docService, settingsService, logger)

	server := asynq.NewServer(queue.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{queue.AIQueue: 1},
	})
	processor := queue.NewProcessor(transformer, logger)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info("worker starting",
		"redis", cfg.RedisAddr,
		"concurrency", cfg.WorkerConcurrency,
		"table_prefix", cfg.TablePrefix,
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
