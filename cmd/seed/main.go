package main

import (
	"context"
	"flag"
	"log"

	"inkfold/internal/auth"
	"inkfold/internal/config"
	"inkfold/internal/repository/postgres"
	postgresDocsys "inkfold/internal/repository/postgres/docsystem"
	"inkfold/internal/seed"
	"inkfold/internal/service"
	serviceDocsys "inkfold/internal/service/docsystem"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema and the default admin, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Clear the default admin's folders and documents (keep schema)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production")
	}

	logger, logCloser, err := cfg.NewLogger("seed")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	logger.Info("seed starting",
		"environment", cfg.Environment,
		"table_prefix", cfg.TablePrefix,
		"drop_tables", *dropTables,
		"schema_only", *schemaOnly,
		"clear_data", *clearData,
	)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		if err := postgres.DropAllTables(ctx, pool, tables, logger); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready")

	// The default admin owns the sample workspace
	users := service.NewUserService(auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey), logger)
	admin, err := users.EnsureDefaultAdmin(ctx, cfg.DefaultAdminEmail, cfg.DefaultAdminPassword)
	if err != nil {
		log.Fatalf("Failed to ensure default admin: %v", err)
	}
	logger.Info("default admin ready", "id", admin.ID, "email", admin.Email)

	if *schemaOnly {
		logger.Info("schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		n, err := seed.ClearUserData(ctx, pool, tables, admin.ID)
		if err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("data cleared", "folders", n)
		return
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	folderRepo := postgresDocsys.NewFolderRepository(repoConfig)
	docRepo := postgresDocsys.NewDocumentRepository(repoConfig)
	validator := serviceDocsys.NewResourceValidator(folderRepo)

	seeder := seed.NewSeeder(
		serviceDocsys.NewFolderService(folderRepo, validator, logger),
		serviceDocsys.NewDocumentService(docRepo, validator, logger),
		logger,
	)
	stats, err := seeder.SeedWorkspace(ctx, admin.ID)
	if err != nil {
		log.Fatalf("Failed to seed workspace: %v", err)
	}
	logger.Info("seeding complete", "created", stats.Created, "existing", stats.Existing)
}
