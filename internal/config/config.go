package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins     string
	TablePrefix     string

	// Shared secret for the ingestion API and the keep-alive cron
	APISecret string

	// Default admin, provisioned by cmd/seed and always treated as admin
	DefaultAdminEmail    string
	DefaultAdminPassword string

	// Queue (batch transforms run inline when RedisAddr is empty)
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	BatchResultRetention time.Duration
	WorkerConcurrency    int // batches processed in parallel; each batch stays sequential

	// Model endpoint timeout for a single transform
	ModelTimeout time.Duration

	// Optional log file mirroring
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          env,
		SupabaseURL:          supabaseURL,
		SupabaseKey:          getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:        getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:      jwksURL,
		CORSOrigins:          getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:          tablePrefix,
		APISecret:            getEnv("API_SECRET", ""),
		DefaultAdminEmail:    getEnv("DEFAULT_EMAIL", ""),
		DefaultAdminPassword: getEnv("DEFAULT_PASSWORD", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		BatchResultRetention: getEnvDuration("BATCH_RESULT_RETENTION", time.Hour),
		WorkerConcurrency:    getEnvInt("WORKER_CONCURRENCY", 2),
		ModelTimeout:         getEnvDuration("MODEL_TIMEOUT", 2*time.Minute),
		LogDir:               getEnv("LOG_DIR", ""),
		LogMaxFiles:          getEnvInt("LOG_MAX_FILES", 10),
	}
}

// QueueEnabled reports whether batch transforms go through the Redis queue.
func (c *Config) QueueEnabled() bool {
	return c.RedisAddr != ""
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go duration strings ("90s", "5m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
