package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               string
	Environment        string
	SupabaseURL        string
	SupabaseKey        string // anon/public key, sent as apikey on GoTrue calls
	SupabaseServiceKey string // service role key, only needed by the seed tool
	SupabaseDBURL      string
	SupabaseJWKSURL    string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	CORSOrigins        string
	TablePrefix        string
	// Store selects the catalog backend: "postgres" or "memory"
	Store string
	// RedisURL enables cross-instance event fan-out when set
	RedisURL string
	// Background jobs
	CatalogRefreshSchedule string
	WorkspaceIdleTTL       time.Duration
	// Log file sink (disabled when LogDir is empty)
	LogDir      string
	LogMaxFiles int
	// Memory store only: demo catalog and a local admin account
	SeedDemo         bool
	DevAdminEmail    string
	DevAdminPassword string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:                   getEnv("PORT", "8080"),
		Environment:            env,
		SupabaseURL:            supabaseURL,
		SupabaseKey:            getEnv("SUPABASE_KEY", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseDBURL:          getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL:        jwksURL,
		CORSOrigins:            getEnv("CORS_ORIGINS", "http://localhost:5173"),
		TablePrefix:            tablePrefix,
		Store:                  getEnv("STORE", "postgres"),
		RedisURL:               getEnv("REDIS_URL", ""),
		CatalogRefreshSchedule: getEnv("CATALOG_REFRESH_SCHEDULE", "@every 5m"),
		WorkspaceIdleTTL:       getDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
		LogDir:                 getEnv("LOG_DIR", ""),
		LogMaxFiles:            getInt("LOG_MAX_FILES", 10),
		SeedDemo:               getBool("SEED_DEMO", env == "dev"),
		DevAdminEmail:          getEnv("DEV_ADMIN_EMAIL", ""),
		DevAdminPassword:       getEnv("DEV_ADMIN_PASSWORD", ""),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
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

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
