package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // Postgres; empty selects SQLite
	SQLitePath  string
	TablePrefix string
	CORSOrigins []string
	SortGap     int64
	JWKSURL     string // empty disables bearer-token auth
	LogDir      string // empty logs to stdout only
	// Debug flags
	Debug bool
}

// Load reads configuration from the environment. Callers load .env first.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	gap, err := strconv.ParseInt(getEnv("SORT_GAP", strconv.Itoa(DefaultSortGap)), 10, 64)
	if err != nil || gap < 2 {
		return nil, fmt.Errorf("SORT_GAP must be an integer >= 2, got %q", os.Getenv("SORT_GAP"))
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "sortabletree.db"),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SortGap:     gap,
		JWKSURL:     getEnv("JWKS_URL", ""),
		LogDir:      getEnv("LOG_DIR", ""),
		// Debug defaults to true outside production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}, nil
}

// UsePostgres reports whether DATABASE_URL selects the Postgres backend
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
